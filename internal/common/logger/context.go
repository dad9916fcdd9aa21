package logger

import "context"

type ctxKey string

const requestIDKey ctxKey = "requestId"

// WithRequestID stores the request id so handlers can tag their log lines.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ForRequest returns l tagged with the request id carried by ctx, if any.
func ForRequest(ctx context.Context, l Logger) Logger {
	if id := RequestID(ctx); id != "" {
		return l.WithFields(map[string]interface{}{"requestId": id})
	}
	return l
}
