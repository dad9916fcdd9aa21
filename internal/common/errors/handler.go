// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"

	"house-price-api/internal/common/logger"
	"house-price-api/internal/common/metrics"
)

// ErrorHandler turns any error reaching an endpoint boundary into a JSON response.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Error   string    `json:"error"`
	Code    ErrorCode `json:"code"`
	Details string    `json:"details,omitempty"`
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleHTTPError normalizes err, logs it, counts it and writes the response.
// It returns the status code that was written.
func (h *ErrorHandler) HandleHTTPError(w http.ResponseWriter, r *http.Request, err error) int {
	stdErr := Normalize(err)
	status := stdErr.HTTPStatus()

	h.logError(r, stdErr, status)
	metrics.HTTPErrors.WithLabelValues(routeLabel(r), string(stdErr.Code)).Inc()

	WriteJSON(w, status, ErrorResponse{
		Error:   stdErr.Message,
		Code:    stdErr.Code,
		Details: stdErr.Details,
	})
	return status
}

func (h *ErrorHandler) logError(r *http.Request, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"method":        r.Method,
		"path":          r.URL.Path,
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if len(stdErr.Metadata) > 0 {
		fields["metadata"] = stdErr.Metadata
	}
	if id := logger.RequestID(r.Context()); id != "" {
		fields["requestId"] = id
	}

	// Client mistakes are not server faults.
	if status < http.StatusInternalServerError {
		h.logger.Warn("request rejected", fields)
		return
	}
	h.logger.Error("request failed", fields)
}

// routeLabel is the mux pattern that served r, so the label set stays bounded.
func routeLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return "unmatched"
}

// WriteJSON encodes body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
