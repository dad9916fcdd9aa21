// Package errors provides the typed error taxonomy of the prediction API and
// its mapping onto HTTP status codes.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Request errors
	ErrCodeMalformedRequest    ErrorCode = "MALFORMED_REQUEST"
	ErrCodeMissingFeature      ErrorCode = "MISSING_FEATURE"
	ErrCodeInvalidFeatureValue ErrorCode = "INVALID_FEATURE_VALUE"
	ErrCodeSchemaValidation    ErrorCode = "SCHEMA_VALIDATION_FAILED"

	// Model errors
	ErrCodeModelUnavailable ErrorCode = "MODEL_UNAVAILABLE"
	ErrCodeInferenceError   ErrorCode = "INFERENCE_ERROR"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	cause    error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// HTTPStatus returns the status code this error is reported with.
func (e *StandardError) HTTPStatus() int {
	return HTTPStatus(e.Code)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewMalformedRequestError reports an absent, unreadable or non-object JSON body.
func NewMalformedRequestError(details string) *StandardError {
	return &StandardError{
		Code:    ErrCodeMalformedRequest,
		Message: "No input data provided or body is not a JSON object",
		Details: details,
	}
}

// NewMissingFeatureError is raised only under the strict missing-field policy.
func NewMissingFeatureError(field string) *StandardError {
	return &StandardError{
		Code:     ErrCodeMissingFeature,
		Message:  fmt.Sprintf("Missing field: %s", field),
		Details:  fmt.Sprintf("field: %s", field),
		Metadata: map[string]interface{}{"field": field},
	}
}

// NewInvalidFeatureValueError reports a schema field that cannot be coerced to a number.
func NewInvalidFeatureValueError(field string, err error) *StandardError {
	return &StandardError{
		Code:     ErrCodeInvalidFeatureValue,
		Message:  fmt.Sprintf("Invalid value for field: %s", field),
		Details:  err.Error(),
		Metadata: map[string]interface{}{"field": field},
		cause:    err,
	}
}

// NewSchemaValidationError carries the messages produced by JSON-schema validation.
func NewSchemaValidationError(problems []string) *StandardError {
	return &StandardError{
		Code:     ErrCodeSchemaValidation,
		Message:  "Input does not match the feature schema",
		Details:  strings.Join(problems, "; "),
		Metadata: map[string]interface{}{"problems": problems},
	}
}

// NewModelUnavailableError reports that the artifact failed to load.
func NewModelUnavailableError(err error) *StandardError {
	details := "model not loaded"
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:    ErrCodeModelUnavailable,
		Message: "Model is not available",
		Details: details,
		cause:   err,
	}
}

// NewInferenceError wraps a failure raised by the model's predict call.
func NewInferenceError(err error) *StandardError {
	return &StandardError{
		Code:    ErrCodeInferenceError,
		Message: "Model inference failed",
		Details: err.Error(),
		cause:   err,
	}
}

// NewInternalError is the fallback for anything not otherwise classified.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:    ErrCodeInternal,
		Message: "Unexpected error",
		Details: err.Error(),
		cause:   err,
	}
}

// ==========================
// 3. HTTP Mapping
// ==========================

// HTTPStatusMapping maps error codes to response status codes.
var HTTPStatusMapping = map[ErrorCode]int{
	ErrCodeMalformedRequest:    http.StatusBadRequest,
	ErrCodeMissingFeature:      http.StatusBadRequest,
	ErrCodeInvalidFeatureValue: http.StatusBadRequest,
	ErrCodeSchemaValidation:    http.StatusBadRequest,
	ErrCodeModelUnavailable:    http.StatusInternalServerError,
	ErrCodeInferenceError:      http.StatusInternalServerError,
	ErrCodeInternal:            http.StatusInternalServerError,
}

// HTTPStatus returns the status for code, 500 for unknown codes.
func HTTPStatus(code ErrorCode) int {
	if status, ok := HTTPStatusMapping[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ==========================
// 4. Utility Functions
// ==========================

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HasCode reports whether err is a StandardError carrying code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "MODEL") || strings.Contains(codeStr, "INFERENCE"):
		return "MODEL"
	case strings.Contains(codeStr, "FEATURE") || strings.Contains(codeStr, "SCHEMA"):
		return "VALIDATION"
	case strings.Contains(codeStr, "REQUEST"):
		return "REQUEST"
	default:
		return "OTHER"
	}
}
