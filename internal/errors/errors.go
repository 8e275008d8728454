package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Error codes carried in APIError.ErrorCode and echoed as the error_code
// extension of a problem response.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidJSON      = "INVALID_JSON"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeIngestionRunning = "INGESTION_RUNNING"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMedia = "UNSUPPORTED_MEDIA_TYPE"
	CodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	CodeMetricsDisabled  = "METRICS_DISABLED"
)

// APIError is a transport error that already knows its status code.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError names one rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the details payload of a multi-field rejection.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// New creates an APIError without details.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

// NewWithDetails creates an APIError carrying a details payload.
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message, Details: details}
}

var (
	ErrIngestionRunning  = New(http.StatusConflict, CodeIngestionRunning, "An ingestion run is already in progress")
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded")
	ErrMetricsDisabled   = New(http.StatusServiceUnavailable, CodeMetricsDisabled, "Metrics export is disabled")
	ErrInvalidJSON       = New(http.StatusBadRequest, CodeInvalidJSON, "Request body contains invalid JSON")
)

// InvalidRequestWithError wraps a body decoding failure.
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// ErrValidation rejects a single request field.
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed",
		ValidationError{Field: field, Message: message})
}

// NewValidationErrors rejects several request fields at once.
func NewValidationErrors(errs []ValidationError) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed",
		ValidationErrors{Errors: errs})
}

// UnknownReport is the 404 for an export outside the report catalogue.
func UnknownReport(name string, available []string) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeNotFound, fmt.Sprintf("report %s not found", name),
		map[string]interface{}{"report": name, "available": available})
}

// PayloadTooLarge rejects a request body above limit bytes.
func PayloadTooLarge(size, limit int64) *APIError {
	return NewWithDetails(http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
		"Request body exceeds maximum allowed size",
		map[string]int64{"size": size, "max_size": limit})
}

// UnsupportedMediaType rejects a request whose Content-Type is missing or
// not in allowed.
func UnsupportedMediaType(got string, allowed []string) *APIError {
	msg := "Unsupported content type"
	if got == "" {
		msg = "Content-Type header is required"
	}
	return NewWithDetails(http.StatusUnsupportedMediaType, CodeUnsupportedMedia, msg,
		map[string]interface{}{"content_type": got, "allowed": allowed})
}
