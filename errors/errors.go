package errors

import (
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ValidationError          ErrorType = "VALIDATION_ERROR"
	NotFoundError            ErrorType = "NOT_FOUND"
	ArtifactError            ErrorType = "ARTIFACT_LOAD_ERROR"
	PipelineUnavailableError ErrorType = "PIPELINE_UNAVAILABLE"
	RateLimitError           ErrorType = "RATE_LIMIT_EXCEEDED"
	ServerError              ErrorType = "SERVER_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Raw        error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the wrapped raw error to errors.Is/As chains.
func (e *AppError) Unwrap() error {
	return e.Raw
}

// GetHTTPStatus returns the HTTP status code associated with the error.
func (e *AppError) GetHTTPStatus() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	return getHTTPStatus(e.Type)
}

// New creates a new AppError
func New(errType ErrorType, message string, detail string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		Detail:     detail,
		HTTPStatus: getHTTPStatus(errType),
	}
}

// Wrap wraps a raw error with AppError context
func Wrap(err error, errType ErrorType, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Type:       errType,
		Message:    message,
		Detail:     err.Error(),
		HTTPStatus: getHTTPStatus(errType),
		Raw:        err,
	}
}

// Helper functions for common errors

func ValidationFailed(message string, details string) *AppError {
	return &AppError{
		Type:       ValidationError,
		Message:    message,
		Detail:     details,
		HTTPStatus: http.StatusBadRequest,
	}
}

func NotFound(entity string, id interface{}) *AppError {
	return &AppError{
		Type:       NotFoundError,
		Message:    fmt.Sprintf("%s not found", entity),
		Detail:     fmt.Sprintf("ID: %v", id),
		HTTPStatus: http.StatusNotFound,
	}
}

// ArtifactLoadFailed wraps a model or encoder artifact load failure. The
// pipeline stays permanently unavailable after this error until restart.
func ArtifactLoadFailed(artifact string, err error) *AppError {
	return &AppError{
		Type:       ArtifactError,
		Message:    fmt.Sprintf("Failed to load %s artifact", artifact),
		Detail:     err.Error(),
		HTTPStatus: http.StatusInternalServerError,
		Raw:        err,
	}
}

// PipelineUnavailable signals that scoring is disabled because artifacts
// never loaded. Mapped to 503 so the display layer can disable the check
// button rather than surface a crash.
func PipelineUnavailable(detail string) *AppError {
	return &AppError{
		Type:       PipelineUnavailableError,
		Message:    "Fraud scoring is unavailable",
		Detail:     detail,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

func RateLimitExceeded(message string, retryAfterSeconds int) *AppError {
	return &AppError{
		Type:       RateLimitError,
		Message:    message,
		Detail:     fmt.Sprintf("Retry after %d seconds", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

func InternalServerError(message string) *AppError {
	return &AppError{
		Type:       ServerError,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

func getHTTPStatus(errType ErrorType) int {
	switch errType {
	case ValidationError:
		return http.StatusBadRequest
	case NotFoundError:
		return http.StatusNotFound
	case PipelineUnavailableError:
		return http.StatusServiceUnavailable
	case RateLimitError:
		return http.StatusTooManyRequests
	case ArtifactError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
