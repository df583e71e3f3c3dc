package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anime-shed/image-quality-go/internal/quality"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeProcessing ErrorType = "processing"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

func newAppError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{Type: t, Message: message, StatusCode: status, Cause: cause}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, message, cause)
}

// NewPayloadTooLargeError creates a validation error for oversized requests
func NewPayloadTooLargeError(message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusRequestEntityTooLarge, message, cause)
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return newAppError(ErrorTypeNetwork, http.StatusBadGateway, message, cause)
}

// NewProcessingError creates a new processing error
func NewProcessingError(message string, cause error) *AppError {
	return newAppError(ErrorTypeProcessing, http.StatusUnprocessableEntity, message, cause)
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return newAppError(ErrorTypeTimeout, http.StatusGatewayTimeout, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, http.StatusInternalServerError, message, cause)
}

// FetchError marks a failure to retrieve a locator, as opposed to a
// failure to parse what was retrieved.
type FetchError interface {
	error
	Fetch() bool
}

// FromAnalysisError maps an engine failure onto an AppError. Errors that
// already are an *AppError pass through.
func FromAnalysisError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var (
		decodeErr  *quality.DecodeError
		rasterErr  *quality.RasterContextError
		scoringErr *quality.ScoringError
		fetchErr   FetchError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError("image analysis timed out", err)
	case errors.Is(err, context.Canceled):
		return NewTimeoutError("image analysis abandoned", err)
	case errors.As(err, &fetchErr) && fetchErr.Fetch():
		return NewNetworkError("failed to fetch image", err)
	case errors.As(err, &decodeErr):
		return NewProcessingError("failed to decode image", err)
	case errors.As(err, &rasterErr):
		return NewInternalError("rasterization surface unavailable", err)
	case errors.As(err, &scoringErr):
		return NewInternalError("image scoring failed", err)
	default:
		return NewInternalError("image analysis failed", err)
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
