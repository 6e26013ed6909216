package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// NewAPIError creates a new APIError with the given parameters
func NewAPIError(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// APIErrorWithDetails creates a new APIError with additional details
func APIErrorWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for common scenarios
var (
	ErrInvalidRequest   = NewAPIError(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrMissingParameter = NewAPIError(http.StatusBadRequest, "MISSING_PARAMETER", "Required parameter is missing")
	ErrNotFound         = NewAPIError(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrInternalServer   = NewAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// APIValidation creates a 422 error with field details
func APIValidation(field, message string) *APIError {
	return APIErrorWithDetails(http.StatusUnprocessableEntity, "VALIDATION_FAILED", "Request validation failed", map[string]string{
		"field":   field,
		"message": message,
	})
}

// APIInsufficientData creates a 422 error for series too short to model
func APIInsufficientData(group string) *APIError {
	return APIErrorWithDetails(http.StatusUnprocessableEntity, "INSUFFICIENT_DATA",
		"Not enough data points to create a forecast", map[string]string{
			"pop_group": group,
		})
}

// APIFromAppError maps an AppError to its HTTP representation
func APIFromAppError(err *AppError) *APIError {
	status := http.StatusInternalServerError
	switch err.Type {
	case ErrTypeValidation:
		status = http.StatusUnprocessableEntity
	case ErrTypeNotFound:
		status = http.StatusNotFound
	case ErrTypeDataAccess, ErrTypeSchema:
		status = http.StatusServiceUnavailable
	}
	return APIErrorWithDetails(status, string(err.Type), err.Message, nil)
}
