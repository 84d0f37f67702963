package errors

import (
	"fmt"
	"net/http"
)

// Error codes shared by the API layer. Soft codes are user feedback, not faults.
const (
	CodeBadRequest        = "BAD_REQUEST"
	CodeMessageNotFound   = "MESSAGE_NOT_FOUND"
	CodeTooManyButtons    = "TOO_MANY_BUTTONS"
	CodeLabelTooLong      = "LABEL_TOO_LONG"
	CodeReactionsDisabled = "REACTIONS_DISABLED"
	CodeEmojiOnly         = "EMOJI_ONLY"
	CodeNotAuthor         = "NOT_AUTHOR"
	CodeNoSession         = "NO_SESSION"
	CodeDraftNotFound     = "DRAFT_NOT_FOUND"
	CodeNotPublishable    = "NOT_PUBLISHABLE"
	CodeUnavailable       = "UNAVAILABLE"
	CodeInternal          = "INTERNAL_ERROR"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	// Soft marks conditions the caller renders as user feedback
	Soft bool  `json:"soft"`
	Err  error `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// NewError creates a new application error
func NewError(statusCode int, code string, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(code string, message string) *AppError {
	return NewError(http.StatusBadRequest, code, message)
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(code string, message string) *AppError {
	return NewError(http.StatusNotFound, code, message)
}

// NewForbiddenError creates a 403 Forbidden error
func NewForbiddenError(code string, message string) *AppError {
	return NewError(http.StatusForbidden, code, message)
}

// NewServiceUnavailableError creates a 503 error for a dependency that is temporarily off
func NewServiceUnavailableError(code string, message string) *AppError {
	return NewError(http.StatusServiceUnavailable, code, message)
}

// NewSoftError creates a 422 error carrying a short user-facing explanation
func NewSoftError(code string, message string) *AppError {
	e := NewError(http.StatusUnprocessableEntity, code, message)
	e.Soft = true
	return e
}

// NewInternalServerError creates a 500 error wrapping the cause.
// The message stays generic; the cause is only logged.
func NewInternalServerError(err error) *AppError {
	e := NewError(http.StatusInternalServerError, CodeInternal, "Something went wrong, please try again later")
	e.Err = err
	return e
}
