package errors

import (
	"errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig   Category = "config"
	CategoryStorage  Category = "storage"
	CategoryDatabase Category = "database"
	CategoryIngest   Category = "ingest"
	CategoryCLI      Category = "cli"
)

// XcelError is a structured error with a code, an explanation and a hint.
type XcelError struct {
	// Code is a unique error identifier (e.g., "X101").
	Code string

	// Category is the error type (config, storage, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *XcelError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *XcelError) Unwrap() error {
	return e.Wrapped
}

// WithSuggestion adds a fix suggestion to the error.
func (e *XcelError) WithSuggestion(s string) *XcelError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *XcelError) WithDetail(d string) *XcelError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *XcelError) Wrap(err error) *XcelError {
	e.Wrapped = err
	return e
}

// New creates an XcelError from a registered error code.
func New(code string) *XcelError {
	template, ok := registry[code]
	if !ok {
		return &XcelError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &XcelError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new XcelError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *XcelError {
	return &XcelError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an XcelError. An XcelError anywhere
// in err's chain is returned as is.
func FromError(err error, code string) *XcelError {
	if err == nil {
		return nil
	}
	var xe *XcelError
	if errors.As(err, &xe) {
		return xe
	}
	return New(code).Wrap(err)
}

// HasCode reports whether err is, or wraps, an XcelError with code.
func HasCode(err error, code string) bool {
	var xe *XcelError
	return errors.As(err, &xe) && xe.Code == code
}
