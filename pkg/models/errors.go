package models

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific failure condition in the pipeline
type ErrorCode string

const (
	ErrCodeLoadTimeout    ErrorCode = "LOAD_TIMEOUT"
	ErrCodeNavigation     ErrorCode = "NAVIGATION"
	ErrCodeRendering      ErrorCode = "RENDERING"
	ErrCodeFetchTimeout   ErrorCode = "FETCH_TIMEOUT"
	ErrCodeFetchTransport ErrorCode = "FETCH_TRANSPORT"
	ErrCodeFetchStatus    ErrorCode = "FETCH_STATUS"
	ErrCodeFilesystem     ErrorCode = "FILESYSTEM"
	ErrCodeConfig         ErrorCode = "CONFIG"
)

// PipelineError wraps errors with a code and additional context
type PipelineError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Underlying
}

// Is matches another PipelineError by code, otherwise defers to the underlying error
func (e *PipelineError) Is(target error) bool {
	if t, ok := target.(*PipelineError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewPipelineError creates a new PipelineError
func NewPipelineError(code ErrorCode, message string, err error) *PipelineError {
	return &PipelineError{
		Code:       code,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]interface{}),
	}
}

// WithDetail adds a detail to the error
func (e *PipelineError) WithDetail(key string, value interface{}) *PipelineError {
	e.Details[key] = value
	return e
}

// CodeOf returns the code of the first PipelineError in err's chain, or "" if none
func CodeOf(err error) ErrorCode {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
