package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType classifies a pipeline error
type ErrorType string

const (
	// ErrorTypeCollection covers browser, navigation and timeout failures
	ErrorTypeCollection ErrorType = "collection"
	// ErrorTypeParsing covers unreadable raw tables
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeStoreRead covers missing or unreadable store files
	ErrorTypeStoreRead ErrorType = "store_read"
	// ErrorTypeStoreWrite covers disk and permission errors on write
	ErrorTypeStoreWrite ErrorType = "store_write"
	// ErrorTypeCache covers result cache failures
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypeValidation covers bad user input (dashboard column choices)
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration covers invalid settings
	ErrorTypeConfiguration ErrorType = "configuration"
)

// PipelineError is an error raised by one stage of the pipeline
type PipelineError struct {
	Type    ErrorType
	Stage   string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Stage, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether running the stage again may succeed
func (e *PipelineError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeCollection, ErrorTypeCache:
		return true
	default:
		return false
	}
}

// New creates a new PipelineError
func New(errType ErrorType, stage, message string, err error) *PipelineError {
	return &PipelineError{
		Type:    errType,
		Stage:   stage,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewCollection creates a new collection error
func NewCollection(stage, message string, err error) *PipelineError {
	return New(ErrorTypeCollection, stage, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(stage, message string, err error) *PipelineError {
	return New(ErrorTypeParsing, stage, message, err)
}

// NewStoreRead creates a new store read error
func NewStoreRead(stage, message string, err error) *PipelineError {
	return New(ErrorTypeStoreRead, stage, message, err)
}

// NewStoreWrite creates a new store write error
func NewStoreWrite(stage, message string, err error) *PipelineError {
	return New(ErrorTypeStoreWrite, stage, message, err)
}

// NewCache creates a new cache error
func NewCache(stage, message string, err error) *PipelineError {
	return New(ErrorTypeCache, stage, message, err)
}

// NewValidation creates a new validation error
func NewValidation(stage, message string) *PipelineError {
	return New(ErrorTypeValidation, stage, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *PipelineError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeOf returns the ErrorType of the first PipelineError in err's chain
func TypeOf(err error) (ErrorType, bool) {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Type, true
	}
	return "", false
}
