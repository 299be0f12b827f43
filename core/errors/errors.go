package errors

import (
	stderrors "errors"
	"fmt"
)

// Error types for the stages of running a PD program
const (
	// Input errors
	ErrSourceRead  = "SOURCE_READ_ERROR"
	ErrTokenStream = "TOKEN_STREAM_ERROR"
	ErrConfig      = "CONFIG_ERROR"

	// Front-end errors
	ErrLex   = "LEX_ERROR"
	ErrParse = "PARSE_ERROR"

	// Runtime errors
	ErrInterpretation = "INTERPRETATION_ERROR"
)

// PDError is a stage-tagged error carrying optional context for the CLI.
type PDError struct {
	Type    string
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *PDError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *PDError) Unwrap() error {
	return e.Cause
}

// New creates a PDError without a cause.
func New(errorType, message string) *PDError {
	return &PDError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// Wrap creates a PDError around cause.
func Wrap(errorType, message string, cause error) *PDError {
	return &PDError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *PDError) WithContext(key string, value interface{}) *PDError {
	e.Context[key] = value
	return e
}

// GetContext returns context value by key
func (e *PDError) GetContext(key string) (interface{}, bool) {
	value, exists := e.Context[key]
	return value, exists
}

// NewSourceError reports a program file that could not be read.
func NewSourceError(path string, cause error) *PDError {
	return Wrap(ErrSourceRead, fmt.Sprintf("cannot read '%s'", path), cause).
		WithContext("path", path)
}

// NewLexError wraps a tokenizer failure.
func NewLexError(cause error) *PDError {
	return Wrap(ErrLex, "tokenization failed", cause)
}

// NewParseError wraps a grammar failure.
func NewParseError(cause error) *PDError {
	return Wrap(ErrParse, "syntax error", cause)
}

// NewConfigError wraps a configuration loading or validation failure.
func NewConfigError(path string, cause error) *PDError {
	return Wrap(ErrConfig, fmt.Sprintf("invalid configuration '%s'", path), cause).
		WithContext("path", path)
}

// NewInterpretationError wraps a runtime failure of the PD program.
func NewInterpretationError(cause error) *PDError {
	return Wrap(ErrInterpretation, "execution failed", cause)
}

// IsErrorType reports whether any PDError in err's chain has the given type.
func IsErrorType(err error, errorType string) bool {
	var pdErr *PDError
	for stderrors.As(err, &pdErr) {
		if pdErr.Type == errorType {
			return true
		}
		err = pdErr.Cause
	}
	return false
}
