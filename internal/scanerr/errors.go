// Package scanerr defines the structured error taxonomy used across the label
// pipeline.
//
// Only input and recognition failures are ever returned to a caller.
// Extraction-service failures are recovered inside the extract package and
// reported as status values, so SERVICE_UNAVAILABLE and PARSE_FAILED errors
// appear only in logs and traces.
package scanerr

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure.
type Code string

const (
	// Input errors
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeDecodeFailed Code = "DECODE_FAILED"

	// Recognition errors
	CodeOCRFailed        Code = "OCR_FAILED"
	CodeEngineInitFailed Code = "ENGINE_INIT_FAILED"

	// Extraction-service errors
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeParseFailed        Code = "PARSE_FAILED"
)

// Error is a coded pipeline error.
type Error struct {
	Code    Code
	Message string
	Details map[string]interface{}
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Factory functions

func NewInvalidInputError(message string, details map[string]interface{}) *Error {
	return &Error{
		Code:    CodeInvalidInput,
		Message: message,
		Details: details,
	}
}

func NewUnsupportedContentTypeError(contentType string) *Error {
	return NewInvalidInputError(
		fmt.Sprintf("content type %q is not an image", contentType),
		map[string]interface{}{"content_type": contentType},
	)
}

func NewDecodeError(cause error) *Error {
	return &Error{
		Code:    CodeDecodeFailed,
		Message: "image bytes could not be decoded",
		Cause:   cause,
	}
}

func NewOCRError(engine, tier string, cause error) *Error {
	return &Error{
		Code:    CodeOCRFailed,
		Message: fmt.Sprintf("recognition failed in %s engine at tier %s", engine, tier),
		Details: map[string]interface{}{
			"engine": engine,
			"tier":   tier,
		},
		Cause: cause,
	}
}

func NewEngineInitError(engine string, cause error) *Error {
	return &Error{
		Code:    CodeEngineInitFailed,
		Message: fmt.Sprintf("failed to initialize %s engine", engine),
		Details: map[string]interface{}{"engine": engine},
		Cause:   cause,
	}
}

func NewServiceUnavailableError(service string, cause error) *Error {
	return &Error{
		Code:    CodeServiceUnavailable,
		Message: fmt.Sprintf("%s is unavailable", service),
		Details: map[string]interface{}{"service": service},
		Cause:   cause,
	}
}

func NewParseError(strategiesTried int, cause error) *Error {
	return &Error{
		Code:    CodeParseFailed,
		Message: "service response could not be repaired into a JSON object",
		Details: map[string]interface{}{"strategies_tried": strategiesTried},
		Cause:   cause,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if there
// is none.
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// ToMap flattens the error for structured logs and traces.
func (e *Error) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
	}
	for k, v := range e.Details {
		result[k] = v
	}
	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}
	return result
}
