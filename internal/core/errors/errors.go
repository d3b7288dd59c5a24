package errors

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeValidationError     ErrorCode = "VALIDATION_ERROR"
	CodeInternal            ErrorCode = "INTERNAL_ERROR"
	CodeMethodFileNotFound  ErrorCode = "METHOD_FILE_NOT_FOUND"
	CodeParsing             ErrorCode = "PARSING_ERROR"
	CodeUnsupportedScanMode ErrorCode = "UNSUPPORTED_SCAN_MODE"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxPath         = "path"
	CtxOperation    = "operation"
	CtxParameter    = "parameter"
	CtxScanMode     = "scan_mode"
	CtxSegmentStart = "segment_start"
	CtxSegmentEnd   = "segment_end"
)

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// MethodFileNotFound reports that no method document exists at or below path.
func MethodFileNotFound(path string) error {
	return (&DomainError{
		Code:    CodeMethodFileNotFound,
		Message: "method file not found",
	}).WithContext(CtxPath, path)
}

// Parsing wraps a malformed-document failure for path.
func Parsing(err error, path, msg string) error {
	de := &DomainError{Code: CodeParsing, Message: msg, Err: err}
	if path != "" {
		de.WithContext(CtxPath, path)
	}
	return de
}

// UnsupportedScanMode reports a scan-mode code missing from the mode table,
// together with the time window of the segment that carried it.
func UnsupportedScanMode(code string, start float64, end string) error {
	return (&DomainError{
		Code:    CodeUnsupportedScanMode,
		Message: fmt.Sprintf("unsupported scan mode %q in segment starting at %.2f min", code, start),
	}).
		WithContext(CtxScanMode, code).
		WithContext(CtxSegmentStart, start).
		WithContext(CtxSegmentEnd, end)
}

// AddContext attaches key/value context to err, wrapping foreign errors as
// internal errors.
func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return de
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// ContextValue returns a context entry of the first DomainError in err's chain.
func ContextValue(err error, key string) (interface{}, bool) {
	var de *DomainError
	if !errors.As(err, &de) || de.Context == nil {
		return nil, false
	}
	v, ok := de.Context[key]
	return v, ok
}
