package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies editor failures. Each kind is itself an error so callers
// can test with errors.Is(err, models.KindRefused).
type ErrorKind string

const (
	KindInvalidInput   ErrorKind = "invalid_input"   // Rejected upload or malformed request, no state change
	KindRefused        ErrorKind = "refused"         // Operation would break an invariant, no state change
	KindRenderFailure  ErrorKind = "render_failure"  // Renderer or document builder failed
	KindMissingElement ErrorKind = "missing_element" // No viewport to derive a display scale from
	KindNotFound       ErrorKind = "not_found"       // Unknown session or annotation
)

func (k ErrorKind) Error() string {
	return string(k)
}

// EditorError carries a kind, the failing operation and the underlying cause
type EditorError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewError wraps err with a kind and operation name
func NewError(kind ErrorKind, op string, err error) *EditorError {
	return &EditorError{Kind: kind, Op: op, Err: err}
}

// Errorf builds an EditorError from a format string
func Errorf(kind ErrorKind, op string, format string, args ...interface{}) *EditorError {
	return &EditorError{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *EditorError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *EditorError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the kind carried by err, or "" when err has none
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ee *EditorError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	var k ErrorKind
	if errors.As(err, &k) {
		return k
	}
	return ""
}
