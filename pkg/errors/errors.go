// Package errors provides structured error handling for the props framework.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindCast indicates a value could not be converted to the property's
	// underlying representation.
	KindCast
	// KindValidation indicates a cast value failed validation while
	// allowInvalid is false.
	KindValidation
	// KindDuplicateName indicates a listener name collision, or an attempt
	// to use a reserved listener name.
	KindDuplicateName
	// KindLengthMismatch indicates a list assignment that would change the
	// list length.
	KindLengthMismatch
	// KindValueNotFound indicates a remove operation found no matching item.
	KindValueNotFound
	// KindInvalidOrder indicates a reorder with indices that are not a
	// permutation of the current index range.
	KindInvalidOrder
	// KindIllegalSync indicates a sync state change that is not permitted,
	// either because there is no parent or because the property is listed
	// in nobind/nounbind.
	KindIllegalSync
	// KindListener indicates a listener callback failed during queue drain.
	KindListener
	// KindSchema indicates a malformed property schema document.
	KindSchema
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindCast:
		return "cast"
	case KindValidation:
		return "validation"
	case KindDuplicateName:
		return "duplicate name"
	case KindLengthMismatch:
		return "length mismatch"
	case KindValueNotFound:
		return "value not found"
	case KindInvalidOrder:
		return "invalid order"
	case KindIllegalSync:
		return "illegal sync"
	case KindListener:
		return "listener"
	case KindSchema:
		return "schema"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// PropError represents a structured error in the props framework.
type PropError struct {
	// Op is the operation that failed (e.g., "propval.Set").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Container is the name of the property value container involved,
	// if applicable.
	Container string
	// Err is the underlying error.
	Err error
}

func (e *PropError) Error() string {
	if e.Container != "" {
		return fmt.Sprintf("%s [%s] container=%s: %v", e.Op, e.Kind, e.Container, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *PropError) Unwrap() error {
	return e.Err
}

// E constructs a PropError.
func E(op string, kind ErrorKind, container string, err error) *PropError {
	return &PropError{Op: op, Kind: kind, Container: container, Err: err}
}

// Errorf constructs a PropError with a formatted underlying error.
func Errorf(op string, kind ErrorKind, container, format string, args ...any) *PropError {
	return &PropError{Op: op, Kind: kind, Container: container, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the ErrorKind of err, or KindUnknown if err is not a
// PropError (or does not wrap one).
func KindOf(err error) ErrorKind {
	var pe *PropError
	if stderrors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is, or wraps, a PropError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *PropError
	if stderrors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// ListenerError represents a failure raised by a listener callback during
// notification queue drain. Listener failures are reported to the global
// handler rather than returned to the code that triggered the change.
type ListenerError struct {
	// Desc identifies the offending listener (listener name plus the
	// container it was registered on).
	Desc string
	// Recovered is the panic value, if the listener panicked.
	Recovered any
	// Err is the underlying error, if the listener failed without panicking.
	Err error
	// StackTrace contains the call stack at the time of the failure.
	StackTrace string
	// Timestamp is when the failure occurred.
	Timestamp time.Time
}

func (e *ListenerError) Error() string {
	if e.Recovered != nil {
		return fmt.Sprintf("panic in listener %s: %v", e.Desc, e.Recovered)
	}
	return fmt.Sprintf("listener %s failed: %v", e.Desc, e.Err)
}

func (e *ListenerError) Unwrap() error {
	return e.Err
}

// ErrorHandler receives errors reported by the props framework.
type ErrorHandler interface {
	// HandleError is called when an error occurs outside a notification.
	HandleError(err *PropError)
	// HandleListenerError is called when a listener callback fails during
	// notification queue drain.
	HandleListenerError(err *ListenerError)
}
