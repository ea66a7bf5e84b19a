package tracectl

import (
	"errors"
	"fmt"

	"github.com/containerd/errdefs"
)

// Kind classifies a control operation failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidHandle
	KindInvalidArgument
	KindNotFound
	KindInvalidExclusion
	KindCommunication
	KindAllocation
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidHandle:
		return "InvalidHandle"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindNotFound:
		return "NotFound"
	case KindInvalidExclusion:
		return "InvalidExclusion"
	case KindCommunication:
		return "CommunicationError"
	case KindAllocation:
		return "AllocationFailure"
	default:
		return "Unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k := KindInvalidHandle; k <= KindAllocation; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return KindUnknown, false
}

// Code is the negative status code reported for the kind at the
// command-line boundary.
func (k Kind) Code() int {
	switch k {
	case KindInvalidHandle:
		return -10
	case KindInvalidArgument:
		return -22
	case KindNotFound:
		return -2
	case KindInvalidExclusion:
		return -87
	case KindCommunication:
		return -32
	case KindAllocation:
		return -12
	default:
		return -1
	}
}

func (k Kind) class() error {
	switch k {
	case KindInvalidHandle, KindInvalidArgument, KindInvalidExclusion:
		return errdefs.ErrInvalidArgument
	case KindNotFound:
		return errdefs.ErrNotFound
	case KindCommunication:
		return errdefs.ErrUnavailable
	case KindAllocation:
		return errdefs.ErrResourceExhausted
	default:
		return errdefs.ErrUnknown
	}
}

// Sentinels for errors.Is.
var (
	ErrInvalidHandle    = &Error{Kind: KindInvalidHandle}
	ErrInvalidArgument  = &Error{Kind: KindInvalidArgument}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrInvalidExclusion = &Error{Kind: KindInvalidExclusion}
	ErrCommunication    = &Error{Kind: KindCommunication}
	ErrAllocation       = &Error{Kind: KindAllocation}
)

// Error is a control operation failure of a known kind.
//
// errors.Is matches any *Error of the same kind, so callers can test
// errors.Is(err, tracectl.ErrNotFound). Error also unwraps to the
// matching containerd errdefs class, so errdefs.IsNotFound(err) works
// for code that only knows about those.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Errorf builds an *Error of the given kind.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around a cause.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Msg == "" && e.Err == nil:
		return e.Kind.String()
	case e.Err == nil:
		return e.Msg
	case e.Msg == "":
		return e.Err.Error()
	default:
		return e.Msg + ": " + e.Err.Error()
	}
}

// Unwrap exposes both the cause and the errdefs class.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Err, e.Kind.class()}
	}
	return []error{e.Kind.class()}
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
