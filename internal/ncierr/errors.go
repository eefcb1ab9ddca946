// Package ncierr provides the structured error type shared by the NCI
// transport, RF transport, and controller engine, grounded on the teacher
// repository's nfc.NFCError (Code/Op/Cause, Unwrap, Is).
package ncierr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error per the error handling design: Transport errors
// terminate the owning task; Protocol errors terminate the connection;
// Semantic errors are reported as an NCI Response status and the connection
// stays open; Fatal marks a closed RF ingress channel between the fabric
// and a controller. Timeout is defined for outstanding-command deadlines,
// but the host flow controller logs those rather than returning an Error.
type Kind int

const (
	KindTransport Kind = iota + 1
	KindProtocol
	KindSemantic
	KindTimeout
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindSemantic:
		return "semantic"
	case KindTimeout:
		return "timeout"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error is the structured error type used throughout the simulator.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "nci.Reader.Read"
	Message string
	Cause   error
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Op != "" {
		s += ": " + e.Op
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an Error with a formatted message.
func New(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error around an underlying cause.
func Wrap(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Cause: cause}
}

// Is reports whether err is (or wraps) an Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
