package queue

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
)

// Code classifies a queue failure for diagnostics.
type Code int

const (
	// CodeUnknown is used when no more specific code applies.
	CodeUnknown Code = iota
	// CodeInvalidArgument reports a bad name, capacity or item size.
	CodeInvalidArgument
	// CodeAlreadyExists reports a create on a name that is still live.
	CodeAlreadyExists
	// CodeNotFound reports an open or attach on a queue that does not exist.
	CodeNotFound
	// CodeParticipants reports an attach beyond the producer and consumer.
	CodeParticipants
	// CodeOversized reports an item larger than the queue's max item size.
	CodeOversized
	// CodeClosed reports an operation on a destroyed queue.
	CodeClosed
	// CodeInterrupted reports a blocking operation abandoned by its context.
	CodeInterrupted
	// CodeResource reports a failure of the runtime directory or lock file.
	CodeResource
)

// String returns the string representation of Code.
func (c Code) String() string {
	switch c {
	case CodeInvalidArgument:
		return "invalid_argument"
	case CodeAlreadyExists:
		return "already_exists"
	case CodeNotFound:
		return "not_found"
	case CodeParticipants:
		return "too_many_participants"
	case CodeOversized:
		return "oversized_item"
	case CodeClosed:
		return "closed"
	case CodeInterrupted:
		return "interrupted"
	case CodeResource:
		return "resource"
	default:
		return "unknown"
	}
}

// Error is a queue failure. It is distinguishable from generic errors with
// errors.As and carries a Code plus the platform error number when the
// underlying cause has one.
type Error struct {
	Op      string // Operation that failed: create, open, attach, send, receive, remove, destroy
	Name    string // Queue name
	Code    Code   // Failure class
	Message string // Human-readable detail (optional)
	Err     error  // Underlying error (optional)
}

func newError(op, name string, code Code, msg string, err error) *Error {
	return &Error{Op: op, Name: name, Code: code, Message: msg, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("queue %s %q: %s", e.Op, e.Name, e.Code))
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Native returns the platform error number of the underlying cause, or 0.
func (e *Error) Native() int {
	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		return int(errno)
	}
	return 0
}

// CodeOf returns the Code of a queue error anywhere in err's chain, or
// CodeUnknown when err is not a queue error.
func CodeOf(err error) Code {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Code
	}
	return CodeUnknown
}

// IsOversized reports whether err is an oversized item rejection.
func IsOversized(err error) bool {
	return CodeOf(err) == CodeOversized
}

// IsClosed reports whether err was caused by a destroyed queue.
func IsClosed(err error) bool {
	return CodeOf(err) == CodeClosed
}
