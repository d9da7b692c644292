package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/harrison/treegrep/internal/queue"
)

// ErrorKind classifies a pipeline failure.
type ErrorKind int

const (
	// KindGeneric is any failure without a more specific class, including
	// recovered panics.
	KindGeneric ErrorKind = iota
	// KindValidation is an invalid root directory.
	KindValidation
	// KindChannel is a queue failure other than an oversized item.
	KindChannel
	// KindOversized is an item rejected by the queue size limit.
	KindOversized
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindGeneric:
		return "generic"
	case KindValidation:
		return "validation"
	case KindChannel:
		return "channel"
	case KindOversized:
		return "oversized"
	default:
		return "unknown"
	}
}

// ValidationError reports a root directory that cannot be walked.
type ValidationError struct {
	Path   string // Root path as given
	Reason string // Human-readable cause
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid root %q: %s", e.Path, e.Reason)
}

// WorkerError wraps a failure captured into a worker's future.
type WorkerError struct {
	Worker string    // "producer" or "consumer"
	Kind   ErrorKind // Classification of Err
	Err    error     // Underlying error
}

// NewWorkerError wraps err for worker and classifies it.
func NewWorkerError(worker string, err error) *WorkerError {
	return &WorkerError{
		Worker: worker,
		Kind:   KindOf(err),
		Err:    err,
	}
}

// Error implements the error interface for WorkerError.
func (e *WorkerError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Worker)
	sb.WriteString(" failed")
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *WorkerError) Unwrap() error {
	return e.Err
}

// KindOf classifies err. Worker errors keep the kind they were created with.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindGeneric
	}

	var we *WorkerError
	if errors.As(err, &we) {
		return we.Kind
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindValidation
	}

	var qe *queue.Error
	if errors.As(err, &qe) {
		if qe.Code == queue.CodeOversized {
			return KindOversized
		}
		return KindChannel
	}

	return KindGeneric
}

// FormatDiagnostic renders err as a single diagnostic line. Queue failures
// carry their error code and the platform errno.
func FormatDiagnostic(err error) string {
	if err == nil {
		return ""
	}

	line := fmt.Sprintf("[exception] message: %q", err.Error())

	var qe *queue.Error
	if errors.As(err, &qe) {
		line += fmt.Sprintf(", error code: %d, native error: %d", int(qe.Code), qe.Native())
	}
	return line
}

func panicError(r interface{}) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
