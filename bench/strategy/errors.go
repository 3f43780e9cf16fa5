package strategy

import (
	"errors"
	"fmt"
	"syscall"
)

var (
	// ErrConnectionClosed is returned when the peer ended the stream. It is the
	// normal way for a connection to end and not an error of the benchmark.
	ErrConnectionClosed = errors.New("connection closed by peer")

	// ErrResourceExhausted is the kernel rejecting a zero-copy send because its
	// pinned-page or notification budget is exceeded
	ErrResourceExhausted = errors.New("zero-copy resources exhausted")

	// ErrFatal wraps every other system-level failure; it stops the affected connection only
	ErrFatal = errors.New("fatal send error")

	// ErrStopped is returned when a retry loop observed the process-wide stop flag
	ErrStopped = errors.New("stopped")

	// ErrUnsupported is returned when the platform or socket cannot run a strategy
	ErrUnsupported = errors.New("not supported")
)

// Class is the error category of a failed send
type Class int

const (
	ClassNone Class = iota
	ClassInterrupted
	ClassResourceExhausted
	ClassConnectionClosed
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassInterrupted:
		return "interrupted"
	case ClassResourceExhausted:
		return "resource exhausted"
	case ClassConnectionClosed:
		return "connection closed"
	default:
		return "fatal"
	}
}

// Classify maps the error of a send call onto the error taxonomy
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, syscall.EINTR):
		return ClassInterrupted
	case errors.Is(err, syscall.ENOBUFS), errors.Is(err, ErrResourceExhausted):
		return ClassResourceExhausted
	case errors.Is(err, syscall.EPIPE), errors.Is(err, syscall.ECONNRESET), errors.Is(err, ErrConnectionClosed):
		return ClassConnectionClosed
	default:
		return ClassFatal
	}
}

// wrap converts a raw send error into one of the package's sentinel errors
func wrap(err error) error {
	switch Classify(err) {
	case ClassConnectionClosed:
		if errors.Is(err, ErrConnectionClosed) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrConnectionClosed, err)
	case ClassResourceExhausted:
		return fmt.Errorf("%w: %v", ErrResourceExhausted, err)
	default:
		if errors.Is(err, ErrFatal) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrFatal, err)
	}
}

// isWouldBlock reports whether err means "no data available" on a non-blocking read
func isWouldBlock(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK)
}
