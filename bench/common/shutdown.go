package common

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// Shutdown is the process-wide stop state. Workers poll Stopped once per loop
// iteration; a send or receive call already in progress is not interrupted.
type Shutdown struct {
	stopped atomic.Bool
	once    sync.Once
	done    chan struct{}
}

// NewShutdown creates a new shutdown state in the running state
func NewShutdown() *Shutdown {
	return &Shutdown{done: make(chan struct{})}
}

// Stop sets the stop flag. It is safe to call Stop multiple times and from a signal goroutine.
func (s *Shutdown) Stop() {
	s.once.Do(func() {
		s.stopped.Store(true)
		close(s.done)
	})
}

// Stopped reports whether Stop has been called
func (s *Shutdown) Stopped() bool {
	return s.stopped.Load()
}

// Done returns a channel that is closed once Stop has been called
func (s *Shutdown) Done() <-chan struct{} {
	return s.done
}

// NotifyOnSignal calls Stop when the process receives SIGINT or SIGTERM.
// The returned function unregisters the signal handler.
func (s *Shutdown) NotifyOnSignal() (cancel func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quit := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			s.Stop()
		case <-quit:
		}
	}()

	var stopOnce sync.Once
	return func() {
		stopOnce.Do(func() {
			signal.Stop(sigCh)
			close(quit)
		})
	}
}
