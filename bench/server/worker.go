package server

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/xferbench/bench/common"
	"github.com/ValentinKolb/xferbench/bench/strategy"
	"github.com/ValentinKolb/xferbench/bench/transport"
	"github.com/ValentinKolb/xferbench/lib/message"
	"github.com/ValentinKolb/xferbench/lib/util"
	"runtime"
)

// --------------------------------------------------------------------------
// Worker state
// --------------------------------------------------------------------------

// WorkerState is the lifecycle state of a connection worker
type WorkerState int

const (
	StateAllocating WorkerState = iota
	StateSending
	StateConnectionClosed
	StateFatal
	StateStopped
	StateDraining
	StateTerminated
)

func (s WorkerState) String() string {
	switch s {
	case StateAllocating:
		return "allocating"
	case StateSending:
		return "sending"
	case StateConnectionClosed:
		return "connection closed"
	case StateFatal:
		return "fatal"
	case StateStopped:
		return "stopped"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ConnectionResult is the summary of one connection. It is written by the
// worker and only read after the worker terminated.
type ConnectionResult struct {
	ID                uint64
	BytesTransferred  uint64
	MessagesCompleted uint64
	ElapsedMicros     int64

	// Outcome is the reason the send loop ended (ConnectionClosed, Fatal or Stopped)
	Outcome WorkerState
	Err     error

	// InFlightAtRelease is the number of zero-copy sends still unconfirmed when the buffer was released
	InFlightAtRelease uint64
}

// ThroughputGbps returns the send rate of the connection
func (r ConnectionResult) ThroughputGbps() float64 {
	if r.ElapsedMicros <= 0 {
		return 0
	}
	return float64(r.BytesTransferred) * 8 / (float64(r.ElapsedMicros) * 1e3)
}

// --------------------------------------------------------------------------
// Connection worker
// --------------------------------------------------------------------------

// connectionWorker owns one connection and its message buffer
type connectionWorker struct {
	conn          transport.Connection
	strategy      strategy.IStrategy
	shutdown      *common.Shutdown
	messageSize   int
	confirmedOnly bool
	pinCPU        int // < 0 = no pinning

	// observe is called on every state transition (may be nil)
	observe func(WorkerState)
}

func (w *connectionWorker) setState(state WorkerState) {
	Logger.Debugf("Connection %d: %s", w.conn.ID(), state)
	if w.observe != nil {
		w.observe(state)
	}
}

// run executes the worker on the calling goroutine and returns its summary
func (w *connectionWorker) run() ConnectionResult {
	if w.pinCPU >= 0 {
		if err := util.PinThread(w.pinCPU); err != nil {
			Logger.Warningf("Connection %d: %v", w.conn.ID(), err)
		}
	} else {
		runtime.LockOSThread()
	}
	defer runtime.UnlockOSThread()

	clock := util.NewClock()
	res := ConnectionResult{ID: w.conn.ID()}

	fail := func(err error) ConnectionResult {
		res.Outcome = StateFatal
		res.Err = err
		res.ElapsedMicros = clock.Micros()
		w.setState(StateFatal)
		w.setState(StateTerminated)
		return res
	}

	w.setState(StateAllocating)
	buf, err := message.NewBuffer(w.messageSize)
	if err != nil {
		return fail(err)
	}
	defer buf.Release()

	sender, err := w.strategy.NewSender(w.conn, buf)
	if err != nil {
		return fail(err)
	}

	w.setState(StateSending)
	res.Outcome = StateStopped
	for !w.shutdown.Stopped() {
		sr, err := sender.SendMessage()
		res.BytesTransferred += uint64(sr.Bytes)
		if sr.Complete {
			res.MessagesCompleted++
		}
		if err == nil {
			continue
		}

		switch {
		case errors.Is(err, strategy.ErrConnectionClosed):
			res.Outcome = StateConnectionClosed
		case errors.Is(err, strategy.ErrStopped):
			res.Outcome = StateStopped
		default:
			res.Outcome = StateFatal
			res.Err = err
		}
		break
	}
	w.setState(res.Outcome)

	// the buffer may only be released once the kernel no longer references it
	if releaser, ok := sender.(strategy.Releaser); ok {
		w.setState(StateDraining)
		report := releaser.Release()
		res.InFlightAtRelease = report.Outstanding
		if w.confirmedOnly {
			res.MessagesCompleted = report.ConfirmedMessages
		}
		if report.Err != nil {
			Logger.Warningf("Connection %d: reading completions during release failed: %v", res.ID, report.Err)
		}
		if report.Outstanding > 0 {
			Logger.Warningf("Connection %d: %d zero-copy sends still in flight after drain timeout, releasing buffer anyway",
				res.ID, report.Outstanding)
		}
	}

	res.ElapsedMicros = clock.Micros()
	w.setState(StateTerminated)
	return res
}
