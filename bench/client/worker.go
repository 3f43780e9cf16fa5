package client

import (
	"context"
	"errors"
	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/ValentinKolb/xferbench/lib/util"
	gometrics "github.com/rcrowley/go-metrics"
	"io"
	"net"
	"os"
	"syscall"
	"time"
)

// maxIntervalMicros bounds the recorded inter-message interval (one minute)
const maxIntervalMicros = 60_000_000

// WorkerResult is the summary of one receive worker. It is written once by the
// worker and read only after the worker returned.
type WorkerResult struct {
	Index             int
	BytesTransferred  uint64
	MessagesCompleted uint64
	ElapsedMicros     int64

	// PartialBytes is the size of the unfinished message at loop end
	PartialBytes uint64

	// Err is set if the worker could not connect or the stream failed
	Err error

	// Intervals holds the time between two completed messages in microseconds
	Intervals *hdrhistogram.Histogram
}

// ThroughputGbps returns the receive rate of the worker
func (r WorkerResult) ThroughputGbps() float64 {
	if r.ElapsedMicros <= 0 {
		return 0
	}
	return float64(r.BytesTransferred) * 8 / (float64(r.ElapsedMicros) * 1e3)
}

// AvgLatencyMicros returns the elapsed time per completed message
func (r WorkerResult) AvgLatencyMicros() float64 {
	if r.MessagesCompleted == 0 {
		return 0
	}
	return float64(r.ElapsedMicros) / float64(r.MessagesCompleted)
}

func newIntervalHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(1, maxIntervalMicros, 3)
}

// ReceiveWorker receives fixed-size messages from one connection until its deadline
type ReceiveWorker struct {
	index       int
	conn        net.Conn
	messageSize int
	duration    time.Duration

	// meter is marked with every received chunk (may be nil)
	meter gometrics.Meter
}

// NewReceiveWorker creates a worker for conn. meter may be nil.
func NewReceiveWorker(index int, conn net.Conn, messageSize int, duration time.Duration, meter gometrics.Meter) *ReceiveWorker {
	return &ReceiveWorker{
		index:       index,
		conn:        conn,
		messageSize: messageSize,
		duration:    duration,
		meter:       meter,
	}
}

// Run receives until the deadline, the peer closes the stream, a read fails or
// ctx is cancelled
func (w *ReceiveWorker) Run(ctx context.Context) WorkerResult {
	res := WorkerResult{Index: w.index, Intervals: newIntervalHistogram()}
	buf := make([]byte, w.messageSize)

	clock := util.NewClock()
	deadline := clock.Deadline(w.duration)

	// a read blocked past the deadline returns instead of delaying the worker
	if err := w.conn.SetReadDeadline(deadline); err != nil {
		Logger.Warningf("Thread %d: failed to set read deadline: %v", w.index, err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = w.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	inMessage := 0
	lastMessage := clock.Micros()

	for time.Now().Before(deadline) && ctx.Err() == nil {
		n, err := w.conn.Read(buf[inMessage:])
		if n > 0 {
			res.BytesTransferred += uint64(n)
			inMessage += n
			if w.meter != nil {
				w.meter.Mark(int64(n))
			}
			if inMessage >= w.messageSize {
				res.MessagesCompleted++
				inMessage = 0

				now := clock.Micros()
				_ = res.Intervals.RecordValue(min(now-lastMessage, maxIntervalMicros))
				lastMessage = now
			}
		}
		if err == nil {
			continue
		}

		switch {
		case errors.Is(err, syscall.EINTR):
			continue
		case errors.Is(err, io.EOF):
			Logger.Infof("Thread %d: server closed the connection", w.index)
		case errors.Is(err, os.ErrDeadlineExceeded):
			// deadline reached or cancelled
		default:
			Logger.Errorf("Thread %d: receive failed: %v", w.index, err)
			res.Err = err
		}
		break
	}

	res.ElapsedMicros = clock.Micros()
	res.PartialBytes = uint64(inMessage)
	return res
}
