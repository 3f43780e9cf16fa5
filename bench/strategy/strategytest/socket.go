// Package strategytest provides a scriptable in-memory strategy.Socket.
package strategytest

import (
	"github.com/ValentinKolb/xferbench/bench/strategy"
	"net"
	"sync"
	"syscall"
)

// Response is a scripted result of one send call. A negative N means
// "everything that was requested".
type Response struct {
	N   int
	Err error
}

// Full is a response that writes the whole request
func Full() Response { return Response{N: -1} }

// Short is a response that writes n bytes
func Short(n int) Response { return Response{N: n} }

// Fail is a response that fails with err
func Fail(err error) Response { return Response{Err: err} }

// Call records one send call
type Call struct {
	Gather    bool
	ZeroCopy  bool
	Requested int
	Written   int
	Err       error
}

// Socket is a fake connection. Scripted responses are consumed in order; once
// the script is exhausted every send writes the full request, unless the
// socket was shut down or CloseAfter bytes have been written.
type Socket struct {
	mu sync.Mutex

	id     uint64
	script []Response

	// CloseAfter makes sends fail with EPIPE once this many bytes were written (0 = never)
	CloseAfter int

	// AutoComplete queues a completion for every successful zero-copy send
	AutoComplete bool

	// ZeroCopyErr is returned by EnableZeroCopy
	ZeroCopyErr error

	// ReadErr is returned by ReadCompletions instead of EAGAIN once the queue is empty
	ReadErr error

	// BlockUntilShutdown makes every send block until Shutdown is called
	BlockUntilShutdown bool

	pending  [][]strategy.Completion
	seq      uint32
	calls    []Call
	written  int
	zc       bool
	shutdown bool
	closed   bool
	down     chan struct{}

	blocked   chan struct{}
	signalled bool
}

// NewSocket creates a fake socket with the given script
func NewSocket(id uint64, script ...Response) *Socket {
	return &Socket{
		id:      id,
		script:  script,
		down:    make(chan struct{}),
		blocked: make(chan struct{}),
	}
}

// --------------------------------------------------------------------------
// strategy.Socket
// --------------------------------------------------------------------------

func (s *Socket) Send(p []byte) (int, error) {
	return s.send(len(p), false, false)
}

func (s *Socket) SendGather(g *strategy.Gather, zeroCopy bool) (int, error) {
	return s.send(g.Total(), true, zeroCopy)
}

func (s *Socket) EnableZeroCopy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ZeroCopyErr != nil {
		return s.ZeroCopyErr
	}
	s.zc = true
	return nil
}

func (s *Socket) ReadCompletions(dst []strategy.Completion) ([]strategy.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		if s.ReadErr != nil {
			return dst, s.ReadErr
		}
		return dst, syscall.EAGAIN
	}
	batch := s.pending[0]
	s.pending = s.pending[1:]
	return append(dst, batch...), nil
}

// --------------------------------------------------------------------------
// transport.Connection
// --------------------------------------------------------------------------

func (s *Socket) ID() uint64 {
	return s.id
}

func (s *Socket) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000 + int(s.id)}
}

func (s *Socket) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.shutdown {
		s.shutdown = true
		close(s.down)
	}
	return nil
}

func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// --------------------------------------------------------------------------
// Inspection
// --------------------------------------------------------------------------

// Complete queues one completion notification batch
func (s *Socket) Complete(batch ...strategy.Completion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, batch)
}

// Calls returns a copy of all recorded send calls
func (s *Socket) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Written returns the number of bytes accepted by all send calls
func (s *Socket) Written() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// ZeroCopyEnabled reports whether EnableZeroCopy succeeded
func (s *Socket) ZeroCopyEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zc
}

// IsShutdown reports whether Shutdown was called
func (s *Socket) IsShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

// IsClosed reports whether Close was called
func (s *Socket) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Blocked is closed once a send is blocked in BlockUntilShutdown mode
func (s *Socket) Blocked() <-chan struct{} {
	return s.blocked
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func (s *Socket) send(requested int, gather, zeroCopy bool) (int, error) {
	s.mu.Lock()
	if s.BlockUntilShutdown && !s.shutdown {
		if !s.signalled {
			s.signalled = true
			close(s.blocked)
		}
		s.mu.Unlock()
		<-s.down
		s.mu.Lock()
	}
	defer s.mu.Unlock()

	var resp Response
	switch {
	case s.shutdown:
		resp = Fail(syscall.EPIPE)
	case len(s.script) > 0:
		resp = s.script[0]
		s.script = s.script[1:]
	case s.CloseAfter > 0 && s.written >= s.CloseAfter:
		resp = Fail(syscall.EPIPE)
	default:
		resp = Full()
	}

	n := resp.N
	if resp.Err != nil {
		n = 0
	} else if n < 0 || n > requested {
		n = requested
	}

	s.written += n
	s.calls = append(s.calls, Call{Gather: gather, ZeroCopy: zeroCopy, Requested: requested, Written: n, Err: resp.Err})

	if zeroCopy && resp.Err == nil && n > 0 {
		if s.AutoComplete {
			s.pending = append(s.pending, []strategy.Completion{{Low: s.seq, High: s.seq}})
		}
		s.seq++
	}

	if resp.Err != nil {
		return 0, resp.Err
	}
	return n, nil
}
