//go:build linux

package tcp

import (
	"fmt"
	"github.com/ValentinKolb/xferbench/bench/strategy"
	"golang.org/x/sys/unix"
	"net"
	"sync"
	"unsafe"
)

// soEEOriginZeroCopy is SO_EE_ORIGIN_ZEROCOPY from linux/errqueue.h
const soEEOriginZeroCopy = 5

var sizeofSockExtendedErr = int(unsafe.Sizeof(unix.SockExtendedErr{}))

// errQueueBufferSize holds a few control messages; an IP_RECVERR message
// carries the extended error followed by the offender address.
const errQueueBufferSize = 256

// Socket drives the descriptor of an accepted TCP connection directly.
// Send calls may run concurrently with Shutdown; every other method is
// used by the owning connection worker only.
type Socket struct {
	conn *net.TCPConn
	fd   int
	id   uint64

	// error queue reads reuse one header and control buffer
	errHdr unix.Msghdr
	errOOB []byte

	mu     sync.Mutex
	closed bool
}

// NewSocket takes over the descriptor of conn and switches it to blocking mode
func NewSocket(conn *net.TCPConn, id uint64) (*Socket, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("failed to access raw connection: %v", err)
	}

	var fd int
	var blockErr error
	if err := raw.Control(func(f uintptr) {
		fd = int(f)
		blockErr = unix.SetNonblock(fd, false)
	}); err != nil {
		return nil, fmt.Errorf("failed to access descriptor: %v", err)
	}
	if blockErr != nil {
		return nil, fmt.Errorf("failed to switch descriptor to blocking mode: %v", blockErr)
	}

	s := &Socket{
		conn:   conn,
		fd:     fd,
		id:     id,
		errOOB: make([]byte, errQueueBufferSize),
	}
	s.errHdr.Control = &s.errOOB[0]
	return s, nil
}

// --------------------------------------------------------------------------
// strategy.Socket
// --------------------------------------------------------------------------

func (s *Socket) Send(p []byte) (int, error) {
	return unix.SendmsgN(s.fd, p, nil, nil, unix.MSG_NOSIGNAL)
}

func (s *Socket) SendGather(g *strategy.Gather, zeroCopy bool) (int, error) {
	flags := unix.MSG_NOSIGNAL
	if zeroCopy {
		flags |= unix.MSG_ZEROCOPY
	}
	n, _, errno := unix.Syscall(unix.SYS_SENDMSG, uintptr(s.fd), uintptr(unsafe.Pointer(g.Msghdr())), uintptr(flags))
	if errno != 0 {
		return 0, errno
	}
	return int(n), nil
}

func (s *Socket) EnableZeroCopy() error {
	return unix.SetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_ZEROCOPY, 1)
}

func (s *Socket) ReadCompletions(dst []strategy.Completion) ([]strategy.Completion, error) {
	s.errHdr.SetControllen(len(s.errOOB))
	s.errHdr.Flags = 0

	_, _, errno := unix.Syscall(unix.SYS_RECVMSG, uintptr(s.fd), uintptr(unsafe.Pointer(&s.errHdr)),
		uintptr(unix.MSG_ERRQUEUE|unix.MSG_DONTWAIT))
	if errno != 0 {
		return dst, errno
	}
	return parseCompletions(dst, s.errOOB[:s.errHdr.Controllen])
}

// --------------------------------------------------------------------------
// transport.Connection
// --------------------------------------------------------------------------

func (s *Socket) ID() uint64 {
	return s.id
}

func (s *Socket) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

func (s *Socket) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return unix.Shutdown(s.fd, unix.SHUT_RDWR)
}

func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// parseCompletions extracts the zero-copy notifications from the control data
// of one error queue message. Other error queue entries are ignored.
func parseCompletions(dst []strategy.Completion, oob []byte) ([]strategy.Completion, error) {
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return dst, err
	}

	for _, m := range msgs {
		if !isRecvErr(m.Header) || len(m.Data) < sizeofSockExtendedErr {
			continue
		}
		ee := (*unix.SockExtendedErr)(unsafe.Pointer(&m.Data[0]))
		if ee.Origin != soEEOriginZeroCopy {
			continue
		}
		// the notification covers the send sequence numbers Info..Data
		dst = append(dst, strategy.Completion{Low: ee.Info, High: ee.Data})
	}
	return dst, nil
}

func isRecvErr(h unix.Cmsghdr) bool {
	return (h.Level == unix.SOL_IP && h.Type == unix.IP_RECVERR) ||
		(h.Level == unix.SOL_IPV6 && h.Type == unix.IPV6_RECVERR)
}
