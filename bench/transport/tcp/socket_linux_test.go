//go:build linux

package tcp

import (
	"errors"
	"github.com/ValentinKolb/xferbench/bench/common"
	"github.com/ValentinKolb/xferbench/bench/strategy"
	"github.com/ValentinKolb/xferbench/bench/transport"
	"github.com/ValentinKolb/xferbench/lib/message"
	"golang.org/x/sys/unix"
	"io"
	"net"
	"testing"
	"time"
	"unsafe"
)

// buildErrQueueCmsg builds one control message as the kernel reports it on the error queue
func buildErrQueueCmsg(level, typ int32, origin uint8, lo, hi uint32) []byte {
	buf := make([]byte, unix.CmsgSpace(sizeofSockExtendedErr))
	h := (*unix.Cmsghdr)(unsafe.Pointer(&buf[0]))
	h.Level = level
	h.Type = typ
	h.SetLen(unix.CmsgLen(sizeofSockExtendedErr))

	ee := (*unix.SockExtendedErr)(unsafe.Pointer(&buf[unix.CmsgLen(0)]))
	ee.Origin = origin
	ee.Info = lo
	ee.Data = hi
	return buf
}

func TestParseCompletions(t *testing.T) {
	tests := map[string]struct {
		oob  []byte
		want []strategy.Completion
	}{
		"ipv4": {
			oob:  buildErrQueueCmsg(unix.SOL_IP, unix.IP_RECVERR, soEEOriginZeroCopy, 3, 9),
			want: []strategy.Completion{{Low: 3, High: 9}},
		},
		"ipv6": {
			oob:  buildErrQueueCmsg(unix.SOL_IPV6, unix.IPV6_RECVERR, soEEOriginZeroCopy, 0, 0),
			want: []strategy.Completion{{Low: 0, High: 0}},
		},
		"other origin": {
			oob:  buildErrQueueCmsg(unix.SOL_IP, unix.IP_RECVERR, 2, 1, 2),
			want: nil,
		},
		"other message": {
			oob:  buildErrQueueCmsg(unix.SOL_SOCKET, unix.SCM_RIGHTS, soEEOriginZeroCopy, 1, 2),
			want: nil,
		},
		"two messages": {
			oob: append(
				buildErrQueueCmsg(unix.SOL_IP, unix.IP_RECVERR, soEEOriginZeroCopy, 0, 4),
				buildErrQueueCmsg(unix.SOL_IP, unix.IP_RECVERR, soEEOriginZeroCopy, 5, 5)...),
			want: []strategy.Completion{{Low: 0, High: 4}, {Low: 5, High: 5}},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := parseCompletions(nil, tc.oob)
			if err != nil {
				t.Fatalf("parseCompletions() error = %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("parseCompletions() = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("completion %d = %+v, want %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

// loopbackPair starts a TCP server transport on a random loopback port and
// returns the accepted server connection together with the client side
func loopbackPair(t *testing.T) (transport.Connection, net.Conn) {
	t.Helper()

	config := common.NewServerConfig()
	config.BindAddress = "127.0.0.1"
	config.Port = 0
	config.MessageSize = 1

	srv := NewTCPServerTransport()
	accepted := make(chan transport.Connection, 1)
	srv.RegisterHandler(func(conn transport.Connection) { accepted <- conn })

	if err := srv.Listen(config); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	go func() { _ = srv.Serve() }()
	t.Cleanup(func() { _ = srv.Close() })

	clientConfig := common.NewClientConfig()
	clientConfig.Address = "127.0.0.1"
	clientConfig.Port = srv.Addr().(*net.TCPAddr).Port

	client, err := NewTCPClientTransport().Dial(clientConfig)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	select {
	case conn := <-accepted:
		t.Cleanup(func() { _ = conn.Close() })
		return conn, client
	case <-time.After(5 * time.Second):
		t.Fatalf("no connection accepted")
		return nil, nil
	}
}

func TestLoopbackStrategies(t *testing.T) {
	const (
		size     = 64*1024 + 3
		messages = 20
	)

	for _, kind := range strategy.Kinds {
		t.Run(string(kind), func(t *testing.T) {
			conn, client := loopbackPair(t)

			s, err := strategy.New(kind, strategy.Options{
				DrainThreshold: 4,
				DrainRetries:   1000,
				DrainInterval:  time.Millisecond,
				ENOBUFSBackoff: 100 * time.Microsecond,
			})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			buf, err := message.NewBuffer(size)
			if err != nil {
				t.Fatalf("NewBuffer() error = %v", err)
			}
			defer buf.Release()
			sender, err := s.NewSender(conn, buf)
			if errors.Is(err, strategy.ErrUnsupported) {
				t.Skipf("zero-copy not available: %v", err)
			}
			if err != nil {
				t.Fatalf("NewSender() error = %v", err)
			}

			received := make(chan int64, 1)
			go func() {
				n, _ := io.Copy(io.Discard, client)
				received <- n
			}()

			var sent int
			for i := 0; i < messages; i++ {
				res, err := sender.SendMessage()
				if err != nil {
					t.Fatalf("SendMessage() error = %v", err)
				}
				sent += res.Bytes
			}
			if releaser, ok := sender.(strategy.Releaser); ok {
				if report := releaser.Release(); report.Err != nil {
					t.Errorf("Release() error = %v", report.Err)
				}
			}
			if err := conn.Shutdown(); err != nil {
				t.Fatalf("Shutdown() error = %v", err)
			}

			select {
			case n := <-received:
				if n != int64(sent) {
					t.Errorf("client received %d bytes, server sent %d", n, sent)
				}
			case <-time.After(10 * time.Second):
				t.Fatalf("client did not see end of stream")
			}
			if kind == strategy.KindTwoCopy && sent != size*messages {
				t.Errorf("two-copy sent %d bytes, want %d", sent, size*messages)
			}
		})
	}
}

func TestSendAfterPeerClosed(t *testing.T) {
	conn, client := loopbackPair(t)
	_ = client.Close()

	s, _ := strategy.New(strategy.KindTwoCopy, strategy.Options{})
	buf, err := message.NewBuffer(256 * 1024)
	if err != nil {
		t.Fatalf("NewBuffer() error = %v", err)
	}
	defer buf.Release()
	sender, err := s.NewSender(conn, buf)
	if err != nil {
		t.Fatalf("NewSender() error = %v", err)
	}

	// the first sends may still be buffered; the reset shows up within a few messages
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := sender.SendMessage(); err != nil {
			if !errors.Is(err, strategy.ErrConnectionClosed) {
				t.Fatalf("SendMessage() error = %v, want ErrConnectionClosed", err)
			}
			return
		}
	}
	t.Fatalf("sending to a closed peer never failed")
}
