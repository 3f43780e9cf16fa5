//go:build linux

package client_test

import (
	"context"
	"github.com/ValentinKolb/xferbench/bench/client"
	"github.com/ValentinKolb/xferbench/bench/common"
	"github.com/ValentinKolb/xferbench/bench/server"
	"github.com/ValentinKolb/xferbench/bench/transport/tcp"
	"golang.org/x/sys/unix"
	"net"
	"testing"
	"time"
)

// skipWithoutZeroCopy skips the test if the kernel rejects SO_ZEROCOPY
func skipWithoutZeroCopy(t *testing.T) {
	t.Helper()
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Skipf("cannot create test socket: %v", err)
	}
	defer unix.Close(fd)
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ZEROCOPY, 1); err != nil {
		t.Skipf("zero-copy not available: %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	const size = 4096

	for _, name := range []string{"two-copy", "one-copy", "zero-copy"} {
		t.Run(name, func(t *testing.T) {
			if name == "zero-copy" {
				skipWithoutZeroCopy(t)
			}

			config := common.NewServerConfig()
			config.Strategy = name
			config.BindAddress = "127.0.0.1"
			config.Port = 0
			config.MessageSize = size
			config.ShutdownGrace = time.Second

			serverTransport := tcp.NewTCPServerTransport()
			srv, err := server.NewBenchServer(config, serverTransport, common.NewShutdown())
			if err != nil {
				t.Fatalf("NewBenchServer() error = %v", err)
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Serve() }()
			defer func() {
				srv.Stop()
				select {
				case err := <-errCh:
					if err != nil {
						t.Errorf("Serve() error = %v", err)
					}
				case <-time.After(10 * time.Second):
					t.Errorf("Serve() did not return")
				}
			}()

			deadline := time.Now().Add(5 * time.Second)
			for serverTransport.Addr() == nil {
				if time.Now().After(deadline) {
					t.Fatalf("server did not start listening")
				}
				time.Sleep(time.Millisecond)
			}

			clientConfig := common.NewClientConfig()
			clientConfig.Address = "127.0.0.1"
			clientConfig.Port = serverTransport.Addr().(*net.TCPAddr).Port
			clientConfig.MessageSize = size
			clientConfig.Threads = 2
			clientConfig.Duration = 300 * time.Millisecond

			results := client.Run(context.Background(), clientConfig, tcp.NewTCPClientTransport())
			for i, r := range results {
				if r.Err != nil {
					t.Fatalf("worker %d error = %v", i, r.Err)
				}
				if r.MessagesCompleted == 0 {
					t.Errorf("worker %d received no complete message", i)
				}
				if r.BytesTransferred != r.MessagesCompleted*size+r.PartialBytes {
					t.Errorf("worker %d: %d bytes != %d msgs * %d + %d", i, r.BytesTransferred, r.MessagesCompleted, size, r.PartialBytes)
				}
				if r.PartialBytes >= size {
					t.Errorf("worker %d: partial residue %d exceeds one message", i, r.PartialBytes)
				}
			}
		})
	}
}
