package client

import (
	"bytes"
	"context"
	"github.com/ValentinKolb/xferbench/bench/common"
	"github.com/ValentinKolb/xferbench/bench/transport/tcp"
	"net"
	"testing"
	"time"
)

// streamServer accepts connections and writes to each until the peer goes away
func streamServer(t *testing.T) *net.TCPAddr {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				chunk := bytes.Repeat([]byte{'B'}, 1000)
				for {
					if _, err := conn.Write(chunk); err != nil {
						return
					}
				}
			}()
		}
	}()
	return listener.Addr().(*net.TCPAddr)
}

func clientConfig(addr *net.TCPAddr, threads int, duration time.Duration) common.ClientConfig {
	config := common.NewClientConfig()
	config.Address = addr.IP.String()
	config.Port = addr.Port
	config.MessageSize = 4096
	config.Threads = threads
	config.Duration = duration
	return config
}

func TestRun(t *testing.T) {
	addr := streamServer(t)
	config := clientConfig(addr, 3, 200*time.Millisecond)
	config.ProgressInterval = 50 * time.Millisecond

	results := Run(context.Background(), config, tcp.NewTCPClientTransport())
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("worker %d error = %v", i, r.Err)
		}
		if r.Index != i {
			t.Errorf("result %d has index %d", i, r.Index)
		}
		if r.MessagesCompleted == 0 {
			t.Errorf("worker %d completed no messages", i)
		}
		if r.BytesTransferred != r.MessagesCompleted*4096+r.PartialBytes {
			t.Errorf("worker %d bytes do not add up: %+v", i, r)
		}
	}

	s := Aggregate(results)
	if s.WallClockMicros < 200_000 || s.ThroughputGbps() <= 0 {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestRunConnectFailure(t *testing.T) {
	// grab a free port and release it again
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	addr := listener.Addr().(*net.TCPAddr)
	_ = listener.Close()

	results := Run(context.Background(), clientConfig(addr, 2, 100*time.Millisecond), tcp.NewTCPClientTransport())
	for i, r := range results {
		if r.Err == nil {
			t.Errorf("worker %d connected to a closed port", i)
		}
	}

	s := Aggregate(results)
	if s.Failed != 2 || s.TotalMessages != 0 || s.AvgLatencyMicros() != 0 {
		t.Errorf("unexpected summary %+v", s)
	}
}
