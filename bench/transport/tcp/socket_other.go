//go:build !linux

package tcp

import (
	"fmt"
	"github.com/ValentinKolb/xferbench/bench/strategy"
	"github.com/ValentinKolb/xferbench/bench/transport"
	"net"
	"runtime"
)

// NewSocket fails on platforms without the required socket interfaces
func NewSocket(conn *net.TCPConn, id uint64) (transport.Connection, error) {
	return nil, fmt.Errorf("%w: benchmark server on %s", strategy.ErrUnsupported, runtime.GOOS)
}
