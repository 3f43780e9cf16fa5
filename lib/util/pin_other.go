//go:build !linux

package util

import (
	"runtime"
)

// PinThread locks the calling goroutine to its OS thread.
// CPU affinity is only supported on Linux.
func PinThread(_ int) error {
	runtime.LockOSThread()
	return nil
}
