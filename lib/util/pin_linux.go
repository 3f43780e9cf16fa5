//go:build linux

package util

import (
	"fmt"
	"golang.org/x/sys/unix"
	"runtime"
)

// PinThread locks the calling goroutine to its OS thread and binds the thread
// to CPU index%NumCPU. The goroutine stays locked even if setting the affinity fails.
func PinThread(index int) error {
	runtime.LockOSThread()

	cpu := index % runtime.NumCPU()
	if cpu < 0 {
		cpu += runtime.NumCPU()
	}

	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)

	// pid 0 = the calling thread
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("failed to pin thread to cpu %d: %w", cpu, err)
	}
	return nil
}
