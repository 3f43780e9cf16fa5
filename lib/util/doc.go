// Package util provides small helpers shared by the benchmark server and client:
//
//   - Clock: a monotonic microsecond time source used for deadlines and latency math
//   - Stats: summary statistics (min, max, mean, standard deviation) used to report
//     how evenly throughput was spread across worker threads
//   - PinThread: locks the calling goroutine to its OS thread and, on Linux, binds
//     that thread to a single CPU
package util
