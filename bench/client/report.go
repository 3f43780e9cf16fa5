package client

import (
	"fmt"
	"io"
)

// PrintReport writes the per-thread lines followed by the aggregate block.
// The labels of the aggregate block are parsed by the experiment scripts.
func PrintReport(w io.Writer, results []WorkerResult, s Summary) {
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "[Client] Thread %d: failed: %v\n", r.Index, r.Err)
			continue
		}
		fmt.Fprintf(w, "[Client] Thread %d: %d bytes, %d msgs, %.2f s, %.4f Gbps, avg latency %.2f µs/msg\n",
			r.Index, r.BytesTransferred, r.MessagesCompleted, float64(r.ElapsedMicros)/1e6,
			r.ThroughputGbps(), r.AvgLatencyMicros())
	}

	fmt.Fprintf(w, "\n========== AGGREGATE RESULTS ==========\n")
	fmt.Fprintf(w, "Total bytes received : %d\n", s.TotalBytes)
	fmt.Fprintf(w, "Total messages       : %d\n", s.TotalMessages)
	fmt.Fprintf(w, "Wall-clock time      : %.2f s\n", s.WallClockSeconds())
	fmt.Fprintf(w, "Aggregate throughput : %.4f Gbps\n", s.ThroughputGbps())
	fmt.Fprintf(w, "Avg latency/msg      : %.2f µs\n", s.AvgLatencyMicros())
	if s.Intervals.TotalCount() > 0 {
		fmt.Fprintf(w, "p50 interval/msg     : %d µs\n", s.Intervals.ValueAtQuantile(50))
		fmt.Fprintf(w, "p99 interval/msg     : %d µs\n", s.Intervals.ValueAtQuantile(99))
	}
	if s.Workers > 1 {
		fmt.Fprintf(w, "Thread fairness      : min %.4f / max %.4f Gbps (ratio %.2f)\n",
			s.Fairness.Min, s.Fairness.Max, s.Fairness.MinMaxRatio)
	}
	if s.PartialBytes > 0 {
		fmt.Fprintf(w, "Partial residue      : %d bytes\n", s.PartialBytes)
	}
	if s.Failed > 0 {
		fmt.Fprintf(w, "Failed threads       : %d of %d\n", s.Failed, s.Workers)
	}
	fmt.Fprintf(w, "========================================\n")
}
