package client

import (
	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/ValentinKolb/xferbench/lib/util"
)

// Summary is the aggregate of all worker results
type Summary struct {
	TotalBytes      uint64
	TotalMessages   uint64
	PartialBytes    uint64
	WallClockMicros int64

	Workers int
	Failed  int

	// Intervals is the merged inter-message interval histogram of all workers
	Intervals *hdrhistogram.Histogram

	// Fairness summarises the per-thread throughput in Gbps
	Fairness util.Stats
}

// Aggregate combines worker results. The wall-clock time is the longest
// elapsed time of any worker so that throughput is not overstated.
func Aggregate(results []WorkerResult) Summary {
	s := Summary{
		Workers:   len(results),
		Intervals: newIntervalHistogram(),
	}

	rates := make([]float64, 0, len(results))
	for _, r := range results {
		s.TotalBytes += r.BytesTransferred
		s.TotalMessages += r.MessagesCompleted
		s.PartialBytes += r.PartialBytes
		if r.ElapsedMicros > s.WallClockMicros {
			s.WallClockMicros = r.ElapsedMicros
		}
		if r.Intervals != nil {
			s.Intervals.Merge(r.Intervals)
		}
		if r.Err != nil {
			s.Failed++
		}
		if r.ElapsedMicros > 0 {
			rates = append(rates, r.ThroughputGbps())
		}
	}
	s.Fairness = util.NewStats(rates)
	return s
}

// WallClockSeconds returns the wall-clock duration in seconds
func (s Summary) WallClockSeconds() float64 {
	return float64(s.WallClockMicros) / 1e6
}

// ThroughputBitsPerSecond returns total bits over wall-clock seconds (0 without elapsed time)
func (s Summary) ThroughputBitsPerSecond() float64 {
	seconds := s.WallClockSeconds()
	if seconds <= 0 {
		return 0
	}
	return float64(s.TotalBytes) * 8 / seconds
}

// ThroughputGbps returns the aggregate throughput in Gbit/s
func (s Summary) ThroughputGbps() float64 {
	return s.ThroughputBitsPerSecond() / 1e9
}

// AvgLatencyMicros returns the wall-clock time per message (0 without messages)
func (s Summary) AvgLatencyMicros() float64 {
	if s.TotalMessages == 0 {
		return 0
	}
	return float64(s.WallClockMicros) / float64(s.TotalMessages)
}
