package client

import (
	"context"
	"fmt"
	gometrics "github.com/rcrowley/go-metrics"
	"io"
	"time"
)

// startProgress prints the received volume and rate of meter every interval
// until ctx is cancelled or the returned function is called
func startProgress(ctx context.Context, meter gometrics.Meter, interval time.Duration, out io.Writer) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				printProgress(out, meter.Snapshot())
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func printProgress(out io.Writer, snap gometrics.Meter) {
	fmt.Fprintf(out, "[Client] progress: %d bytes, %.4f Gbps (1m rate), %.4f Gbps (mean)\n",
		snap.Count(), snap.Rate1()*8/1e9, snap.RateMean()*8/1e9)
}
