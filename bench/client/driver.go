package client

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/xferbench/bench/common"
	"github.com/ValentinKolb/xferbench/bench/transport"
	"github.com/ValentinKolb/xferbench/lib/util"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
	"golang.org/x/sync/errgroup"
	"os"
	"runtime"
)

var Logger = logger.GetLogger("client")

// Run starts config.Threads receive workers, each with its own connection, and
// returns their results after all of them finished. A worker that cannot
// connect reports its error in its result; the other workers are unaffected.
func Run(ctx context.Context, config common.ClientConfig, t transport.IBenchClientTransport) []WorkerResult {
	results := make([]WorkerResult, config.Threads)

	var meter gometrics.Meter
	if config.ProgressInterval > 0 {
		meter = gometrics.NewMeter()
		defer meter.Stop()

		stopProgress := startProgress(ctx, meter, config.ProgressInterval, os.Stdout)
		defer stopProgress()
	}

	var g errgroup.Group
	for i := 0; i < config.Threads; i++ {
		g.Go(func() error {
			if config.PinCPUs {
				if err := util.PinThread(i); err != nil {
					Logger.Warningf("Thread %d: %v", i, err)
				}
			} else {
				runtime.LockOSThread()
			}
			defer runtime.UnlockOSThread()

			conn, err := t.Dial(config)
			if err != nil {
				Logger.Errorf("Thread %d: %v", i, err)
				results[i] = WorkerResult{Index: i, Err: fmt.Errorf("connect: %w", err), Intervals: newIntervalHistogram()}
				return nil
			}
			defer conn.Close()

			Logger.Debugf("Thread %d: connected to %s", i, config.Endpoint())
			results[i] = NewReceiveWorker(i, conn, config.MessageSize, config.Duration, meter).Run(ctx)
			return nil
		})
	}

	// workers never return an error, failures are part of their result
	_ = g.Wait()
	return results
}
