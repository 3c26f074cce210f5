// Package scanloop runs periodic background sweeps. The housekeeper uses a
// fixed 1 Hz cadence; jitter is available for loops that should not
// synchronize across processes.
package scanloop

import (
	"math/rand/v2"
	"time"
)

// Run executes fn at interval + random([0, jitter)) until stopCh is closed.
// A non-positive interval falls back to one second; negative jitter is
// treated as zero.
func Run(stopCh <-chan struct{}, interval, jitter time.Duration, fn func()) {
	if interval <= 0 {
		interval = time.Second
	}
	if jitter < 0 {
		jitter = 0
	}

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C // drain initial fire

	for {
		next := interval
		if jitter > 0 {
			next += time.Duration(rand.Int64N(int64(jitter)))
		}

		timer.Reset(next)
		select {
		case <-stopCh:
			return
		case <-timer.C:
		}
		fn()
	}
}
