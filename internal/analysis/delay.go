package analysis

import (
	"context"
	"time"
)

// Delayer pauses a task to emulate analysis latency.
type Delayer struct {
	minDelay   time.Duration
	extraRange time.Duration
	rnd        RandSource
	sleep      func(ctx context.Context, d time.Duration)
}

// NewDelayer builds a Delayer pausing for [minMs, minMs+max(extraRangeMs,1))
// milliseconds. A negative minMs is treated as zero.
func NewDelayer(minMs, extraRangeMs int, rnd RandSource) *Delayer {
	if minMs < 0 {
		minMs = 0
	}
	if extraRangeMs < 1 {
		extraRangeMs = 1
	}
	if rnd == nil {
		rnd = DefaultRand()
	}
	return &Delayer{
		minDelay:   time.Duration(minMs) * time.Millisecond,
		extraRange: time.Duration(extraRangeMs) * time.Millisecond,
		rnd:        rnd,
		sleep:      sleepContext,
	}
}

// Next draws the next delay without sleeping.
func (d *Delayer) Next() time.Duration {
	extraMs := d.rnd.IntN(int(d.extraRange / time.Millisecond))
	return d.minDelay + time.Duration(extraMs)*time.Millisecond
}

// Simulate sleeps for a freshly drawn delay and returns it. Cancelling ctx
// cuts the sleep short; that is not an error.
func (d *Delayer) Simulate(ctx context.Context) time.Duration {
	delay := d.Next()
	d.sleep(ctx, delay)
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
