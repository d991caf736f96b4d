package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Gauge records the most recent observed duration and the slowest one seen.
type Gauge struct {
	last atomic.Int64
	max  atomic.Int64
}

func (g *Gauge) Observe(d time.Duration) {
	n := int64(d)
	g.last.Store(n)
	for {
		cur := g.max.Load()
		if n <= cur || g.max.CompareAndSwap(cur, n) {
			return
		}
	}
}

func (g *Gauge) Last() time.Duration {
	return time.Duration(g.last.Load())
}

func (g *Gauge) Max() time.Duration {
	return time.Duration(g.max.Load())
}
