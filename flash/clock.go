package flash

import (
	"sync"
	"time"
)

type Timer interface {
	Stop()
}

// Clock schedules a repeating callback.
type Clock interface {
	Every(d time.Duration, fn func()) Timer
}

// TickerClock runs callbacks on a goroutine driven by time.Ticker.
type TickerClock struct{}

func (TickerClock) Every(d time.Duration, fn func()) Timer {
	t := &tickerTimer{ticker: time.NewTicker(d), done: make(chan struct{})}
	go func() {
		for {
			select {
			case <-t.done:
				return
			case <-t.ticker.C:
				fn()
			}
		}
	}()
	return t
}

type tickerTimer struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *tickerTimer) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}

// FakeClock fires timers only when Tick is called.
type FakeClock struct {
	mu        sync.Mutex
	timers    []*fakeTimer
	scheduled int
	last      time.Duration
}

type fakeTimer struct {
	clock    *FakeClock
	interval time.Duration
	fn       func()
	stopped  bool
}

func (t *fakeTimer) Stop() {
	t.clock.mu.Lock()
	t.stopped = true
	t.clock.mu.Unlock()
}

func (c *FakeClock) Every(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, interval: d, fn: fn}
	c.timers = append(c.timers, t)
	c.scheduled++
	c.last = d
	return t
}

// Tick fires every active timer once.
func (c *FakeClock) Tick() {
	c.mu.Lock()
	var fns []func()
	for _, t := range c.timers {
		if !t.stopped {
			fns = append(fns, t.fn)
		}
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Active counts timers that have not been stopped.
func (c *FakeClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Scheduled counts every Every call so far.
func (c *FakeClock) Scheduled() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scheduled
}

// LastInterval is the interval of the most recent Every call.
func (c *FakeClock) LastInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
