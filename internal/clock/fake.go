package clock

import (
	"sync"
	"time"
)

// FakeClock is a deterministic Clock. Time moves only through Advance or
// Set, and tickers fire during Advance. Safe for concurrent use.
type FakeClock struct {
	mu             sync.Mutex
	current        time.Time
	tickers        []*fakeTicker
	tickersChanged *sync.Cond
}

type fakeTicker struct {
	deadline time.Time
	interval time.Duration
	channel  chan time.Time
	stopped  bool
}

// Fake returns a FakeClock starting at initial
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{current: initial}
	c.tickersChanged = sync.NewCond(&c.mu)
	return c
}

// Now returns the current fake time
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NewTicker registers a ticker that fires on Advance
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ticker := &fakeTicker{
		deadline: c.current.Add(d),
		interval: d,
		channel:  make(chan time.Time, 1),
	}
	c.tickers = append(c.tickers, ticker)
	c.tickersChanged.Broadcast()

	return &Ticker{
		C: ticker.channel,
		stopFunc: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			ticker.stopped = true
		},
	}
}

// Advance moves the clock forward by d, firing each ticker once per elapsed
// interval. Sends are non-blocking, matching time.Ticker.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = c.current.Add(d)
	for _, ticker := range c.tickers {
		if ticker.stopped {
			continue
		}
		for !ticker.deadline.After(c.current) {
			select {
			case ticker.channel <- c.current:
			default:
			}
			ticker.deadline = ticker.deadline.Add(ticker.interval)
		}
	}
}

// Set jumps the clock to t, which may be in the past. Tickers are not fired.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

// WaitForTickers blocks until at least n active tickers are registered.
// Use it before Advance when a goroutine creates its ticker.
func (c *FakeClock) WaitForTickers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.activeLocked() < n {
		c.tickersChanged.Wait()
	}
}

func (c *FakeClock) activeLocked() int {
	count := 0
	for _, ticker := range c.tickers {
		if !ticker.stopped {
			count++
		}
	}
	return count
}
