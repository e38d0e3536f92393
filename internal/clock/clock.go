// Package clock provides an injectable time source so that task timestamps
// and the sync poll loop can be driven deterministically in tests.
package clock

import "time"

// Clock abstracts the time operations used by the task store and watcher
type Clock interface {
	// Now returns the current time
	Now() time.Time

	// NewTicker returns a Ticker delivering ticks every d. Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker
}

// Ticker wraps a periodic timer. The C channel has capacity 1; ticks are
// dropped when the consumer falls behind.
type Ticker struct {
	C <-chan time.Time

	stopFunc func()
}

// Stop turns off the ticker without closing C
func (t *Ticker) Stop() { t.stopFunc() }

// Real returns a Clock backed by the time package
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) *Ticker {
	ticker := time.NewTicker(d)
	return &Ticker{C: ticker.C, stopFunc: ticker.Stop}
}
