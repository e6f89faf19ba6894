package calendar

import (
	"context"
	"sync"
	"time"
)

// DefaultNowRefresh is how often the current-time indicator re-reads the clock.
const DefaultNowRefresh = 30 * time.Second

// Clock supplies the current time and tickers; tests inject a fake.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers periodic ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{time.NewTicker(d)}
}

type systemTicker struct{ t *time.Ticker }

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }

// FloorToQuarter rounds t down to the nearest 15-minute tick.
func FloorToQuarter(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute()/15*15, 0, 0, t.Location())
}

// NowIndicator tracks the current time floored to a quarter hour and
// publishes each new value to subscribers. One goroutine owns the refresh
// loop, so refreshes never overlap.
type NowIndicator struct {
	clock    Clock
	interval time.Duration

	mu      sync.RWMutex
	current time.Time
	subs    map[int]chan time.Time
	nextID  int

	cancel context.CancelFunc
	done   chan struct{}
}

// NewNowIndicator creates an indicator. Intervals outside (0, 1m) fall back
// to DefaultNowRefresh so the line never lags a full minute.
func NewNowIndicator(clock Clock, interval time.Duration) *NowIndicator {
	if clock == nil {
		clock = SystemClock{}
	}
	if interval <= 0 || interval >= time.Minute {
		interval = DefaultNowRefresh
	}
	return &NowIndicator{
		clock:    clock,
		interval: interval,
		subs:     make(map[int]chan time.Time),
	}
}

// Interval returns the refresh period.
func (n *NowIndicator) Interval() time.Duration {
	return n.interval
}

// Start computes the current value and begins periodic refresh.
// Calling Start on a running indicator is a no-op.
func (n *NowIndicator) Start(ctx context.Context) {
	n.mu.Lock()
	if n.cancel != nil {
		n.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.done = make(chan struct{})
	done := n.done
	n.mu.Unlock()

	n.Refresh()

	ticker := n.clock.NewTicker(n.interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		defer n.release(done)
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C():
				n.Refresh()
			}
		}
	}()
}

// Stop ends the refresh loop and waits for it to exit.
func (n *NowIndicator) Stop() {
	n.mu.Lock()
	cancel, done := n.cancel, n.done
	n.cancel, n.done = nil, nil
	n.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// release clears the run state when the loop exits on its own, so a
// cancelled parent context does not block a later Start.
func (n *NowIndicator) release(done chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.done != done {
		return
	}
	n.cancel()
	n.cancel, n.done = nil, nil
}

// Running reports whether the refresh loop is active.
func (n *NowIndicator) Running() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.cancel != nil
}

// Current returns the latest floored time; zero before the first refresh.
func (n *NowIndicator) Current() time.Time {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

// Refresh re-reads the clock and publishes when the floored value changed.
func (n *NowIndicator) Refresh() (time.Time, bool) {
	now := FloorToQuarter(n.clock.Now())

	n.mu.Lock()
	defer n.mu.Unlock()

	if now.Equal(n.current) {
		return now, false
	}
	n.current = now
	for _, ch := range n.subs {
		publishLatest(ch, now)
	}
	return now, true
}

// Subscribe returns a channel that always holds the most recent value not
// yet read. Slow readers skip stale values. Call cancel to unsubscribe.
func (n *NowIndicator) Subscribe() (<-chan time.Time, func()) {
	ch := make(chan time.Time, 1)

	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = ch
	if !n.current.IsZero() {
		ch <- n.current
	}
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}

func publishLatest(ch chan time.Time, v time.Time) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
