package calendar

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.once.Do(func() { close(f.stopped) }) }

type fakeClock struct {
	mu       sync.Mutex
	now      time.Time
	ticker   *fakeTicker
	interval time.Duration
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *fakeClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interval = d
	c.ticker = &fakeTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
	return c.ticker
}

func (c *fakeClock) Tick() {
	c.mu.Lock()
	tk := c.ticker
	now := c.now
	c.mu.Unlock()
	tk.ch <- now
}

func receive(t *testing.T, ch <-chan time.Time) time.Time {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for now value")
		return time.Time{}
	}
}

// =============================================================================
// FloorToQuarter Tests
// =============================================================================

func TestFloorToQuarter(t *testing.T) {
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{at(2024, 6, 12, 14, 37), at(2024, 6, 12, 14, 30)},
		{at(2024, 6, 12, 14, 30), at(2024, 6, 12, 14, 30)},
		{at(2024, 6, 12, 14, 44), at(2024, 6, 12, 14, 30)},
		{at(2024, 6, 12, 14, 45), at(2024, 6, 12, 14, 45)},
		{at(2024, 6, 12, 0, 14), at(2024, 6, 12, 0, 0)},
		{time.Date(2024, 6, 12, 23, 59, 59, 999, time.Local), at(2024, 6, 12, 23, 45)},
	}

	for _, tt := range tests {
		t.Run(tt.in.Format("15:04:05"), func(t *testing.T) {
			if got := FloorToQuarter(tt.in); !got.Equal(tt.want) {
				t.Errorf("FloorToQuarter(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// =============================================================================
// NowIndicator Tests
// =============================================================================

func TestNewNowIndicator_Interval(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{0, DefaultNowRefresh},
		{-time.Second, DefaultNowRefresh},
		{time.Minute, DefaultNowRefresh},
		{10 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		if got := NewNowIndicator(nil, tt.in).Interval(); got != tt.want {
			t.Errorf("Interval(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNowIndicator_RefreshPublishesOnlyOnChange(t *testing.T) {
	clock := newFakeClock(at(2024, 6, 12, 14, 37))
	n := NewNowIndicator(clock, 30*time.Second)

	v, changed := n.Refresh()
	if !changed || !v.Equal(at(2024, 6, 12, 14, 30)) {
		t.Fatalf("Refresh() = %v, %v; want 14:30, true", v, changed)
	}

	clock.Set(at(2024, 6, 12, 14, 44))
	if _, changed := n.Refresh(); changed {
		t.Error("Refresh() within the same quarter should not change")
	}

	clock.Set(at(2024, 6, 12, 14, 45))
	if v, changed := n.Refresh(); !changed || !v.Equal(at(2024, 6, 12, 14, 45)) {
		t.Errorf("Refresh() = %v, %v; want 14:45, true", v, changed)
	}
	if !n.Current().Equal(at(2024, 6, 12, 14, 45)) {
		t.Errorf("Current() = %v, want 14:45", n.Current())
	}
}

func TestNowIndicator_StartStop(t *testing.T) {
	clock := newFakeClock(at(2024, 6, 12, 14, 37))
	n := NewNowIndicator(clock, 20*time.Second)

	ch, cancel := n.Subscribe()
	defer cancel()

	n.Start(context.Background())
	if !n.Running() {
		t.Fatal("indicator should be running")
	}
	if clock.interval != 20*time.Second {
		t.Errorf("ticker interval = %v, want 20s", clock.interval)
	}
	if got := receive(t, ch); !got.Equal(at(2024, 6, 12, 14, 30)) {
		t.Errorf("first value = %v, want 14:30", got)
	}

	// Second Start is a no-op.
	n.Start(context.Background())

	clock.Set(at(2024, 6, 12, 15, 2))
	clock.Tick()
	if got := receive(t, ch); !got.Equal(at(2024, 6, 12, 15, 0)) {
		t.Errorf("after tick = %v, want 15:00", got)
	}

	n.Stop()
	if n.Running() {
		t.Error("indicator should be stopped")
	}
	select {
	case <-clock.ticker.stopped:
	default:
		t.Error("ticker should be stopped with the indicator")
	}

	// Stop twice is safe.
	n.Stop()
}

func TestNowIndicator_StopsWithContext(t *testing.T) {
	clock := newFakeClock(at(2024, 6, 12, 9, 0))
	n := NewNowIndicator(clock, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	n.Start(ctx)
	cancel()

	select {
	case <-clock.ticker.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit on context cancel")
	}
	n.Stop()
}

func TestNowIndicator_RestartAfterContextCancel(t *testing.T) {
	clock := newFakeClock(at(2024, 6, 12, 9, 0))
	n := NewNowIndicator(clock, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	n.Start(ctx)
	clock.mu.Lock()
	first := clock.ticker
	clock.mu.Unlock()

	cancel()
	select {
	case <-first.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit on context cancel")
	}
	if n.Running() {
		t.Error("Running() = true after the context was cancelled")
	}

	n.Start(context.Background())
	defer n.Stop()
	if !n.Running() {
		t.Fatal("indicator should run again after a restart")
	}
	clock.mu.Lock()
	second := clock.ticker
	clock.mu.Unlock()
	if second == first {
		t.Error("restart should create a new ticker")
	}
}

func TestNowIndicator_SubscribeKeepsLatest(t *testing.T) {
	clock := newFakeClock(at(2024, 6, 12, 8, 0))
	n := NewNowIndicator(clock, time.Second)

	ch, cancel := n.Subscribe()
	defer cancel()

	for _, m := range []int{0, 15, 30, 45} {
		clock.Set(at(2024, 6, 12, 9, m))
		n.Refresh()
	}

	if got := receive(t, ch); !got.Equal(at(2024, 6, 12, 9, 45)) {
		t.Errorf("latest = %v, want 09:45", got)
	}
	select {
	case v := <-ch:
		t.Errorf("unexpected stale value %v", v)
	default:
	}
}

func TestNowIndicator_SubscribeReceivesCurrent(t *testing.T) {
	clock := newFakeClock(at(2024, 6, 12, 10, 10))
	n := NewNowIndicator(clock, time.Second)
	n.Refresh()

	ch, cancel := n.Subscribe()
	if got := receive(t, ch); !got.Equal(at(2024, 6, 12, 10, 0)) {
		t.Errorf("initial = %v, want 10:00", got)
	}

	cancel()
	cancel()
	clock.Set(at(2024, 6, 12, 10, 20))
	n.Refresh()
	select {
	case v := <-ch:
		t.Errorf("cancelled subscriber received %v", v)
	default:
	}
}
