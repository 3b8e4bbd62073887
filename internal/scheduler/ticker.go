package scheduler

import "time"

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func NewTicker(d time.Duration) Ticker {
	return &timeTicker{t: time.NewTicker(d)}
}

func (t *timeTicker) C() <-chan time.Time {
	return t.t.C
}

func (t *timeTicker) Stop() {
	t.t.Stop()
}

// ManualTicker ticks only when Tick is called.
type ManualTicker struct {
	ch      chan time.Time
	stopped chan struct{}
}

func NewManualTicker() *ManualTicker {
	return &ManualTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
}

func (m *ManualTicker) C() <-chan time.Time {
	return m.ch
}

// Tick delivers a tick and blocks until the consuming loop picked it up.
func (m *ManualTicker) Tick(now time.Time) {
	select {
	case m.ch <- now:
	case <-m.stopped:
	}
}

func (m *ManualTicker) Stop() {
	select {
	case <-m.stopped:
	default:
		close(m.stopped)
	}
}
