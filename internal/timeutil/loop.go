package timeutil

import (
	"sync"
	"time"
)

// Loop is an explicitly started and stopped periodic task. At most one
// driver goroutine is live per Loop: a redundant Start is ignored and ticks
// belonging to a stopped run are dropped.
//
// Stop does not wait for a callback that is already executing, so callers
// that need a strict cut-off must also check their own state in fn.
type Loop struct {
	clock Clock

	mu       sync.Mutex
	running  bool
	gen      uint64
	ticker   Ticker
	stop     chan struct{}
	interval time.Duration
	fn       func()
}

// NewLoop creates a stopped Loop driven by the given clock
func NewLoop(clock Clock) *Loop {
	if clock == nil {
		clock = RealClock{}
	}
	return &Loop{clock: clock}
}

// Start begins invoking fn every interval. It returns false, and does
// nothing, if the loop is already running or the interval is not positive.
func (l *Loop) Start(interval time.Duration, fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running || interval <= 0 || fn == nil {
		return false
	}

	l.start(interval, fn)
	return true
}

// Stop cancels the loop. It returns false if the loop was not running.
func (l *Loop) Stop() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		return false
	}

	l.halt()
	return true
}

// Reset changes the period of a running loop, replacing its ticker so that
// the old and new periods never overlap. It is a no-op on a stopped loop.
func (l *Loop) Reset(interval time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running || interval <= 0 || interval == l.interval {
		return
	}

	fn := l.fn
	l.halt()
	l.start(interval, fn)
}

// Running returns true while the loop is started
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Interval returns the period of the current or last run
func (l *Loop) Interval() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.interval
}

func (l *Loop) start(interval time.Duration, fn func()) {
	l.gen++
	l.running = true
	l.interval = interval
	l.fn = fn
	l.ticker = l.clock.NewTicker(interval)
	l.stop = make(chan struct{})

	go l.run(l.ticker, l.stop, l.gen, fn)
}

func (l *Loop) halt() {
	l.running = false
	l.gen++
	l.ticker.Stop()
	close(l.stop)
	l.ticker = nil
	l.stop = nil
}

func (l *Loop) run(ticker Ticker, stop <-chan struct{}, gen uint64, fn func()) {
	for {
		select {
		case <-stop:
			return

		case <-ticker.C():
			if !l.isCurrent(gen) {
				return
			}
			fn()
		}
	}
}

func (l *Loop) isCurrent(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running && l.gen == gen
}
