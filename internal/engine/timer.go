package engine

import "time"

// TickInterval is the countdown resolution.
const TickInterval = time.Second

// Timer is the exam countdown plus the per-question time ledger.
//
// The ledger is only written at navigation and submit boundaries, so its sum
// does not have to equal the elapsed countdown.
type Timer struct {
	clock       Clock
	duration    int
	remaining   int
	expired     bool
	perQuestion []time.Duration
	lastEvent   time.Time
}

// NewTimer starts a countdown of durationSeconds with a ledger entry per question.
func NewTimer(clock Clock, durationSeconds, questionCount int) *Timer {
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	return &Timer{
		clock:       clock,
		duration:    durationSeconds,
		remaining:   durationSeconds,
		perQuestion: make([]time.Duration, questionCount),
		lastEvent:   clock.Now(),
	}
}

// Tick removes one second. It returns true exactly once, on the tick that
// reaches zero.
func (t *Timer) Tick() bool {
	if t.expired {
		return false
	}
	if t.remaining > 0 {
		t.remaining--
	}
	if t.remaining == 0 {
		t.expired = true
		return true
	}
	return false
}

// Record adds the time since the previous boundary to the question at index
// and starts a new interval.
func (t *Timer) Record(index int) {
	now := t.clock.Now()
	if index >= 0 && index < len(t.perQuestion) {
		if d := now.Sub(t.lastEvent); d > 0 {
			t.perQuestion[index] += d
		}
	}
	t.lastEvent = now
}

// Remaining returns the seconds left on the countdown.
func (t *Timer) Remaining() int { return t.remaining }

// Duration returns the configured length in seconds.
func (t *Timer) Duration() int { return t.duration }

// LedgerMillis returns a copy of the ledger in milliseconds.
func (t *Timer) LedgerMillis() []int64 {
	out := make([]int64, len(t.perQuestion))
	for i, d := range t.perQuestion {
		out[i] = d.Milliseconds()
	}
	return out
}
