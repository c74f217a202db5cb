package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerExpiresOnce(t *testing.T) {
	timer := NewTimer(newManualClock(), 3, 1)

	assert.False(t, timer.Tick())
	assert.False(t, timer.Tick())
	assert.True(t, timer.Tick())
	assert.Equal(t, 0, timer.Remaining())

	assert.False(t, timer.Tick(), "expiry fires exactly once")
	assert.Equal(t, 0, timer.Remaining(), "remaining never goes negative")
}

func TestTimerZeroDuration(t *testing.T) {
	timer := NewTimer(newManualClock(), 0, 1)
	assert.True(t, timer.Tick())
	assert.False(t, timer.Tick())
	assert.Equal(t, 0, timer.Remaining())
}

func TestTimerLedger(t *testing.T) {
	clock := newManualClock()
	timer := NewTimer(clock, 60, 3)

	clock.Advance(4 * time.Second)
	timer.Record(0)
	clock.Advance(1500 * time.Millisecond)
	timer.Record(2)
	clock.Advance(2 * time.Second)
	timer.Record(0)

	assert.Equal(t, []int64{6000, 0, 1500}, timer.LedgerMillis())

	clock.Advance(time.Second)
	timer.Record(9)
	assert.Equal(t, []int64{6000, 0, 1500}, timer.LedgerMillis(), "out of range index is not charged")
}

func TestTimerLedgerIgnoresClockGoingBack(t *testing.T) {
	clock := newManualClock()
	timer := NewTimer(clock, 60, 1)

	clock.Advance(-5 * time.Second)
	timer.Record(0)
	assert.Equal(t, []int64{0}, timer.LedgerMillis())
}
