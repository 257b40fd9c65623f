package calendar

import "time"

// Clock supplies the reference "now" for every pacing computation.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Used for previews with a
// simulated date and in tests.
type FixedClock time.Time

func (f FixedClock) Now() time.Time { return time.Time(f) }
