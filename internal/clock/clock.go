// Package clock provides an injectable time source. Core packages never
// call time.Now() directly: month-boundary logic must be deterministic
// under test, so every service takes a Clock.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// Real returns the actual system time. Use at entry points (cmd/*).
type Real struct{}

// Now returns the current system time.
func (Real) Now() time.Time {
	return time.Now()
}

// Fixed always returns the same time. Use in tests.
type Fixed struct {
	T time.Time
}

// Now returns the fixed time.
func (c Fixed) Now() time.Time {
	return c.T
}

// Func wraps a function as a Clock, for tests that need advancing time.
type Func func() time.Time

// Now calls the wrapped function.
func (f Func) Now() time.Time {
	return f()
}

// NewFixed returns a Clock pinned to t.
func NewFixed(t time.Time) Clock {
	return Fixed{T: t}
}
