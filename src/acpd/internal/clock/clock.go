package clock

import (
	"time"

	"go.uber.org/fx"
)

// Module provides the wall clock to inject using fx.
var Module = fx.Provide(New)

// Clock is an interface that abstracts the functionality for measuring time and waiting on deadlines.
type Clock interface {
	// Now returns the current local time.
	Now() time.Time
	// NewTimer creates a new Timer that will send the current time on its channel after at least duration d.
	NewTimer(d time.Duration) *time.Timer
	// Since returns the time elapsed since t.
	Since(t time.Time) time.Duration
}

type clock struct{}

// New creates a new instance of Clock.
func New() Clock {
	return clock{}
}

func (clock) Now() time.Time {
	return time.Now()
}

func (clock) NewTimer(d time.Duration) *time.Timer {
	return time.NewTimer(d)
}

func (clock) Since(t time.Time) time.Duration {
	return time.Since(t)
}
