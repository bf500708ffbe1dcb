package engine

import "time"

// Clock supplies wall-clock time. Injected so tests can pin the engine to
// a fixed instant; see internal/testutil.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real wall clock.
func SystemClock() Clock {
	return systemClock{}
}
