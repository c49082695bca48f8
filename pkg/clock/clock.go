package clock

import "time"

// Clock abstracts wall-clock time so late-fee calculation stays deterministic
// in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

func System() Clock {
	return systemClock{}
}

// Fixed returns a clock frozen at t.
func Fixed(t time.Time) Clock {
	return fixedClock{t: t}
}

type fixedClock struct {
	t time.Time
}

func (f fixedClock) Now() time.Time {
	return f.t
}
