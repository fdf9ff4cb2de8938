package connections

import "time"

// Clock abstracts wall time so the retry and rate-limit policies can be
// tested with a fake. The zero value of components using it defaults to
// the system clock.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns the real wall clock.
func SystemClock() Clock { return systemClock{} }
