package engine

import "time"

// Clock is the engine's source of time. Sleep is used for the pause between
// the two clicks of a double click.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

func millis(ms uint64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
