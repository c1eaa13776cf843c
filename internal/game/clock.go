package game

import "time"

// Clock supplies wall-clock time to the match. Tests substitute a fake.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the real time source.
var SystemClock Clock = systemClock{}
