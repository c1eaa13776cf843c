package game

import "time"

// DefaultMaxStepsPerFrame bounds catch-up work after a stall.
const DefaultMaxStepsPerFrame = 5

// Loop converts irregular frame times into fixed simulation steps.
type Loop struct {
	Step     time.Duration
	MaxSteps int

	acc     time.Duration
	last    time.Time
	simTime time.Time
	started bool
}

func NewLoop(step time.Duration) *Loop {
	return &Loop{Step: step, MaxSteps: DefaultMaxStepsPerFrame}
}

// Advance accounts for the wall-clock time since the previous call and
// runs tick once per whole step elapsed. Each tick receives the simulated
// time of that step. Time beyond MaxSteps is discarded. It returns the
// number of steps run.
func (l *Loop) Advance(now time.Time, tick func(time.Time)) int {
	if !l.started {
		l.started = true
		l.last = now
		l.simTime = now
		return 0
	}

	elapsed := now.Sub(l.last)
	l.last = now
	if elapsed < 0 {
		elapsed = 0
	}
	l.acc += elapsed

	steps := 0
	for l.acc >= l.Step && steps < l.MaxSteps {
		l.acc -= l.Step
		l.simTime = l.simTime.Add(l.Step)
		tick(l.simTime)
		steps++
	}
	if steps == l.MaxSteps && l.acc >= l.Step {
		l.acc = 0
		l.simTime = now
	}
	return steps
}

// Reset forgets accumulated time; the next Advance starts a new timeline.
func (l *Loop) Reset() {
	l.acc = 0
	l.started = false
}
