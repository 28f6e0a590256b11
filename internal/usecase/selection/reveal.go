package usecase_selection

import "time"

// The reveal advances the displayed candidate through an ever-slowing
// rotation. Everything is derived from wall-clock elapsed time, so a
// dropped tick changes nothing about where the display ends up.

const (
	frameInterval = 50 * time.Millisecond

	// Virtual frame length the deceleration curve is defined over.
	virtualFrame = time.Second / 60

	maxInterval = 30  // frames per display step at progress 1
	slowdown    = 0.9 // share of the interval growth spread over the spin
)

type Timeline struct {
	Duration time.Duration
}

// Steps counts how many display positions the rotation has advanced
// after elapsed time. Early on a step lands every frame or two; near
// the end a single step stretches across many frames.
func (t Timeline) Steps(elapsed time.Duration) int {
	if t.Duration <= 0 || elapsed <= 0 {
		return 0
	}
	if elapsed > t.Duration {
		elapsed = t.Duration
	}

	frames := int(elapsed / virtualFrame)
	steps := 0
	for f := 0; f < frames; f++ {
		progress := float64(f) * float64(virtualFrame) / float64(t.Duration)
		interval := int(float64(maxInterval) * (1 - slowdown + progress*slowdown))
		if interval < 1 {
			interval = 1
		}
		if f%interval == 0 {
			steps++
		}
	}
	return steps
}

func (t Timeline) Done(elapsed time.Duration) bool {
	return elapsed >= t.Duration
}
