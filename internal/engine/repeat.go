package engine

// Key repeat accelerates from repeatInitialRate to repeatMaxRate over
// repeatAccelTime seconds of hold. Firings are bounded per frame so a
// stalled frame cannot dump an unbounded backlog of deletions.
const (
	repeatInitialRate = 7.0
	repeatMaxRate     = 38.0
	repeatAccelTime   = 1.25
	repeatMaxPerFrame = 8
)

func repeatRate(held float64) float64 {
	t := held / repeatAccelTime
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return repeatInitialRate + (repeatMaxRate-repeatInitialRate)*t
}

// stepRepeat advances a held key's timers by dt and returns how many
// repeats fire this frame.
func stepRepeat(held, timer *float64, dt float64) int {
	*held += dt
	*timer += dt
	interval := 1.0 / repeatRate(*held)
	n := 0
	for *timer >= interval && n < repeatMaxPerFrame {
		*timer -= interval
		n++
	}
	if *timer > interval {
		*timer = interval
	}
	return n
}
