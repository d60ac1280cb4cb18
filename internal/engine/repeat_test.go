package engine

import (
	"math"
	"testing"
)

func TestRepeatRateRamp(t *testing.T) {
	if got := repeatRate(0); got != repeatInitialRate {
		t.Fatalf("rate at press should be %v, got %v", repeatInitialRate, got)
	}
	if got := repeatRate(repeatAccelTime); got != repeatMaxRate {
		t.Fatalf("rate after the ramp should be %v, got %v", repeatMaxRate, got)
	}
	if got := repeatRate(100); got != repeatMaxRate {
		t.Fatalf("rate must saturate at %v, got %v", repeatMaxRate, got)
	}
	mid := repeatRate(repeatAccelTime / 2)
	wantMid := (repeatInitialRate + repeatMaxRate) / 2
	if math.Abs(mid-wantMid) > 1e-9 {
		t.Fatalf("ramp should be linear: got %v want %v", mid, wantMid)
	}
}

func TestStepRepeatFiresAtRampedRate(t *testing.T) {
	var held, timer float64
	total := 0
	// Two seconds of 60fps hold: the ramp covers the first 1.25s, then the
	// rate holds at max. Expect roughly the integral of the rate curve.
	for i := 0; i < 120; i++ {
		total += stepRepeat(&held, &timer, 1.0/60.0)
	}
	// Integral: 1.25s ramp averages (7+38)/2 = 22.5 -> ~28, plus 0.75s at
	// 38 -> ~28.5. Allow slack for interval quantization.
	if total < 50 || total > 62 {
		t.Fatalf("unexpected firing count over 2s: %d", total)
	}
}

func TestStepRepeatBoundsCatchUp(t *testing.T) {
	var held, timer float64
	if got := stepRepeat(&held, &timer, 5.0); got != repeatMaxPerFrame {
		t.Fatalf("a stalled frame should cap at %d firings, got %d", repeatMaxPerFrame, got)
	}
	// The banked backlog is clamped, so the next normal frame does not
	// burst again.
	if got := stepRepeat(&held, &timer, 1.0/60.0); got > 2 {
		t.Fatalf("backlog should not burst after the cap, got %d", got)
	}
}
