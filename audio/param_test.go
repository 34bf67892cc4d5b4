package audio

import (
	"math"
	"testing"
)

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

// TestParamLinearRamp verifies interpolation and hold after the end
func TestParamLinearRamp(t *testing.T) {
	p := newParam(0)
	p.linearRampTo(100, 0.5, 1000)

	tests := []struct {
		frame int64
		want  float64
	}{
		{0, 0},
		{100, 0},
		{600, 0.25},
		{1100, 0.5},
		{5000, 0.5},
	}
	for _, tt := range tests {
		if got := p.valueAt(tt.frame); !near(got, tt.want, 1e-12) {
			t.Errorf("Frame %d: expected %f, got %f", tt.frame, tt.want, got)
		}
	}
	if !p.ramping(600) || p.ramping(1100) {
		t.Error("Expected ramping only before the end frame")
	}
}

// TestParamExponentialRamp verifies geometric interpolation
func TestParamExponentialRamp(t *testing.T) {
	p := newParam(300)
	p.exponentialRampTo(0, 800, 1000)

	mid := p.valueAt(500)
	want := math.Sqrt(300 * 800)
	if !near(mid, want, 1e-9) {
		t.Errorf("Expected geometric midpoint %f, got %f", want, mid)
	}
	if got := p.valueAt(1000); got != 800 {
		t.Errorf("Expected 800 at end, got %f", got)
	}
}

// TestParamExponentialFloor verifies zero endpoints are clamped
func TestParamExponentialFloor(t *testing.T) {
	p := newParam(0)
	p.exponentialRampTo(0, 0, 100)
	for _, f := range []int64{0, 50, 100} {
		if got := p.valueAt(f); got < minExpValue || math.IsNaN(got) {
			t.Errorf("Frame %d: expected >= %g, got %g", f, minExpValue, got)
		}
	}
}

// TestParamCancelFreezes verifies cancel holds the mid-ramp value
func TestParamCancelFreezes(t *testing.T) {
	p := newParam(0)
	p.linearRampTo(0, 1, 100)
	p.cancel(40)

	for _, f := range []int64{40, 60, 1000} {
		if got := p.valueAt(f); !near(got, 0.4, 1e-12) {
			t.Errorf("Frame %d: expected frozen 0.4, got %f", f, got)
		}
	}
	if p.ramping(60) {
		t.Error("Expected no ramp after cancel")
	}
}

// TestParamRampReplaces verifies a new ramp starts from the current value
func TestParamRampReplaces(t *testing.T) {
	p := newParam(0)
	p.linearRampTo(0, 1, 100)
	p.linearRampTo(50, 0, 50)

	if got := p.valueAt(50); !near(got, 0.5, 1e-12) {
		t.Errorf("Expected continuity at 0.5, got %f", got)
	}
	if got := p.valueAt(75); !near(got, 0.25, 1e-12) {
		t.Errorf("Expected 0.25 halfway down, got %f", got)
	}
	if got := p.valueAt(100); got != 0 {
		t.Errorf("Expected 0 at end, got %f", got)
	}
}

// TestParamZeroLengthRamp verifies an instant ramp sets the target
func TestParamZeroLengthRamp(t *testing.T) {
	p := newParam(1)
	p.linearRampTo(10, 0.2, 0)
	if got := p.valueAt(10); got != 0.2 {
		t.Errorf("Expected 0.2, got %f", got)
	}
}
