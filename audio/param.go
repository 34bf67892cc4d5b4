package audio

import "math"

// minExpValue floors exponential ramps; an exponential curve cannot pass through zero
const minExpValue = 1e-4

type rampCurve int

const (
	rampHold rampCurve = iota
	rampLinear
	rampExponential
)

// param is an automatable value on the frame timeline
// It holds at most one pending ramp; a new ramp or set replaces it, starting from the value at that frame
type param struct {
	from    float64
	to      float64
	startAt int64
	endAt   int64
	curve   rampCurve
}

func newParam(v float64) *param {
	return &param{from: v, to: v}
}

// valueAt evaluates the parameter at frame
func (p *param) valueAt(frame int64) float64 {
	if p.curve == rampHold || frame >= p.endAt {
		return p.to
	}
	if frame <= p.startAt {
		return p.from
	}

	t := float64(frame-p.startAt) / float64(p.endAt-p.startAt)
	if p.curve == rampExponential {
		return p.from * math.Pow(p.to/p.from, t)
	}
	return p.from + (p.to-p.from)*t
}

// setValue holds v from frame on, dropping any pending ramp
func (p *param) setValue(frame int64, v float64) {
	p.from, p.to = v, v
	p.startAt, p.endAt = frame, frame
	p.curve = rampHold
}

// cancel freezes the parameter at its current value
func (p *param) cancel(frame int64) {
	p.setValue(frame, p.valueAt(frame))
}

// linearRampTo ramps from the current value to target over frames
func (p *param) linearRampTo(frame int64, target float64, frames int64) {
	p.rampTo(frame, target, frames, rampLinear)
}

// exponentialRampTo ramps geometrically; both ends are floored at minExpValue
func (p *param) exponentialRampTo(frame int64, target float64, frames int64) {
	p.rampTo(frame, math.Max(target, minExpValue), frames, rampExponential)
}

func (p *param) rampTo(frame int64, target float64, frames int64, curve rampCurve) {
	current := p.valueAt(frame)
	if frames <= 0 {
		p.setValue(frame, target)
		return
	}
	if curve == rampExponential {
		current = math.Max(current, minExpValue)
	}

	p.from, p.to = current, target
	p.startAt, p.endAt = frame, frame+frames
	p.curve = curve
}

// ramping reports whether a ramp is still in progress at frame
func (p *param) ramping(frame int64) bool {
	return p.curve != rampHold && frame < p.endAt
}
