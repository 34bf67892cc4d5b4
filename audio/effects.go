package audio

import (
	"math"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/lixenwraith/somnia/constant"
)

// biquad is a direct form I second-order section, coefficients normalized by a0
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	x1, x2     float64
	y1, y2     float64
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// newBandPass returns a constant 0 dB peak band-pass centred on freq
func newBandPass(freq, q float64, sr beep.SampleRate) *biquad {
	w0 := 2 * math.Pi * freq / float64(sr)
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha
	return &biquad{
		b0: alpha / a0,
		b1: 0,
		b2: -alpha / a0,
		a1: -2 * math.Cos(w0) / a0,
		a2: (1 - alpha) / a0,
	}
}

// filterBiquadBP band-passes buf in place
func filterBiquadBP(buf floatBuffer, freq, q float64, sr beep.SampleRate) {
	f := newBandPass(freq, q, sr)
	for i, x := range buf {
		buf[i] = f.process(x)
	}
}

// softClip compresses above the limiter knee, then hard clips at unity
func softClip(v float64) float64 {
	knee := constant.LimiterKnee
	head := 1 - knee
	if v > knee {
		v = knee + head*(1.0-1.0/(1.0+(v-knee)*5.0))
	} else if v < -knee {
		v = -knee - head*(1.0-1.0/(1.0+(-v-knee)*5.0))
	}

	if v > 1.0 {
		v = 1.0
	} else if v < -1.0 {
		v = -1.0
	}
	return v
}

// newVolume wraps s in a linear volume; math.Log2(0) is -Inf, so 0 becomes silent
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}
