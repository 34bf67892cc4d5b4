package audio

import (
	"math/rand"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/somnia/constant"
)

// floatBuffer is mono float64 samples at unity gain
type floatBuffer []float64

// seededRand returns rng, or a fresh time-seeded source when nil
// Generators never share a source; reproducibility is opt-in via an explicit rng
func seededRand(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// WhiteNoise returns n i.i.d. uniform samples in [-1, 1]
func WhiteNoise(n int, rng *rand.Rand) floatBuffer {
	rng = seededRand(rng)
	buf := make(floatBuffer, n)
	for i := range buf {
		buf[i] = rng.Float64()*2 - 1
	}
	return buf
}

// PinkNoise returns n samples of Kellet's 6-pole pink noise approximation (-3 dB/octave)
func PinkNoise(n int, rng *rand.Rand) floatBuffer {
	rng = seededRand(rng)
	buf := make(floatBuffer, n)

	var b0, b1, b2, b3, b4, b5, b6 float64
	for i := range buf {
		white := rng.Float64()*2 - 1
		b0 = 0.99886*b0 + white*0.0555179
		b1 = 0.99332*b1 + white*0.0750759
		b2 = 0.96900*b2 + white*0.1538520
		b3 = 0.86650*b3 + white*0.3104856
		b4 = 0.55000*b4 + white*0.5329522
		b5 = -0.7616*b5 - white*0.0168980
		buf[i] = (b0 + b1 + b2 + b3 + b4 + b5 + b6 + white*constant.PinkNoiseDirect) * constant.PinkNoiseScale
		b6 = white * 0.115926
	}
	return buf
}

// BrownNoise returns n samples of leaky-integrated white noise, level-matched to the other colors
func BrownNoise(n int, rng *rand.Rand) floatBuffer {
	rng = seededRand(rng)
	buf := make(floatBuffer, n)

	last := 0.0
	for i := range buf {
		white := rng.Float64()*2 - 1
		last = (last + constant.BrownNoiseStep*white) / constant.BrownNoiseLeak
		buf[i] = last * constant.BrownNoiseMakeup
	}
	return buf
}

// ColoredNoise dispatches to the generator for color
func ColoredNoise(color NoiseColor, n int, rng *rand.Rand) floatBuffer {
	switch color {
	case NoisePink:
		return PinkNoise(n, rng)
	case NoiseBrown:
		return BrownNoise(n, rng)
	default:
		return WhiteNoise(n, rng)
	}
}

// noiseLoopFrames is the loop length: 2s plus a prime pad so the period is not a round multiple
func noiseLoopFrames(sr beep.SampleRate) int {
	return sr.N(constant.NoiseLoopDuration) + constant.NoiseLoopPadFrames
}

// smoothLoopSeam crossfades the first seam samples into the tail so the wrap point is continuous
// The head region is consumed into the tail and then dropped from the returned slice
func smoothLoopSeam(buf floatBuffer, seam int) floatBuffer {
	if seam <= 0 || 2*seam >= len(buf) {
		return buf
	}

	body := buf[seam:]
	tail := len(body) - seam
	for i := 0; i < seam; i++ {
		t := float64(i+1) / float64(seam+1)
		body[tail+i] = body[tail+i]*(1-t) + buf[i]*t
	}
	return body
}

// NoiseLoop builds a seamless looping noise source of the given color
func NoiseLoop(color NoiseColor, sr beep.SampleRate, rng *rand.Rand) beep.Streamer {
	seam := sr.N(constant.NoiseLoopSeam)
	buf := ColoredNoise(color, noiseLoopFrames(sr)+seam, rng)
	buf = smoothLoopSeam(buf, seam)

	pcm := toBeepBuffer(buf, sr)
	return beep.Loop(-1, pcm.Streamer(0, pcm.Len()))
}

// BreathCue renders a one-shot band-passed noise burst
// Envelope: silence, linear rise to peak over the attack, linear fall to silence at the end
func BreathCue(dir BreathDirection, seconds float64, sr beep.SampleRate, rng *rand.Rand) floatBuffer {
	total := int(seconds * float64(sr))
	if total <= 0 {
		return nil
	}

	buf := WhiteNoise(total, rng)

	center := constant.BreathInhaleFreq
	if dir == BreathOut {
		center = constant.BreathExhaleFreq
	}
	filterBiquadBP(buf, center, constant.BreathFilterQ, sr)

	attack := sr.N(constant.BreathAttack)
	if attack > total/2 {
		attack = total / 2
	}
	release := total - attack

	for i := range buf {
		var env float64
		if i < attack {
			env = float64(i) / float64(attack)
		} else {
			env = float64(total-i) / float64(release)
		}
		buf[i] *= env * constant.BreathPeakGain
	}
	return buf
}

// monoStreamer plays a floatBuffer once on both channels
type monoStreamer struct {
	buf floatBuffer
	pos int
}

func (m *monoStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if m.pos >= len(m.buf) {
		return 0, false
	}
	n = copyMono(samples, m.buf[m.pos:])
	m.pos += n
	return n, true
}

func (m *monoStreamer) Err() error { return nil }

func copyMono(dst [][2]float64, src floatBuffer) int {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i][0] = src[i]
		dst[i][1] = src[i]
	}
	return n
}

// toBeepBuffer copies mono samples into a seekable stereo beep.Buffer
func toBeepBuffer(buf floatBuffer, sr beep.SampleRate) *beep.Buffer {
	pcm := beep.NewBuffer(beep.Format{
		SampleRate:  sr,
		NumChannels: constant.AudioChannels,
		Precision:   constant.AudioBitDepth / 8,
	})
	pcm.Append(&monoStreamer{buf: buf})
	return pcm
}
