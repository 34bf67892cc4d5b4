package audio

import (
	"fmt"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
)

// binaural routes two free-running sine oscillators to separate ears
type binaural struct {
	left    beep.Streamer
	right   beep.Streamer
	scratch [][2]float64
}

// BinauralFrequencies returns the per-ear oscillator frequencies
func BinauralFrequencies(baseHz, beatHz float64) (left, right float64) {
	return baseHz - beatHz/2, baseHz + beatHz/2
}

// Binaural builds an endless stereo pair perceived as beating at beatHz
func Binaural(baseHz, beatHz float64, sr beep.SampleRate) (beep.Streamer, error) {
	lf, rf := BinauralFrequencies(baseHz, beatHz)

	left, err := generators.SineTone(sr, lf)
	if err != nil {
		return nil, fmt.Errorf("left oscillator %.2fHz: %w", lf, err)
	}
	right, err := generators.SineTone(sr, rf)
	if err != nil {
		return nil, fmt.Errorf("right oscillator %.2fHz: %w", rf, err)
	}

	return &binaural{left: left, right: right}, nil
}

func (b *binaural) Stream(samples [][2]float64) (n int, ok bool) {
	if cap(b.scratch) < len(samples) {
		b.scratch = make([][2]float64, len(samples))
	}
	scratch := b.scratch[:len(samples)]

	n, ok = b.left.Stream(samples)
	if rn, _ := b.right.Stream(scratch[:n]); rn < n {
		n = rn
	}
	for i := 0; i < n; i++ {
		samples[i][1] = scratch[i][0]
	}
	return n, ok
}

func (b *binaural) Err() error { return nil }
