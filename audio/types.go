package audio

import (
	"fmt"
	"strings"
)

// SoundKind selects the synthesis path of a descriptor
type SoundKind int

const (
	KindNoise    SoundKind = iota // Colored noise loop
	KindBinaural                  // Dual sine, one per ear
	KindFile                      // Decoded remote sample, looped
)

var kindNames = [...]string{"noise", "binaural", "file"}

func (k SoundKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseSoundKind maps a catalog string to SoundKind
func ParseSoundKind(s string) (SoundKind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(s, name) {
			return SoundKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidDescriptor, s)
}

// NoiseColor is the spectral tilt of generated noise
type NoiseColor int

const (
	NoiseWhite NoiseColor = iota
	NoisePink
	NoiseBrown
)

var colorNames = [...]string{"white", "pink", "brown"}

func (c NoiseColor) String() string {
	if c < 0 || int(c) >= len(colorNames) {
		return fmt.Sprintf("color(%d)", int(c))
	}
	return colorNames[c]
}

// ParseNoiseColor maps a catalog string to NoiseColor
func ParseNoiseColor(s string) (NoiseColor, error) {
	for i, name := range colorNames {
		if strings.EqualFold(s, name) {
			return NoiseColor(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown noise color %q", ErrInvalidDescriptor, s)
}

// BusID names one of the two single-occupancy playback slots
type BusID int

const (
	BusAlarm BusID = iota
	BusSleep
	busCount
)

func (b BusID) String() string {
	switch b {
	case BusAlarm:
		return "alarm"
	case BusSleep:
		return "sleep"
	default:
		return fmt.Sprintf("bus(%d)", int(b))
	}
}

// BusState is the lifecycle phase of a bus
type BusState int

const (
	BusIdle      BusState = iota // No chain in the slot
	BusStarting                  // Chain connected, fade-in running
	BusPlaying                   // Fade-in complete
	BusFadingOut                 // Fade-out running, teardown pending
)

func (s BusState) String() string {
	switch s {
	case BusIdle:
		return "idle"
	case BusStarting:
		return "starting"
	case BusPlaying:
		return "playing"
	case BusFadingOut:
		return "fading"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// BreathDirection selects the band of a breath cue
type BreathDirection int

const (
	BreathIn BreathDirection = iota
	BreathOut
)

func (d BreathDirection) String() string {
	if d == BreathOut {
		return "out"
	}
	return "in"
}
