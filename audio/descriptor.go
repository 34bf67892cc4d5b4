package audio

import (
	"fmt"
	"strings"
)

// SoundDescriptor names a sound and its synthesis parameters
// Descriptors are values; the engine never mutates one it was handed
type SoundDescriptor struct {
	ID          string
	DisplayName string
	Description string
	Kind        SoundKind

	Color NoiseColor // KindNoise

	BaseHz float64 // KindBinaural: carrier centre
	BeatHz float64 // KindBinaural: left/right difference

	Source string // KindFile: URI of the sample
}

// NoiseSound builds a noise descriptor
func NoiseSound(id string, color NoiseColor) SoundDescriptor {
	return SoundDescriptor{ID: id, DisplayName: id, Kind: KindNoise, Color: color}
}

// BinauralSound builds a binaural descriptor
func BinauralSound(id string, baseHz, beatHz float64) SoundDescriptor {
	return SoundDescriptor{ID: id, DisplayName: id, Kind: KindBinaural, BaseHz: baseHz, BeatHz: beatHz}
}

// FileSound builds a file sample descriptor
func FileSound(id, source string) SoundDescriptor {
	return SoundDescriptor{ID: id, DisplayName: id, Kind: KindFile, Source: source}
}

// Validate checks kind-specific parameters
func (d SoundDescriptor) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidDescriptor)
	}

	switch d.Kind {
	case KindNoise:
		if d.Color < NoiseWhite || d.Color > NoiseBrown {
			return fmt.Errorf("%w: %s: noise color %d", ErrInvalidDescriptor, d.ID, int(d.Color))
		}
	case KindBinaural:
		if d.BaseHz <= 0 {
			return fmt.Errorf("%w: %s: base frequency must be positive", ErrInvalidDescriptor, d.ID)
		}
		if d.BeatHz < 0 || d.BeatHz/2 >= d.BaseHz {
			return fmt.Errorf("%w: %s: beat frequency %.2f out of range for base %.2f", ErrInvalidDescriptor, d.ID, d.BeatHz, d.BaseHz)
		}
	case KindFile:
		if strings.TrimSpace(d.Source) == "" {
			return fmt.Errorf("%w: %s: empty source", ErrInvalidDescriptor, d.ID)
		}
	default:
		return fmt.Errorf("%w: %s: kind %d", ErrInvalidDescriptor, d.ID, int(d.Kind))
	}
	return nil
}

// Label returns the display name, falling back to the id
func (d SoundDescriptor) Label() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.ID
}
