package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/lixenwraith/somnia/audio"
)

// renderOptions selects what the offline renderer plays
type renderOptions struct {
	path      string
	length    time.Duration
	alarm     bool
	sound     audio.SoundDescriptor
	autoStop  time.Duration
	breathing string
}

// renderOffline drives the engine from a ManualOutput and encodes the master mix to WAV
// The timeline advances exactly as fast as frames are pulled, so timers land on the same frames as live playback
func renderOffline(eng *audio.Engine, out *audio.ManualOutput, opts renderOptions) error {
	if opts.alarm {
		eng.PlayAlarm()
	} else if err := eng.PlaySleepSound(context.Background(), opts.sound, opts.autoStop); err != nil {
		return fmt.Errorf("start %s: %w", opts.sound.ID, err)
	}

	if opts.breathing != "" {
		pattern, err := audio.LookupBreathPattern(opts.breathing)
		if err != nil {
			return err
		}
		session, err := eng.StartBreathing(pattern)
		if err != nil {
			return err
		}
		defer session.Stop()
	}

	source := out.Source()
	if source == nil {
		return errors.New("render output was not readied")
	}

	f, err := os.Create(opts.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", opts.path, err)
	}
	defer f.Close()

	format := eng.Format()
	frames := format.SampleRate.N(opts.length)
	if err := wav.Encode(f, beep.Take(frames, source), format); err != nil {
		return fmt.Errorf("encode %s: %w", opts.path, err)
	}

	log.Printf("rendered %v (%d frames) to %s: %s", opts.length, frames, opts.path, eng.Stats())
	return nil
}
