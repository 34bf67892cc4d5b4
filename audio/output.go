package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/somnia/constant"
)

// OutputDevice is the platform sink that pulls the engine's master stream
// EnsureReady is idempotent and resumes a suspended device
type OutputDevice interface {
	EnsureReady(format beep.Format, source beep.Streamer) error
	Suspend() error
	Close() error
}

// failureNotifier is implemented by devices that can break after EnsureReady succeeded
// The handler runs on its own goroutine
type failureNotifier interface {
	notifyOnFailure(fn func(error))
}

// OutputMode selects the output device
type OutputMode string

const (
	OutputAuto    OutputMode = "auto"    // speaker, then pipe
	OutputSpeaker OutputMode = "speaker" // beep/speaker over oto
	OutputPipe    OutputMode = "pipe"    // CLI backend via stdin
	OutputNull    OutputMode = "null"    // real-time, inaudible
)

// ParseOutputMode parses a mode name
func ParseOutputMode(s string) (OutputMode, error) {
	switch m := OutputMode(s); m {
	case OutputAuto, OutputSpeaker, OutputPipe, OutputNull:
		return m, nil
	}
	return "", fmt.Errorf("unknown output mode %q", s)
}

// NewOutputDevice builds the device for mode
func NewOutputDevice(mode OutputMode) OutputDevice {
	switch mode {
	case OutputSpeaker:
		return NewSpeakerOutput()
	case OutputPipe:
		return NewPipeOutput()
	case OutputNull:
		return NewNullOutput()
	default:
		return &firstReady{candidates: []OutputDevice{NewSpeakerOutput(), NewPipeOutput()}}
	}
}

// SpeakerOutput plays through beep's process-wide speaker
type SpeakerOutput struct {
	mu          sync.Mutex
	initialized bool
	suspended   bool
}

func NewSpeakerOutput() *SpeakerOutput {
	return &SpeakerOutput{}
}

// EnsureReady implements OutputDevice
func (o *SpeakerOutput) EnsureReady(format beep.Format, source beep.Streamer) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.initialized {
		bufferSize := format.SampleRate.N(constant.SpeakerBufferDuration)
		if err := speaker.Init(format.SampleRate, bufferSize); err != nil {
			return err
		}
		speaker.Play(source)
		o.initialized = true
		o.suspended = false
		return nil
	}

	if o.suspended {
		if err := speaker.Resume(); err != nil {
			return err
		}
		o.suspended = false
	}
	return nil
}

// Suspend implements OutputDevice
func (o *SpeakerOutput) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.initialized || o.suspended {
		return nil
	}
	if err := speaker.Suspend(); err != nil {
		return err
	}
	o.suspended = true
	return nil
}

// Close implements OutputDevice
func (o *SpeakerOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.initialized {
		return nil
	}
	speaker.Clear()
	speaker.Close()
	o.initialized = false
	return nil
}

// firstReady uses the first candidate that comes up
type firstReady struct {
	mu         sync.Mutex
	candidates []OutputDevice
	chosen     OutputDevice
}

func (f *firstReady) EnsureReady(format beep.Format, source beep.Streamer) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.chosen != nil {
		return f.chosen.EnsureReady(format, source)
	}

	var errs []error
	for _, c := range f.candidates {
		err := c.EnsureReady(format, source)
		if err == nil {
			f.chosen = c
			return nil
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// notifyOnFailure forwards the handler to every candidate that supports it
func (f *firstReady) notifyOnFailure(fn func(error)) {
	for _, c := range f.candidates {
		if n, ok := c.(failureNotifier); ok {
			n.notifyOnFailure(fn)
		}
	}
}

func (f *firstReady) Suspend() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chosen == nil {
		return nil
	}
	return f.chosen.Suspend()
}

func (f *firstReady) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chosen == nil {
		return nil
	}
	return f.chosen.Close()
}

// ManualOutput is advanced explicitly instead of by a clock
// Drives deterministic tests and offline rendering
type ManualOutput struct {
	mu        sync.Mutex
	source    beep.Streamer
	format    beep.Format
	ready     bool
	suspended bool
	readies   int
	fail      error
	scratch   [][2]float64
}

func NewManualOutput() *ManualOutput {
	return &ManualOutput{}
}

// FailWith makes every later EnsureReady return err
func (o *ManualOutput) FailWith(err error) {
	o.mu.Lock()
	o.fail = err
	o.mu.Unlock()
}

// EnsureReady implements OutputDevice
func (o *ManualOutput) EnsureReady(format beep.Format, source beep.Streamer) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.fail != nil {
		return o.fail
	}
	o.format = format
	o.source = source
	o.ready = true
	o.suspended = false
	o.readies++
	return nil
}

func (o *ManualOutput) Suspend() error {
	o.mu.Lock()
	o.suspended = true
	o.mu.Unlock()
	return nil
}

func (o *ManualOutput) Close() error {
	o.mu.Lock()
	o.ready = false
	o.source = nil
	o.mu.Unlock()
	return nil
}

// Readies returns how many times EnsureReady succeeded
func (o *ManualOutput) Readies() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.readies
}

// Source returns the attached master stream, nil before EnsureReady
func (o *ManualOutput) Source() beep.Streamer {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.source
}

// Advance pulls d worth of frames and discards them, returns frames rendered
func (o *ManualOutput) Advance(d time.Duration) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.ready || o.suspended {
		return 0
	}
	total := o.format.SampleRate.N(d)
	if cap(o.scratch) < constant.RenderBlockFrames {
		o.scratch = make([][2]float64, constant.RenderBlockFrames)
	}
	for done := 0; done < total; {
		n := min(total-done, constant.RenderBlockFrames)
		o.source.Stream(o.scratch[:n])
		done += n
	}
	return total
}

// Render pulls n frames and returns them
func (o *ManualOutput) Render(n int) [][2]float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([][2]float64, n)
	if !o.ready || o.suspended {
		return out
	}
	o.source.Stream(out)
	return out
}
