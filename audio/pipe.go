package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/somnia/constant"
)

// openFunc opens the byte sink for a stream output; closer may be nil
type openFunc func(format beep.Format) (w io.Writer, closer func() error, err error)

// StreamOutput drives the engine from a ticker and writes s16le stereo PCM to a sink
// Used for CLI audio backends and for the silent fallback
type StreamOutput struct {
	name string
	open openFunc

	mu        sync.Mutex // lifecycle
	closer    func() error
	failure   atomic.Pointer[error]
	onFailure func(error)

	running  atomic.Bool
	paused   atomic.Bool
	stopChan chan struct{}
	wg       sync.WaitGroup

	written atomic.Int64 // frames
}

// NewPipeOutput streams to the first CLI backend DetectBackend finds
func NewPipeOutput() *StreamOutput {
	return &StreamOutput{name: "pipe", open: openPipe}
}

// NewNullOutput keeps the timeline running in real time with nothing audible
func NewNullOutput() *StreamOutput {
	return NewWriterOutput("null", io.Discard)
}

// NewWriterOutput streams raw PCM into w
func NewWriterOutput(name string, w io.Writer) *StreamOutput {
	return &StreamOutput{
		name: name,
		open: func(beep.Format) (io.Writer, func() error, error) { return w, nil, nil },
	}
}

// Name identifies the sink
func (o *StreamOutput) Name() string { return o.name }

// notifyOnFailure implements failureNotifier
func (o *StreamOutput) notifyOnFailure(fn func(error)) {
	o.mu.Lock()
	o.onFailure = fn
	o.mu.Unlock()
}

// Frames returns the number of frames written so far
func (o *StreamOutput) Frames() int64 { return o.written.Load() }

// EnsureReady implements OutputDevice
func (o *StreamOutput) EnsureReady(format beep.Format, source beep.Streamer) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if errp := o.failure.Load(); errp != nil {
		return *errp
	}
	if o.running.Load() {
		o.paused.Store(false)
		return nil
	}

	w, closer, err := o.open(format)
	if err != nil {
		o.failure.Store(&err)
		return err
	}
	o.closer = closer
	o.stopChan = make(chan struct{})
	o.paused.Store(false)
	o.running.Store(true)

	o.wg.Add(1)
	go o.loop(source, w, format.SampleRate, o.onFailure)
	return nil
}

// Suspend keeps the sink fed with silence and stops pulling the engine
func (o *StreamOutput) Suspend() error {
	o.paused.Store(true)
	return nil
}

// Close stops the loop and releases the sink
func (o *StreamOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running.CompareAndSwap(true, false) {
		return nil
	}
	close(o.stopChan)
	o.wg.Wait()

	if o.closer != nil {
		err := o.closer()
		o.closer = nil
		return err
	}
	return nil
}

func (o *StreamOutput) loop(source beep.Streamer, w io.Writer, rate beep.SampleRate, onFailure func(error)) {
	defer o.wg.Done()

	ticker := time.NewTicker(constant.AudioBufferDuration)
	defer ticker.Stop()

	frames := rate.N(constant.AudioBufferDuration)
	samples := make([][2]float64, frames)
	out := make([]byte, frames*constant.AudioBytesPerFrame)

	for {
		select {
		case <-o.stopChan:
			return

		case <-ticker.C:
			clear(samples)
			if !o.paused.Load() {
				source.Stream(samples)
			}
			floatToBytes(samples, out)

			if _, err := w.Write(out); err != nil {
				failure := fmt.Errorf("%w: %v", ErrPipeClosed, err)
				o.failure.Store(&failure)
				// The handler may Close this output, which waits for the loop to exit
				if onFailure != nil {
					go onFailure(failure)
				}
				return
			}
			o.written.Add(int64(frames))
		}
	}
}

// openPipe launches the detected backend and returns its stdin, or the OSS device
func openPipe(format beep.Format) (io.Writer, func() error, error) {
	backend, err := DetectBackend(int(format.SampleRate))
	if err != nil {
		return nil, nil, err
	}

	if backend.Type == BackendOSS {
		f, err := os.OpenFile(backend.Path, os.O_WRONLY, 0)
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	}

	cmd := exec.Command(backend.Path, backend.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, err
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		return nil, nil, fmt.Errorf("start %s: %w", backend.Name, err)
	}

	closer := func() error {
		stdin.Close()
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
		cmd.Wait()
		return nil
	}
	return stdin, closer, nil
}

// floatToBytes converts stereo frames to interleaved int16 LE, hard clipping at unity
func floatToBytes(in [][2]float64, out []byte) {
	for i, frame := range in {
		for ch, v := range frame {
			if v > 1.0 {
				v = 1.0
			} else if v < -1.0 {
				v = -1.0
			}
			binary.LittleEndian.PutUint16(out[i*4+ch*2:], uint16(int16(v*32767)))
		}
	}
}
