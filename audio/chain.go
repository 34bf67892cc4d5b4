package audio

import (
	"math"

	"github.com/gopxl/beep"
)

// chain is one live source routed through a gain stage to the master output
type chain struct {
	id     uint64
	bus    BusID
	label  string
	source beep.Streamer
	gain   *param
	freq   *param // swept oscillator frequency, alarm only

	settle   *timer // Starting -> Playing
	teardown *timer // end of fade-out

	scratch  [][2]float64
	drained  bool
	released bool

	onRelease func(*chain)
}

func newChain(id uint64, bus BusID, label string, source beep.Streamer, gain float64) *chain {
	return &chain{
		id:     id,
		bus:    bus,
		label:  label,
		source: source,
		gain:   newParam(gain),
	}
}

// render mixes the chain into dst, dst[0] being at timeline frame start
func (c *chain) render(dst [][2]float64, start int64, volume float64) {
	if c.released || c.drained {
		return
	}
	if cap(c.scratch) < len(dst) {
		c.scratch = make([][2]float64, len(dst))
	}
	buf := c.scratch[:len(dst)]

	n, ok := c.source.Stream(buf)
	for i := 0; i < n; i++ {
		g := c.gain.valueAt(start+int64(i)) * volume
		dst[i][0] += buf[i][0] * g
		dst[i][1] += buf[i][1] * g
	}
	if !ok || n < len(dst) {
		c.drained = true
	}
}

// freeze holds every automated parameter at its value at frame
func (c *chain) freeze(frame int64) {
	c.gain.cancel(frame)
	if c.freq != nil {
		c.freq.cancel(frame)
	}
}

// release disconnects the chain; later calls are no-ops
func (c *chain) release() {
	if c.released {
		return
	}
	c.released = true
	c.settle.Stop()
	c.teardown.Stop()
	c.source = nil
	if c.onRelease != nil {
		c.onRelease(c)
	}
}

// sweepOscillator is a sine whose frequency follows an automated param
// Phase is accumulated so frequency changes stay click-free
type sweepOscillator struct {
	freq  *param
	rate  float64
	frame int64
	phase float64
}

func newSweepOscillator(freq *param, sr beep.SampleRate, startFrame int64) *sweepOscillator {
	return &sweepOscillator{freq: freq, rate: float64(sr), frame: startFrame}
}

func (o *sweepOscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		v := math.Sin(2 * math.Pi * o.phase)
		samples[i][0] = v
		samples[i][1] = v

		o.phase += o.freq.valueAt(o.frame) / o.rate
		o.phase -= math.Floor(o.phase)
		o.frame++
	}
	return len(samples), true
}

func (o *sweepOscillator) Err() error { return nil }
