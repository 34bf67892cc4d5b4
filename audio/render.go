package audio

import (
	"github.com/lixenwraith/somnia/constant"
)

// masterStream is the streamer the output device pulls
// It advances the timeline, firing timers on exact frames and splitting blocks at their deadlines
type masterStream struct {
	e *Engine
}

func (m *masterStream) Stream(samples [][2]float64) (n int, ok bool) {
	e := m.e
	clear(samples)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed.Load() {
		return len(samples), true
	}

	fired := 0
	for done := 0; done < len(samples); {
		fired += e.sched.fireDue()

		block := min(len(samples)-done, constant.RenderBlockFrames)
		if next, ok := e.sched.nextDeadline(); ok && next-e.sched.now < int64(block) {
			block = int(next - e.sched.now)
		}

		e.mixLocked(samples[done : done+block])
		e.sched.advance(block)
		done += block
	}
	fired += e.sched.fireDue()

	if fired > 0 {
		e.publishLocked()
	} else {
		e.m.timeline.Set(e.sched.elapsed().Seconds())
	}

	gain := e.volume.Get()
	if e.muted.Load() {
		gain = 0
	}
	for i := range samples {
		samples[i][0] = softClip(samples[i][0] * gain)
		samples[i][1] = softClip(samples[i][1] * gain)
	}
	return len(samples), true
}

func (m *masterStream) Err() error { return nil }

// mixLocked sums every bus chain and the breath cues into out
func (e *Engine) mixLocked(out [][2]float64) {
	start := e.sched.now
	for _, b := range e.buses {
		vol := e.config.BusVolume(b.id)
		if b.active != nil {
			b.active.render(out, start, vol)
		}
		for _, c := range b.retiring {
			c.render(out, start, vol)
		}
	}

	if e.cues.Len() == 0 {
		return
	}
	if cap(e.cueScratch) < len(out) {
		e.cueScratch = make([][2]float64, len(out))
	}
	cues := e.cueScratch[:len(out)]
	clear(cues)
	e.cues.Stream(cues)
	for i := range out {
		out[i][0] += cues[i][0]
		out[i][1] += cues[i][1]
	}
}
