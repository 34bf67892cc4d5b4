package audio

import (
	"log"
	"time"
)

// bus owns at most one active chain plus any chains still fading out after a restart
type bus struct {
	id    BusID
	level float64 // fade-in target
	sched *scheduler
	log   *log.Logger

	state    BusState
	active   *chain
	retiring []*chain
	autoStop *timer
	fadeOut  time.Duration // used for auto-stop and restart crossfades
}

func newBus(id BusID, level float64, fadeOut time.Duration, sched *scheduler, logger *log.Logger) *bus {
	return &bus{
		id:      id,
		level:   level,
		sched:   sched,
		log:     logger,
		fadeOut: fadeOut,
	}
}

// start replaces whatever the bus is playing with c
// fadeIn > 0 ramps gain 0 -> level and holds Starting until the ramp completes
// fadeIn == 0 keeps the envelope already programmed on c
// autoStop > 0 schedules stop(fadeOut) that far ahead
func (b *bus) start(c *chain, fadeIn, autoStop time.Duration) {
	b.cancelAutoStop()

	if prev := b.active; prev != nil {
		b.active = nil
		b.retire(prev)
	}

	now := b.sched.now
	b.active = c
	c.onRelease = b.chainReleased(c.onRelease)

	if fadeIn > 0 {
		c.gain.setValue(now, 0)
		c.gain.linearRampTo(now, b.level, b.sched.frames(fadeIn))
		b.state = BusStarting
		c.settle = b.sched.after(fadeIn, func() {
			if b.active == c && b.state == BusStarting {
				b.state = BusPlaying
			}
		})
	} else {
		b.state = BusPlaying
	}

	if autoStop > 0 {
		b.autoStop = b.sched.after(autoStop, func() {
			b.autoStop = nil
			b.log.Printf("%s bus auto-stop after %v", b.id, autoStop)
			b.stop(b.fadeOut)
		})
	}
}

// stop fades the active chain out; fade <= 0 releases it and any retiring chains now
// A stop during a fade restarts the fade from the current gain
func (b *bus) stop(fade time.Duration) {
	b.cancelAutoStop()

	if fade <= 0 {
		for len(b.retiring) > 0 {
			b.retiring[0].release()
		}
		if c := b.active; c != nil {
			b.active = nil
			c.release()
		}
		b.state = BusIdle
		return
	}

	c := b.active
	if c == nil {
		return
	}
	b.state = BusFadingOut
	b.fadeChain(c, fade)
}

// retire moves c off the slot and lets it fade out on its own
func (b *bus) retire(c *chain) {
	b.retiring = append(b.retiring, c)
	if c.teardown.Pending() {
		return
	}
	b.fadeChain(c, b.fadeOut)
}

func (b *bus) fadeChain(c *chain, fade time.Duration) {
	now := b.sched.now
	c.settle.Stop()
	c.teardown.Stop()
	c.freeze(now)
	c.gain.linearRampTo(now, 0, b.sched.frames(fade))
	c.teardown = b.sched.after(fade, c.release)
}

// chainReleased wraps a release hook so the bus forgets c once it is gone
func (b *bus) chainReleased(next func(*chain)) func(*chain) {
	return func(c *chain) {
		if b.active == c {
			b.active = nil
			b.state = BusIdle
		}
		for i, r := range b.retiring {
			if r == c {
				b.retiring = append(b.retiring[:i], b.retiring[i+1:]...)
				break
			}
		}
		if next != nil {
			next(c)
		}
	}
}

func (b *bus) cancelAutoStop() {
	if b.autoStop != nil {
		b.autoStop.Stop()
		b.autoStop = nil
	}
}

// live counts chains still connected to the output
func (b *bus) live() int {
	n := len(b.retiring)
	if b.active != nil {
		n++
	}
	return n
}
