package audio

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/somnia/constant"
)

// BreathStep is one phase of a breathing pattern
type BreathStep struct {
	Text      string
	Duration  time.Duration
	Cue       bool // play a breath cue for the whole step
	Direction BreathDirection
}

// BreathPattern is a looping sequence of steps
type BreathPattern struct {
	Name  string
	Steps []BreathStep
}

func inhale(d time.Duration) BreathStep {
	return BreathStep{Text: "Breathe In", Duration: d, Cue: true, Direction: BreathIn}
}

func exhale(d time.Duration) BreathStep {
	return BreathStep{Text: "Breathe Out", Duration: d, Cue: true, Direction: BreathOut}
}

func hold(d time.Duration) BreathStep {
	return BreathStep{Text: "Hold", Duration: d}
}

// BreathPatterns returns the built-in patterns
func BreathPatterns() []BreathPattern {
	return []BreathPattern{
		{Name: "box", Steps: []BreathStep{
			inhale(4 * time.Second), hold(4 * time.Second), exhale(4 * time.Second), hold(4 * time.Second),
		}},
		{Name: "4-7-8", Steps: []BreathStep{
			inhale(4 * time.Second), hold(7 * time.Second), exhale(8 * time.Second),
		}},
	}
}

// LookupBreathPattern finds a built-in pattern by name
func LookupBreathPattern(name string) (BreathPattern, error) {
	for _, p := range BreathPatterns() {
		if p.Name == name {
			return p, nil
		}
	}
	return BreathPattern{}, fmt.Errorf("%w: %q", ErrInvalidPattern, name)
}

// Validate rejects empty patterns and non-positive steps
func (p BreathPattern) Validate() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("%w: %q has no steps", ErrInvalidPattern, p.Name)
	}
	for i, s := range p.Steps {
		if s.Duration <= 0 {
			return fmt.Errorf("%w: %q step %d duration %v", ErrInvalidPattern, p.Name, i, s.Duration)
		}
	}
	return nil
}

// BreathEvent is published at each step start and on each countdown tick
type BreathEvent struct {
	Pattern   string
	Cycle     int
	Step      int
	Text      string
	Remaining time.Duration
}

// BreathingSession loops a pattern on the engine timeline until stopped
// Events are dropped, not queued, when the consumer falls behind
type BreathingSession struct {
	e       *Engine
	pattern BreathPattern
	events  chan BreathEvent
	dropped atomic.Int64

	// guarded by e.mu
	step      int
	cycle     int
	remaining time.Duration
	stepTimer *timer
	tickTimer *timer
	stopped   bool
}

// StartBreathing begins a session; the first step and its cue start immediately
func (e *Engine) StartBreathing(p BreathPattern) (*BreathingSession, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := e.claimOutput(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}

	s := &BreathingSession{
		e:       e,
		pattern: p,
		events:  make(chan BreathEvent, constant.BreathEventBuffer),
	}
	e.sessions[s] = struct{}{}
	s.enterStepLocked(0)
	e.log.Printf("audio: breathing %s started", p.Name)
	return s, nil
}

// Events delivers step and countdown updates; closed when the session stops
func (s *BreathingSession) Events() <-chan BreathEvent {
	return s.events
}

// Dropped returns the number of events discarded because the channel was full
func (s *BreathingSession) Dropped() int64 {
	return s.dropped.Load()
}

// Pattern returns the pattern being run
func (s *BreathingSession) Pattern() BreathPattern {
	return s.pattern
}

// Active reports whether the session is still running
func (s *BreathingSession) Active() bool {
	s.e.mu.Lock()
	defer s.e.mu.Unlock()
	return !s.stopped
}

// Stop cancels pending steps and ticks; cues already sounding play out
func (s *BreathingSession) Stop() {
	s.e.mu.Lock()
	defer s.e.mu.Unlock()
	s.stopLocked()
}

func (s *BreathingSession) stopLocked() {
	if s.stopped {
		return
	}
	s.stopped = true
	s.stepTimer.Stop()
	s.tickTimer.Stop()
	delete(s.e.sessions, s)
	close(s.events)
}

func (s *BreathingSession) enterStepLocked(i int) {
	st := s.pattern.Steps[i]
	s.step = i
	s.remaining = st.Duration

	if st.Cue {
		s.e.playCueLocked(st.Direction, st.Duration.Seconds())
	}
	s.publish()
	s.scheduleTickLocked()

	s.stepTimer = s.e.sched.after(st.Duration, func() {
		s.tickTimer.Stop()
		next := (s.step + 1) % len(s.pattern.Steps)
		if next == 0 {
			s.cycle++
		}
		s.enterStepLocked(next)
	})
}

// scheduleTickLocked counts down whole ticks; the step change covers the last one
func (s *BreathingSession) scheduleTickLocked() {
	if s.remaining <= constant.BreathTickInterval {
		return
	}
	s.tickTimer = s.e.sched.after(constant.BreathTickInterval, func() {
		s.remaining -= constant.BreathTickInterval
		s.publish()
		s.scheduleTickLocked()
	})
}

func (s *BreathingSession) publish() {
	ev := BreathEvent{
		Pattern:   s.pattern.Name,
		Cycle:     s.cycle,
		Step:      s.step,
		Text:      s.pattern.Steps[s.step].Text,
		Remaining: s.remaining,
	}
	select {
	case s.events <- ev:
	default:
		s.dropped.Add(1)
	}
}
