package audio

import (
	"errors"
	"testing"
	"time"
)

func drain(ch <-chan BreathEvent) []BreathEvent {
	var out []BreathEvent
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

// TestBreathPatterns verifies the built-in step timings
func TestBreathPatterns(t *testing.T) {
	tests := []struct {
		name  string
		total time.Duration
		steps int
		cued  int
	}{
		{"box", 16 * time.Second, 4, 2},
		{"4-7-8", 19 * time.Second, 3, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := LookupBreathPattern(tt.name)
			if err != nil {
				t.Fatalf("LookupBreathPattern: %v", err)
			}
			if err := p.Validate(); err != nil {
				t.Fatalf("Validate: %v", err)
			}

			var total time.Duration
			cued := 0
			for _, s := range p.Steps {
				total += s.Duration
				if s.Cue {
					cued++
				}
			}
			if len(p.Steps) != tt.steps || total != tt.total || cued != tt.cued {
				t.Errorf("Expected %d steps/%v/%d cues, got %d/%v/%d", tt.steps, tt.total, tt.cued, len(p.Steps), total, cued)
			}
		})
	}

	if _, err := LookupBreathPattern("wim-hof"); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("Expected ErrInvalidPattern, got %v", err)
	}
}

// TestBreathPatternValidate rejects empty and zero-length patterns
func TestBreathPatternValidate(t *testing.T) {
	bad := []BreathPattern{
		{Name: "empty"},
		{Name: "zero", Steps: []BreathStep{hold(0)}},
	}
	for _, p := range bad {
		if err := p.Validate(); !errors.Is(err, ErrInvalidPattern) {
			t.Errorf("%s: expected ErrInvalidPattern, got %v", p.Name, err)
		}
	}
}

// TestBreathingCountdown verifies step start and per-second events on the timeline
func TestBreathingCountdown(t *testing.T) {
	e, out := newTestEngine(t, nil)
	p, _ := LookupBreathPattern("box")

	s, err := e.StartBreathing(p)
	if err != nil {
		t.Fatalf("StartBreathing: %v", err)
	}
	if e.ActiveCues() != 1 {
		t.Errorf("Expected inhale cue playing, got %d cues", e.ActiveCues())
	}

	out.Advance(4 * time.Second)
	got := drain(s.Events())

	want := []struct {
		step      int
		text      string
		remaining time.Duration
	}{
		{0, "Breathe In", 4 * time.Second},
		{0, "Breathe In", 3 * time.Second},
		{0, "Breathe In", 2 * time.Second},
		{0, "Breathe In", 1 * time.Second},
		{1, "Hold", 4 * time.Second},
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d events, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Step != w.step || got[i].Text != w.text || got[i].Remaining != w.remaining {
			t.Errorf("Event %d: expected %d/%s/%v, got %d/%s/%v", i, w.step, w.text, w.remaining, got[i].Step, got[i].Text, got[i].Remaining)
		}
	}
}

// TestBreathingCycles verifies the pattern wraps and counts cycles
func TestBreathingCycles(t *testing.T) {
	e, out := newTestEngine(t, nil)
	p, _ := LookupBreathPattern("4-7-8")
	s, _ := e.StartBreathing(p)

	var last BreathEvent
	for i := 0; i < 19; i++ {
		out.Advance(time.Second)
		for _, ev := range drain(s.Events()) {
			last = ev
		}
	}
	if last.Cycle != 1 || last.Step != 0 || last.Text != "Breathe In" {
		t.Errorf("Expected cycle 1 inhale, got %+v", last)
	}
	if s.Dropped() != 0 {
		t.Errorf("Expected no drops with a draining consumer, got %d", s.Dropped())
	}
}

// TestBreathingStop verifies stop closes the channel and cancels timers
func TestBreathingStop(t *testing.T) {
	e, out := newTestEngine(t, nil)
	p, _ := LookupBreathPattern("box")
	s, _ := e.StartBreathing(p)

	s.Stop()
	s.Stop()
	if s.Active() {
		t.Error("Expected inactive session")
	}
	drain(s.Events())
	if _, ok := <-s.Events(); ok {
		t.Error("Expected closed events channel")
	}
	if e.sched.pending() != 0 {
		t.Errorf("Expected no pending timers, got %d", e.sched.pending())
	}
	out.Advance(5 * time.Second)
}

// TestBreathingDropsWhenFull verifies a stalled consumer never blocks the timeline
func TestBreathingDropsWhenFull(t *testing.T) {
	e, out := newTestEngine(t, nil)
	p, _ := LookupBreathPattern("box")
	s, _ := e.StartBreathing(p)

	out.Advance(30 * time.Second)
	if s.Dropped() == 0 {
		t.Error("Expected dropped events with no consumer")
	}
	if len(drain(s.Events())) != cap(s.events) {
		t.Errorf("Expected a full buffer of %d", cap(s.events))
	}
}

// TestBreathingStoppedByClose verifies engine Close ends sessions
func TestBreathingStoppedByClose(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	p, _ := LookupBreathPattern("4-7-8")
	s, _ := e.StartBreathing(p)

	e.Close()
	if s.Active() {
		t.Error("Expected session stopped by Close")
	}
	if _, err := e.StartBreathing(p); !errors.Is(err, ErrEngineClosed) {
		t.Errorf("Expected ErrEngineClosed, got %v", err)
	}
}
