package audio

import (
	"reflect"
	"testing"
	"time"
)

// TestSchedulerOrder verifies deadline order with ties in scheduling order
func TestSchedulerOrder(t *testing.T) {
	s := newScheduler(testRate)
	var got []string

	s.after(2*time.Second, func() { got = append(got, "c") })
	s.after(time.Second, func() { got = append(got, "a") })
	s.after(time.Second, func() { got = append(got, "b") })

	s.advance(s.rate.N(time.Second))
	if n := s.fireDue(); n != 2 {
		t.Errorf("Expected 2 fired, got %d", n)
	}
	s.advance(s.rate.N(time.Second))
	s.fireDue()

	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

// TestTimerStop verifies a stopped timer never fires and Stop reports state
func TestTimerStop(t *testing.T) {
	s := newScheduler(testRate)
	fired := false
	tm := s.after(time.Second, func() { fired = true })

	if !tm.Pending() {
		t.Error("Expected pending timer")
	}
	if !tm.Stop() {
		t.Error("Expected first Stop to return true")
	}
	if tm.Stop() {
		t.Error("Expected second Stop to return false")
	}

	s.advance(s.rate.N(2 * time.Second))
	s.fireDue()
	if fired {
		t.Error("Expected stopped timer not to fire")
	}

	var nilTimer *timer
	if nilTimer.Stop() || nilTimer.Pending() {
		t.Error("Expected nil timer to be inert")
	}
}

// TestTimerFiresOnce verifies Stop after firing is a no-op
func TestTimerFiresOnce(t *testing.T) {
	s := newScheduler(testRate)
	count := 0
	tm := s.after(0, func() { count++ })

	s.fireDue()
	s.fireDue()
	if count != 1 {
		t.Errorf("Expected 1 fire, got %d", count)
	}
	if tm.Stop() {
		t.Error("Expected Stop on fired timer to return false")
	}
}

// TestSchedulerCascade verifies callbacks scheduling due work run in the same pass
func TestSchedulerCascade(t *testing.T) {
	s := newScheduler(testRate)
	var got []int
	s.after(0, func() {
		got = append(got, 1)
		s.after(0, func() { got = append(got, 2) })
	})

	if n := s.fireDue(); n != 2 {
		t.Errorf("Expected 2 fired, got %d", n)
	}
	if !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("Expected [1 2], got %v", got)
	}
}

// TestSchedulerStopMiddle verifies heap integrity after removing an inner timer
func TestSchedulerStopMiddle(t *testing.T) {
	s := newScheduler(testRate)
	var got []int
	timers := make([]*timer, 5)
	for i := range timers {
		i := i
		timers[i] = s.atFrame(int64(10*(i+1)), func() { got = append(got, i) })
	}
	timers[2].Stop()
	timers[0].Stop()

	if s.pending() != 3 {
		t.Errorf("Expected 3 pending, got %d", s.pending())
	}
	if next, ok := s.nextDeadline(); !ok || next != 20 {
		t.Errorf("Expected next deadline 20, got %d (%v)", next, ok)
	}

	s.advance(100)
	s.fireDue()
	if !reflect.DeepEqual(got, []int{1, 3, 4}) {
		t.Errorf("Expected [1 3 4], got %v", got)
	}
}

// TestSchedulerClear verifies clear drops timers without running them
func TestSchedulerClear(t *testing.T) {
	s := newScheduler(testRate)
	fired := false
	tm := s.after(0, func() { fired = true })
	s.clear()
	s.fireDue()

	if fired || tm.Pending() || s.pending() != 0 {
		t.Error("Expected cleared scheduler to be empty and inert")
	}
	if s.elapsed() != 0 {
		t.Errorf("Expected elapsed 0, got %v", s.elapsed())
	}
}
