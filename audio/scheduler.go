package audio

import (
	"container/heap"
	"time"

	"github.com/gopxl/beep"
)

// timer is a one-shot callback due at a frame on the output timeline
// Callbacks run on the render path with the engine lock held
type timer struct {
	at    int64
	seq   uint64
	fn    func()
	owner *scheduler
	index int // heap index, -1 once fired or stopped
}

// Stop cancels the timer, returns false if it already fired or was stopped
// Safe on a nil timer
func (t *timer) Stop() bool {
	if t == nil || t.index < 0 || t.owner == nil {
		return false
	}
	heap.Remove(&t.owner.queue, t.index)
	return true
}

// Pending reports whether the timer is still queued
func (t *timer) Pending() bool {
	return t != nil && t.index >= 0
}

// timerQueue orders timers by deadline, then by scheduling order
type timerQueue []*timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*timer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

// scheduler is the timing controller: a frame clock advanced by the render loop plus a timer queue
// All methods assume the engine lock is held
type scheduler struct {
	rate  beep.SampleRate
	now   int64
	seq   uint64
	queue timerQueue
}

func newScheduler(rate beep.SampleRate) *scheduler {
	return &scheduler{rate: rate}
}

// frames converts a duration to frames at the scheduler rate
func (s *scheduler) frames(d time.Duration) int64 {
	return int64(s.rate.N(d))
}

// elapsed returns the timeline position as a duration
func (s *scheduler) elapsed() time.Duration {
	return s.rate.D(int(s.now))
}

// after schedules fn to run once d from now; d <= 0 runs on the next render pass
func (s *scheduler) after(d time.Duration, fn func()) *timer {
	if d < 0 {
		d = 0
	}
	return s.atFrame(s.now+s.frames(d), fn)
}

func (s *scheduler) atFrame(frame int64, fn func()) *timer {
	s.seq++
	t := &timer{at: frame, seq: s.seq, fn: fn, owner: s}
	heap.Push(&s.queue, t)
	return t
}

// nextDeadline returns the earliest pending deadline
func (s *scheduler) nextDeadline() (int64, bool) {
	if len(s.queue) == 0 {
		return 0, false
	}
	return s.queue[0].at, true
}

// fireDue runs every timer due at or before now, including ones scheduled by callbacks
func (s *scheduler) fireDue() int {
	fired := 0
	for len(s.queue) > 0 && s.queue[0].at <= s.now {
		t := heap.Pop(&s.queue).(*timer)
		fired++
		t.fn()
	}
	return fired
}

// advance moves the clock forward; callers fire due timers around it
func (s *scheduler) advance(frames int) {
	s.now += int64(frames)
}

// pending returns the number of queued timers
func (s *scheduler) pending() int {
	return len(s.queue)
}

// clear drops all queued timers without running them
func (s *scheduler) clear() {
	for _, t := range s.queue {
		t.index = -1
	}
	s.queue = s.queue[:0]
}
