package status

import (
	"math"
	"sync/atomic"
)

// AtomicFloat is a float64 stored as bits; the zero value reads 0
type AtomicFloat struct {
	bits atomic.Uint64
}

func (f *AtomicFloat) Set(v float64) {
	f.bits.Store(math.Float64bits(v))
}

func (f *AtomicFloat) Get() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Add applies delta with a CAS loop and returns the new value
func (f *AtomicFloat) Add(delta float64) float64 {
	for {
		old := f.bits.Load()
		next := math.Float64frombits(old) + delta
		if f.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return next
		}
	}
}

// MaxLabelLen bounds AtomicString values so status lines stay one row
const MaxLabelLen = 48

// AtomicString is a swappable label; the zero value reads ""
type AtomicString struct {
	ptr atomic.Pointer[string]
}

// Store sets the label, truncated to MaxLabelLen bytes
func (s *AtomicString) Store(v string) {
	if len(v) > MaxLabelLen {
		v = v[:MaxLabelLen]
	}
	s.ptr.Store(&v)
}

func (s *AtomicString) Load() string {
	if p := s.ptr.Load(); p != nil {
		return *p
	}
	return ""
}
