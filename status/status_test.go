package status

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestMetricMapGetReturnsSamePointer(t *testing.T) {
	m := NewMetricMap[atomic.Int64]()
	a := m.Get("cache.hits")
	b := m.Get("cache.hits")
	if a != b {
		t.Fatal("Expected cached pointer on second Get")
	}
	if _, ok := m.Lookup("cache.misses"); ok {
		t.Error("Expected Lookup to not register a metric")
	}
	if m.Count() != 1 {
		t.Errorf("Expected 1 metric, got %d", m.Count())
	}
}

func TestMetricMapConcurrentGet(t *testing.T) {
	m := NewMetricMap[atomic.Int64]()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Get("shared").Add(1)
		}()
	}
	wg.Wait()

	if got := m.Get("shared").Load(); got != 16 {
		t.Errorf("Expected 16, got %d", got)
	}
}

func TestAtomicFloatAdd(t *testing.T) {
	var f AtomicFloat
	f.Set(0.25)
	if got := f.Add(0.5); got != 0.75 {
		t.Errorf("Expected 0.75, got %v", got)
	}
}

func TestAtomicStringTruncates(t *testing.T) {
	var s AtomicString
	if s.Load() != "" {
		t.Error("Expected empty zero value")
	}
	long := make([]byte, MaxLabelLen+10)
	for i := range long {
		long[i] = 'x'
	}
	s.Store(string(long))
	if len(s.Load()) != MaxLabelLen {
		t.Errorf("Expected length %d, got %d", MaxLabelLen, len(s.Load()))
	}
}

func TestRegistrySnapshotSorted(t *testing.T) {
	r := NewRegistry()
	r.Ints.Get("b.count").Store(3)
	r.Strings.Get("a.label").Store("rain")
	r.Bools.Get("c.flag").Store(true)
	r.Floats.Get("d.level").Set(0.5)

	snap := r.Snapshot()
	want := []Metric{
		{"a.label", "rain"},
		{"b.count", "3"},
		{"c.flag", "true"},
		{"d.level", "0.500"},
	}
	if len(snap) != len(want) {
		t.Fatalf("Expected %d metrics, got %d", len(want), len(snap))
	}
	for i := range want {
		if snap[i] != want[i] {
			t.Errorf("Metric %d: expected %v, got %v", i, want[i], snap[i])
		}
	}

	if got := r.String(); got != "a.label=rain b.count=3 c.flag=true d.level=0.500" {
		t.Errorf("Unexpected String(): %q", got)
	}
}
