package status

import (
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
)

// Registry groups engine metrics by value type
// Components fetch their pointers once at construction and write atomics afterwards
type Registry struct {
	Bools   *MetricMap[atomic.Bool]
	Ints    *MetricMap[atomic.Int64]
	Floats  *MetricMap[AtomicFloat]
	Strings *MetricMap[AtomicString]
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		Bools:   NewMetricMap[atomic.Bool](),
		Ints:    NewMetricMap[atomic.Int64](),
		Floats:  NewMetricMap[AtomicFloat](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// Metric is one formatted reading
type Metric struct {
	Name  string
	Value string
}

// Snapshot formats every metric, sorted by name
func (r *Registry) Snapshot() []Metric {
	out := make([]Metric, 0, r.TotalCount())
	r.Bools.Range(func(name string, v *atomic.Bool) {
		out = append(out, Metric{name, strconv.FormatBool(v.Load())})
	})
	r.Ints.Range(func(name string, v *atomic.Int64) {
		out = append(out, Metric{name, strconv.FormatInt(v.Load(), 10)})
	})
	r.Floats.Range(func(name string, v *AtomicFloat) {
		out = append(out, Metric{name, strconv.FormatFloat(v.Get(), 'f', 3, 64)})
	})
	r.Strings.Range(func(name string, v *AtomicString) {
		out = append(out, Metric{name, v.Load()})
	})
	slices.SortFunc(out, func(a, b Metric) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// String renders the snapshot as space separated name=value pairs
func (r *Registry) String() string {
	var sb strings.Builder
	for i, m := range r.Snapshot() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(m.Name)
		sb.WriteByte('=')
		sb.WriteString(m.Value)
	}
	return sb.String()
}

// TotalCount returns the number of metrics across all types
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Floats.Count() + r.Strings.Count()
}
