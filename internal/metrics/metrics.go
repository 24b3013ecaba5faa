// Package metrics summarizes simulator runs. Every metric is a
// sim.Observer that can be attached to a Simulator before it runs.
package metrics

import (
	"sort"

	"github.com/san-kum/dyngraph/internal/sim"
)

type Metric interface {
	sim.Observer
	Name() string
	Value() float64
	Reset()
}

// Summary collects the current value of every metric by name.
func Summary(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

// Names returns the metric names in sorted order.
func Names(ms []Metric) []string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name()
	}
	sort.Strings(names)
	return names
}
