package metrics

import "github.com/san-kum/ambient/internal/particles"

// Metric accumulates a scalar over successive field snapshots.
type Metric interface {
	Name() string
	Observe(ps []particles.Particle)
	Value() float64
	Reset()
}

// Default returns one fresh instance of every built-in metric.
func Default() []Metric {
	return []Metric{
		NewKineticEnergy(),
		NewMeanSpeed(),
		NewMaxSpeed(),
		NewSpread(),
	}
}

// Lookup returns a fresh metric by name, or nil.
func Lookup(name string) Metric {
	for _, m := range Default() {
		if m.Name() == name {
			return m
		}
	}
	return nil
}

func Names() []string {
	ms := Default()
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Name()
	}
	return out
}

// Snapshot evaluates metric name on a single snapshot.
func Snapshot(name string, ps []particles.Particle) (float64, bool) {
	m := Lookup(name)
	if m == nil {
		return 0, false
	}
	m.Observe(ps)
	return m.Value(), true
}

// mean is the running average shared by the per-snapshot metrics.
type mean struct {
	total   float64
	samples int
}

func (m *mean) add(v float64) {
	m.total += v
	m.samples++
}

func (m *mean) value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *mean) reset() {
	m.total = 0
	m.samples = 0
}
