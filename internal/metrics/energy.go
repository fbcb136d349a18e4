package metrics

import "github.com/san-kum/ambient/internal/particles"

// KineticEnergy averages the per-particle ½(vx²+vy²) across snapshots.
type KineticEnergy struct {
	mean
}

func NewKineticEnergy() *KineticEnergy { return &KineticEnergy{} }

func (e *KineticEnergy) Name() string { return "energy" }

func (e *KineticEnergy) Observe(ps []particles.Particle) {
	if len(ps) == 0 {
		return
	}
	e.add(Kinetic(ps))
}

func (e *KineticEnergy) Value() float64 { return e.value() }
func (e *KineticEnergy) Reset()         { e.reset() }

// Kinetic is the mean kinetic energy of one snapshot, unit mass.
func Kinetic(ps []particles.Particle) float64 {
	if len(ps) == 0 {
		return 0
	}
	var sum float64
	for _, p := range ps {
		sum += 0.5 * (p.VX*p.VX + p.VY*p.VY)
	}
	return sum / float64(len(ps))
}
