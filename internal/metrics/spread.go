package metrics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/ambient/internal/particles"
)

// Spread averages the mean distance of particles from their centroid. It
// drops while a pointer gathers the field and recovers once it leaves.
type Spread struct {
	mean
}

func NewSpread() *Spread { return &Spread{} }

func (s *Spread) Name() string { return "spread" }

func (s *Spread) Observe(ps []particles.Particle) {
	if len(ps) == 0 {
		return
	}
	s.add(Dispersion(ps))
}

func (s *Spread) Value() float64 { return s.value() }
func (s *Spread) Reset()         { s.reset() }

func Dispersion(ps []particles.Particle) float64 {
	if len(ps) == 0 {
		return 0
	}
	var c mgl64.Vec2
	for _, p := range ps {
		c = c.Add(mgl64.Vec2{p.X, p.Y})
	}
	c = c.Mul(1 / float64(len(ps)))

	var sum float64
	for _, p := range ps {
		sum += mgl64.Vec2{p.X, p.Y}.Sub(c).Len()
	}
	return sum / float64(len(ps))
}
