package metrics

import (
	"math"

	"github.com/san-kum/ambient/internal/particles"
)

type MeanSpeed struct {
	mean
}

func NewMeanSpeed() *MeanSpeed { return &MeanSpeed{} }

func (s *MeanSpeed) Name() string { return "mean_speed" }

func (s *MeanSpeed) Observe(ps []particles.Particle) {
	if len(ps) == 0 {
		return
	}
	var sum float64
	for _, p := range ps {
		sum += p.Speed()
	}
	s.add(sum / float64(len(ps)))
}

func (s *MeanSpeed) Value() float64 { return s.value() }
func (s *MeanSpeed) Reset()         { s.reset() }

// MaxSpeed tracks the fastest particle seen since the last reset.
type MaxSpeed struct {
	max float64
}

func NewMaxSpeed() *MaxSpeed { return &MaxSpeed{} }

func (s *MaxSpeed) Name() string { return "max_speed" }

func (s *MaxSpeed) Observe(ps []particles.Particle) {
	for _, p := range ps {
		s.max = math.Max(s.max, p.Speed())
	}
}

func (s *MaxSpeed) Value() float64 { return s.max }
func (s *MaxSpeed) Reset()         { s.max = 0 }
