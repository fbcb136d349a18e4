package scenario

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/ambient/internal/particles"
)

// OrbitPeriod is the number of steps one orbit takes.
const OrbitPeriod = 240

// PointerPath scripts the attractor position for step out of steps.
type PointerPath func(step, steps int, b particles.Bounds) (x, y float64, active bool)

var pointers = map[string]PointerPath{
	"none": func(int, int, particles.Bounds) (float64, float64, bool) {
		return 0, 0, false
	},
	"center": func(_, _ int, b particles.Bounds) (float64, float64, bool) {
		return b.Width / 2, b.Height / 2, true
	},
	"orbit": func(step, _ int, b particles.Bounds) (float64, float64, bool) {
		r := math.Min(b.Width, b.Height) / 4
		theta := 2 * math.Pi * float64(step%OrbitPeriod) / OrbitPeriod
		return b.Width/2 + r*math.Cos(theta), b.Height/2 + r*math.Sin(theta), true
	},
	"sweep": func(step, steps int, b particles.Bounds) (float64, float64, bool) {
		if steps <= 1 {
			return 0, b.Height / 2, true
		}
		return b.Width * float64(step) / float64(steps-1), b.Height / 2, true
	},
}

func LookupPointer(name string) (PointerPath, error) {
	if name == "" {
		name = "none"
	}
	p, ok := pointers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownPointer, name, PointerNames())
	}
	return p, nil
}

func PointerNames() []string {
	names := make([]string, 0, len(pointers))
	for name := range pointers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
