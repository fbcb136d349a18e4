package motion

import (
	"math"
	"sync"
)

// Static is a constant Value.
type Static float64

func (s Static) Get() float64 { return float64(s) }

// ScrollValue is a settable progress value clamped to [0, 1].
type ScrollValue struct {
	mu sync.RWMutex
	v  float64
}

func (s *ScrollValue) Set(v float64) {
	if math.IsNaN(v) {
		return
	}
	s.mu.Lock()
	s.v = math.Max(0, math.Min(1, v))
	s.mu.Unlock()
}

func (s *ScrollValue) Get() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v
}

// interpolate maps x through the piecewise-linear curve input -> output,
// clamping at both ends. Mismatched or empty ranges yield 0.
func interpolate(x float64, input, output []float64) float64 {
	if len(input) == 0 || len(input) != len(output) {
		return 0
	}
	if len(input) == 1 || x <= input[0] {
		return output[0]
	}
	last := len(input) - 1
	if x >= input[last] {
		return output[last]
	}
	for i := 1; i <= last; i++ {
		if x > input[i] {
			continue
		}
		span := input[i] - input[i-1]
		if span == 0 {
			return output[i]
		}
		t := (x - input[i-1]) / span
		return output[i-1] + t*(output[i]-output[i-1])
	}
	return output[last]
}
