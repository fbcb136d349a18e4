package particles_test

import (
	"sync"

	"github.com/san-kum/ambient/internal/particles"
)

type circle struct {
	X, Y, R float64
	Color   string
	Alpha   float64
}

type recordingSurface struct {
	w, h    float64
	clears  int
	circles []circle
}

func (s *recordingSurface) Clear() {
	s.clears++
	s.circles = s.circles[:0]
}

func (s *recordingSurface) FillCircle(x, y, r float64, color string, alpha float64) {
	s.circles = append(s.circles, circle{x, y, r, color, alpha})
}

func (s *recordingSurface) Size() (float64, float64) { return s.w, s.h }

// manualFrames is a FrameSource driven by the test.
type manualFrames struct {
	mu      sync.Mutex
	subs    map[int]func(float64)
	next    int
	cancels int
}

func newManualFrames() *manualFrames {
	return &manualFrames{subs: make(map[int]func(float64))}
}

func (m *manualFrames) Subscribe(fn func(float64)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			m.cancels++
		}
	}
}

func (m *manualFrames) Frame() {
	m.mu.Lock()
	subs := make([]func(float64), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()
	for _, fn := range subs {
		fn(1)
	}
}

func (m *manualFrames) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// still builds a single-particle field with the particle at rest at (x, y).
func still(x, y float64, opts ...particles.Option) *particles.Field {
	opts = append([]particles.Option{particles.WithSeed(7), particles.WithFlicker(0)}, opts...)
	f, err := particles.New(1, particles.Bounds{Width: 1000, Height: 1000}, opts...)
	if err != nil {
		panic(err)
	}
	if err := f.Place(0, particles.Particle{X: x, Y: y, Life: 1}); err != nil {
		panic(err)
	}
	return f
}
