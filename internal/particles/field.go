package particles

import (
	"math"
	"math/rand"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

const lifeFloor = 0.25

// Bounds is the field area in field units, with the origin at top-left.
type Bounds struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

func (b Bounds) Empty() bool { return b.Width <= 0 || b.Height <= 0 }

func (b Bounds) validate() error {
	if !finite(b.Width) || b.Width < 0 {
		return &ArgError{Arg: "width", Value: b.Width}
	}
	if !finite(b.Height) || b.Height < 0 {
		return &ArgError{Arg: "height", Value: b.Height}
	}
	return nil
}

// Particle is one point of the field. Life doubles as its draw opacity.
type Particle struct {
	ID     int     `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Radius float64 `json:"r"`
	Color  string  `json:"c"`
	Life   float64 `json:"l"`
}

func (p Particle) Speed() float64 {
	return math.Hypot(p.VX, p.VY)
}

// FrameSource delivers one callback per display frame.
type FrameSource interface {
	Subscribe(fn func(dt float64)) (cancel func())
}

// Field is a set of particles drawn toward an optional pointer. It is safe
// for concurrent use.
type Field struct {
	mu        sync.Mutex
	opts      Options
	bounds    Bounds
	rng       *rand.Rand
	particles []Particle
	lifeRate  []float64
	px, py    float64
	active    bool
	steps     int
	cancel    func()
	disposed  bool
}

// New creates a field of count particles scattered over bounds. Zero count
// or zero-area bounds are legal and produce a field whose steps do nothing.
func New(count int, bounds Bounds, opts ...Option) (*Field, error) {
	if count < 0 {
		return nil, &ArgError{Arg: "count", Value: float64(count)}
	}
	if err := bounds.validate(); err != nil {
		return nil, err
	}
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	if len(o.Palette) == 0 {
		o.Palette = DefaultPalette()
	}

	f := &Field{
		opts:      o,
		bounds:    bounds,
		rng:       rand.New(rand.NewSource(o.seed())),
		particles: make([]Particle, count),
		lifeRate:  make([]float64, count),
	}
	for i := range f.particles {
		f.particles[i] = f.spawn(i)
		f.lifeRate[i] = o.Flicker * (0.5 + f.rng.Float64())
		if f.rng.Intn(2) == 0 {
			f.lifeRate[i] = -f.lifeRate[i]
		}
	}
	return f, nil
}

func (f *Field) spawn(id int) Particle {
	o := f.opts
	return Particle{
		ID:     id,
		X:      f.rng.Float64() * f.bounds.Width,
		Y:      f.rng.Float64() * f.bounds.Height,
		VX:     (f.rng.Float64()*2 - 1) * o.MaxSpeed,
		VY:     (f.rng.Float64()*2 - 1) * o.MaxSpeed,
		Radius: o.MinSize + f.rng.Float64()*(o.MaxSize-o.MinSize),
		Color:  o.Palette[f.rng.Intn(len(o.Palette))],
		Life:   lifeFloor + f.rng.Float64()*(1-lifeFloor),
	}
}

// SetPointer moves the attractor. Coordinates are in field units.
func (f *Field) SetPointer(x, y float64, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !finite(x) || !finite(y) {
		active = false
	}
	f.px, f.py, f.active = x, y, active
}

func (f *Field) Pointer() (x, y float64, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.px, f.py, f.active
}

// Step advances the simulation by one frame. dt scales the frame; values
// that are not positive count as a whole frame.
func (f *Field) Step(dt float64) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		dt = 1
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.steps++
	if len(f.particles) == 0 || f.bounds.Empty() {
		return
	}

	o := f.opts
	pointer := mgl64.Vec2{f.px, f.py}
	for i := range f.particles {
		p := &f.particles[i]

		if f.active && o.InteractionRadius > 0 {
			d := pointer.Sub(mgl64.Vec2{p.X, p.Y})
			dist := d.Len()
			if dist > 0 && dist < o.InteractionRadius {
				force := (o.InteractionRadius - dist) / o.InteractionRadius * o.Attraction
				dv := d.Mul(force * dt / dist)
				p.VX += dv.X()
				p.VY += dv.Y()
			}
		}

		p.X += p.VX * dt
		p.Y += p.VY * dt

		p.X, p.VX = bounce(p.X, p.VX, f.bounds.Width, o.Damping)
		p.Y, p.VY = bounce(p.Y, p.VY, f.bounds.Height, o.Damping)

		p.VX *= o.Friction
		p.VY *= o.Friction

		f.flicker(i)
	}
}

// bounce clamps pos into [0, max]. A crossing sends the velocity back
// inward, scaled by damping.
func bounce(pos, vel, max, damping float64) (float64, float64) {
	switch {
	case pos < 0 || math.IsNaN(pos):
		return 0, math.Abs(vel) * damping
	case pos > max:
		return max, -math.Abs(vel) * damping
	}
	return pos, vel
}

func (f *Field) flicker(i int) {
	rate := f.lifeRate[i]
	if rate == 0 {
		return
	}
	p := &f.particles[i]
	p.Life += rate
	switch {
	case p.Life >= 1:
		p.Life = 1
		f.lifeRate[i] = -math.Abs(rate)
	case p.Life <= lifeFloor:
		p.Life = lifeFloor
		f.lifeRate[i] = math.Abs(rate)
	}
}

// Particles returns a copy of the current particles in ID order.
func (f *Field) Particles() []Particle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Particle(nil), f.particles...)
}

// Place overwrites particle i, keeping its ID. A non-positive radius keeps
// the current one.
func (f *Field) Place(i int, p Particle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.particles) {
		return ErrIndex
	}
	p.ID = f.particles[i].ID
	if !(p.Radius > 0) {
		p.Radius = f.particles[i].Radius
	}
	if p.Color == "" {
		p.Color = f.particles[i].Color
	}
	p.Life = math.Max(0, math.Min(1, p.Life))
	f.particles[i] = p
	return nil
}

func (f *Field) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.particles)
}

func (f *Field) Bounds() Bounds {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bounds
}

func (f *Field) Options() Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.opts
	o.Palette = append([]string(nil), f.opts.Palette...)
	return o
}

// Tune swaps the physics constants of a running field. Palette and seed
// only affect construction and are ignored.
func (f *Field) Tune(o Options) error {
	if err := o.validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts.InteractionRadius = o.InteractionRadius
	f.opts.Attraction = o.Attraction
	f.opts.Damping = o.Damping
	f.opts.Friction = o.Friction
	return nil
}

// Resize changes the bounds and clamps every particle into them.
func (f *Field) Resize(b Bounds) error {
	if err := b.validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bounds = b
	for i := range f.particles {
		p := &f.particles[i]
		p.X = math.Max(0, math.Min(b.Width, p.X))
		p.Y = math.Max(0, math.Min(b.Height, p.Y))
	}
	return nil
}

// Steps counts calls to Step.
func (f *Field) Steps() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.steps
}

// Attach steps and renders the field on every frame from src until Dispose.
// Attaching again replaces the previous subscription.
func (f *Field) Attach(src FrameSource, s Surface) error {
	f.mu.Lock()
	if f.disposed {
		f.mu.Unlock()
		return ErrDisposed
	}
	prev := f.cancel
	f.cancel = nil
	f.mu.Unlock()

	if prev != nil {
		prev()
	}

	cancel := src.Subscribe(func(dt float64) {
		f.Step(dt)
		if s != nil {
			f.Render(s)
		}
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.disposed {
		cancel()
		return ErrDisposed
	}
	f.cancel = cancel
	return nil
}

// Dispose releases the frame subscription. It is safe to call repeatedly.
func (f *Field) Dispose() {
	f.mu.Lock()
	if f.disposed {
		f.mu.Unlock()
		return
	}
	f.disposed = true
	cancel := f.cancel
	f.cancel = nil
	f.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (f *Field) Disposed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disposed
}

// Repaint recolours every particle from palette, cycling by ID. An empty
// palette restores the default.
func (f *Field) Repaint(palette ...string) {
	if len(palette) == 0 {
		palette = DefaultPalette()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts.Palette = append([]string(nil), palette...)
	for i := range f.particles {
		f.particles[i].Color = palette[f.particles[i].ID%len(palette)]
	}
}
