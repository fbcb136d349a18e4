package particles

import (
	"math"
	"time"
)

const (
	DefaultInteractionRadius = 150.0
	DefaultAttraction        = 0.5
	DefaultDamping           = 0.8
	DefaultFriction          = 0.99
	DefaultMinSize           = 1.0
	DefaultMaxSize           = 3.0
	DefaultMaxSpeed          = 1.0
	DefaultFlicker           = 0.01
)

type Options struct {
	InteractionRadius float64  `yaml:"interaction_radius"`
	Attraction        float64  `yaml:"attraction"`
	Damping           float64  `yaml:"damping"`
	Friction          float64  `yaml:"friction"`
	MinSize           float64  `yaml:"min_size"`
	MaxSize           float64  `yaml:"max_size"`
	MaxSpeed          float64  `yaml:"max_speed"` // initial speed per axis
	Flicker           float64  `yaml:"flicker"`   // life change per step, 0 disables
	Palette           []string `yaml:"palette"`
	Seed              int64    `yaml:"seed"` // 0 picks a time-based seed
}

func DefaultOptions() Options {
	return Options{
		InteractionRadius: DefaultInteractionRadius,
		Attraction:        DefaultAttraction,
		Damping:           DefaultDamping,
		Friction:          DefaultFriction,
		MinSize:           DefaultMinSize,
		MaxSize:           DefaultMaxSize,
		MaxSpeed:          DefaultMaxSpeed,
		Flicker:           DefaultFlicker,
		Palette:           DefaultPalette(),
	}
}

type Option func(*Options)

// WithOptions replaces every option at once; later options still apply.
func WithOptions(o Options) Option {
	return func(dst *Options) {
		palette := append([]string(nil), o.Palette...)
		*dst = o
		dst.Palette = palette
	}
}

func WithRadius(r float64) Option { return func(o *Options) { o.InteractionRadius = r } }
func WithAttraction(c float64) Option { return func(o *Options) { o.Attraction = c } }
func WithDamping(d float64) Option { return func(o *Options) { o.Damping = d } }
func WithFriction(f float64) Option { return func(o *Options) { o.Friction = f } }
func WithMaxSpeed(s float64) Option { return func(o *Options) { o.MaxSpeed = s } }
func WithFlicker(rate float64) Option { return func(o *Options) { o.Flicker = rate } }
func WithSeed(seed int64) Option { return func(o *Options) { o.Seed = seed } }
func WithPalette(c ...string) Option { return func(o *Options) { o.Palette = append([]string(nil), c...) } }
func WithSizeRange(min, max float64) Option {
	return func(o *Options) { o.MinSize, o.MaxSize = min, max }
}

func (o Options) validate() error {
	checks := []struct {
		name string
		v    float64
		ok   bool
	}{
		{"interaction radius", o.InteractionRadius, o.InteractionRadius >= 0},
		{"attraction", o.Attraction, o.Attraction >= 0},
		{"damping", o.Damping, o.Damping >= 0 && o.Damping <= 1},
		{"friction", o.Friction, o.Friction >= 0 && o.Friction <= 1},
		{"min size", o.MinSize, o.MinSize > 0},
		{"max size", o.MaxSize, o.MaxSize >= o.MinSize},
		{"max speed", o.MaxSpeed, o.MaxSpeed >= 0},
		{"flicker", o.Flicker, o.Flicker >= 0 && o.Flicker <= 1},
	}
	for _, c := range checks {
		if !c.ok || !finite(c.v) {
			return &ArgError{Arg: c.name, Value: c.v}
		}
	}
	return nil
}

func (o Options) seed() int64 {
	if o.Seed != 0 {
		return o.Seed
	}
	return time.Now().UnixNano()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
