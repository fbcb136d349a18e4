package motion

import (
	"math"
	"strconv"
	"sync"

	"github.com/charmbracelet/harmonica"
)

const settleEpsilon = 1e-3

type track struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
	target float64
}

func (t *track) step() {
	t.pos, t.vel = t.spring.Update(t.pos, t.vel, t.target)
}

func (t *track) settled() bool {
	return math.Abs(t.pos-t.target) < settleEpsilon && math.Abs(t.vel) < settleEpsilon
}

// Springs is the harmonica-backed runtime. Components ease their numeric
// "animate" props toward the requested targets; every call to Tick advances
// all tracks by one frame.
type Springs struct {
	mu        sync.Mutex
	fps       int
	opts      SpringOptions
	scroll    *ScrollValue
	tracks    map[string]*track
	presence  map[string]*track
	followers []*follower
}

func NewSprings(fps int, opts SpringOptions) *Springs {
	if fps <= 0 {
		fps = 60
	}
	if opts.Frequency <= 0 {
		opts = DefaultSpringOptions()
	}
	return &Springs{
		fps:      fps,
		opts:     opts,
		scroll:   &ScrollValue{},
		tracks:   make(map[string]*track),
		presence: make(map[string]*track),
	}
}

func (s *Springs) newSpring(opts SpringOptions) harmonica.Spring {
	return harmonica.NewSpring(harmonica.FPS(s.fps), opts.Frequency, opts.Damping)
}

// Scroll exposes the settable progress behind ScrollProgress.
func (s *Springs) Scroll() *ScrollValue { return s.scroll }

func (s *Springs) Component(name string) Component {
	return func(props Props, children ...string) Element {
		id := name
		if key, ok := props["key"].(string); ok && key != "" {
			id = name + "#" + key
		} else if key, ok := props["layoutId"].(string); ok && key != "" {
			id = name + "#" + key
		}

		out := StripAnimationProps(props)
		targets := numericTargets(props["animate"])
		if len(targets) == 0 {
			return Element{Kind: name, Props: out, Children: append([]string(nil), children...)}
		}
		initial := numericTargets(props["initial"])
		opts := s.opts
		if tr := numericTargets(props["transition"]); tr != nil {
			if f, ok := tr["frequency"]; ok && f > 0 {
				opts.Frequency = f
			}
			if d, ok := tr["damping"]; ok && d >= 0 {
				opts.Damping = d
			}
		}

		s.mu.Lock()
		for k, target := range targets {
			key := id + "." + k
			tk, ok := s.tracks[key]
			if !ok {
				start := target
				if v, ok := initial[k]; ok {
					start = v
				}
				tk = &track{spring: s.newSpring(opts), pos: start}
				s.tracks[key] = tk
			}
			tk.target = target
			out[k] = tk.pos
		}
		s.mu.Unlock()

		return Element{Kind: name, Props: out, Children: append([]string(nil), children...)}
	}
}

func (s *Springs) ScrollProgress() Value { return s.scroll }

type follower struct {
	mu     sync.Mutex
	src    Value
	spring harmonica.Spring
	pos    float64
	vel    float64
}

func (f *follower) Get() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos
}

func (f *follower) step(target float64) {
	f.mu.Lock()
	f.pos, f.vel = f.spring.Update(f.pos, f.vel, target)
	f.mu.Unlock()
}

func (s *Springs) Spring(source Value, opts SpringOptions) Value {
	if source == nil {
		source = Static(0)
	}
	if opts.Frequency <= 0 {
		opts = s.opts
	}
	f := &follower{src: source, spring: s.newSpring(opts), pos: source.Get()}
	s.mu.Lock()
	s.followers = append(s.followers, f)
	s.mu.Unlock()
	return f
}

type transformed struct {
	src    Value
	input  []float64
	output []float64
}

func (t transformed) Get() float64 {
	return interpolate(t.src.Get(), t.input, t.output)
}

func (s *Springs) Transform(source Value, input, output []float64) Value {
	if source == nil {
		source = Static(0)
	}
	return transformed{
		src:    source,
		input:  append([]float64(nil), input...),
		output: append([]float64(nil), output...),
	}
}

// Presence fades children in when visible and keeps them mounted while they
// fade out. Each child carries its current opacity.
func (s *Springs) Presence(visible bool, children ...Element) []Element {
	target := 0.0
	if visible {
		target = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Element
	for i, child := range children {
		id := "presence:" + child.Kind + "#" + strconv.Itoa(i)
		if key, ok := child.Props["key"].(string); ok && key != "" {
			id = "presence:" + child.Kind + "#" + key
		}
		tk, ok := s.presence[id]
		if !ok {
			if !visible {
				continue
			}
			tk = &track{spring: s.newSpring(s.opts)}
			s.presence[id] = tk
		}
		tk.target = target
		if !visible && tk.settled() {
			delete(s.presence, id)
			continue
		}
		props := make(Props, len(child.Props)+1)
		for k, v := range child.Props {
			props[k] = v
		}
		props["opacity"] = math.Max(0, math.Min(1, tk.pos))
		out = append(out, Element{Kind: child.Kind, Props: props, Children: child.Children})
	}
	return out
}

// Tick advances every track and follower by one frame.
func (s *Springs) Tick() {
	s.mu.Lock()
	for _, tk := range s.tracks {
		tk.step()
	}
	for _, tk := range s.presence {
		tk.step()
	}
	followers := append([]*follower(nil), s.followers...)
	s.mu.Unlock()

	// sources may be followers themselves, so targets are read unlocked
	for _, f := range followers {
		f.step(f.src.Get())
	}
}

// Settled reports whether every component track has reached its target.
func (s *Springs) Settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tk := range s.tracks {
		if !tk.settled() {
			return false
		}
	}
	return true
}
