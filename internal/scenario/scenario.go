// Package scenario drives particle fields headlessly: single scripted runs,
// YAML scenarios of several runs, and parameter sweeps.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/ambient/internal/config"
	"github.com/san-kum/ambient/internal/frame"
	"github.com/san-kum/ambient/internal/metrics"
	"github.com/san-kum/ambient/internal/particles"
	"github.com/san-kum/ambient/internal/storage"
)

var (
	ErrUnknownPointer = errors.New("scenario: unknown pointer path")
	ErrUnknownParam   = errors.New("scenario: unknown parameter")
	ErrUnknownPreset  = errors.New("scenario: unknown preset")
)

// Scenario is a named sequence of runs.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one headless run. Zero fields fall back to the preset, or to the
// defaults when Preset is empty.
type Step struct {
	Preset  string             `yaml:"preset"`
	Pointer string             `yaml:"pointer"`
	Steps   int                `yaml:"steps"`
	Dt      float64            `yaml:"dt"`
	Every   int                `yaml:"every"`
	Count   int                `yaml:"count"`
	Seed    int64              `yaml:"seed"`
	Params  map[string]float64 `yaml:"params"`
	SaveAs  string             `yaml:"save_as"`
}

// Result is what one executed step produced.
type Result struct {
	RunID   string
	Step    Step
	Frames  []storage.Frame
	Metrics map[string]float64
	Elapsed time.Duration
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s: no steps", path)
	}
	return &sc, nil
}

// Config resolves the field configuration for s.
func (s Step) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		if cfg = config.GetPreset(s.Preset); cfg == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, s.Preset)
		}
	}
	if s.Count > 0 {
		cfg.Field.Count = s.Count
	}
	if s.Seed != 0 {
		cfg.Field.Seed = s.Seed
	}
	for name, v := range s.Params {
		if err := SetParam(&cfg.Field.Options, name, v); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

// SetParam assigns a named physics option.
func SetParam(o *particles.Options, name string, v float64) error {
	switch name {
	case "interaction_radius":
		o.InteractionRadius = v
	case "attraction":
		o.Attraction = v
	case "damping":
		o.Damping = v
	case "friction":
		o.Friction = v
	case "max_speed":
		o.MaxSpeed = v
	case "flicker":
		o.Flicker = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return nil
}

// Execute steps field s.Steps times along the pointer path, capturing a
// frame every s.Every steps and every built-in metric on each step. It
// stops early with ctx.Err() when ctx ends.
func Execute(ctx context.Context, field *particles.Field, s Step) (*Result, error) {
	path, err := LookupPointer(s.Pointer)
	if err != nil {
		return nil, err
	}
	if s.Steps < 1 {
		return nil, fmt.Errorf("scenario: steps must be positive, got %d", s.Steps)
	}
	dt := s.Dt
	if dt <= 0 {
		dt = 1
	}

	loop := frame.NewLoop()
	if err := field.Attach(loop, nil); err != nil {
		return nil, err
	}
	rec := storage.NewRecorder(field, s.Every)
	loop.Subscribe(rec.Capture)

	observed := metrics.Default()
	loop.Subscribe(func(float64) {
		ps := field.Particles()
		for _, m := range observed {
			m.Observe(ps)
		}
	})

	b := field.Bounds()
	start := time.Now()
	for i := 0; i < s.Steps; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		x, y, active := path(i, s.Steps, b)
		field.SetPointer(x, y, active)
		loop.Tick(dt)
	}

	summary := make(map[string]float64, len(observed))
	for _, m := range observed {
		summary[m.Name()] = m.Value()
	}
	return &Result{
		Step:    s,
		Frames:  rec.Frames(),
		Metrics: summary,
		Elapsed: time.Since(start),
	}, nil
}

// Save stores r as a run of field and records the run ID on r.
func Save(st *storage.Store, field *particles.Field, r *Result) error {
	dt := r.Step.Dt
	if dt <= 0 {
		dt = 1
	}
	id, err := st.Save(storage.RunMetadata{
		ID:      r.Step.SaveAs,
		Preset:  r.Step.Preset,
		Count:   field.Len(),
		Bounds:  field.Bounds(),
		Steps:   r.Step.Steps,
		Dt:      dt,
		Pointer: r.Step.Pointer,
		Options: field.Options(),
		Metrics: r.Metrics,
	}, r.Frames)
	if err != nil {
		return err
	}
	r.RunID = id
	return nil
}

// Run executes every step of sc in order and saves each into st. Results
// for completed steps are returned alongside any error.
func Run(ctx context.Context, sc *Scenario, st *storage.Store, log *zap.Logger) ([]Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	results := make([]Result, 0, len(sc.Steps))

	for i, step := range sc.Steps {
		log.Info("running step",
			zap.String("scenario", sc.Name),
			zap.Int("step", i+1),
			zap.Int("of", len(sc.Steps)),
			zap.String("preset", step.Preset),
		)

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		field, err := cfg.NewField()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		res, err := Execute(ctx, field, step)
		if err == nil {
			err = Save(st, field, res)
		}
		field.Dispose()
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, *res)
	}

	return results, nil
}
