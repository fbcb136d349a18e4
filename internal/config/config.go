package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/san-kum/ambient/internal/events"
	"github.com/san-kum/ambient/internal/particles"
	"gopkg.in/yaml.v3"
)

const (
	DefaultCount          = 120
	DefaultWidth          = 800.0
	DefaultHeight         = 400.0
	DefaultFPS            = 60
	DefaultTheme          = "hero"
	DefaultAddr           = "127.0.0.1:8090"
	DefaultStreamInterval = 33 * time.Millisecond
	DefaultConcurrency    = 1
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Field   FieldConfig   `yaml:"field"`
	Loader  LoaderConfig  `yaml:"loader"`
	Render  RenderConfig  `yaml:"render"`
	Preload PreloadConfig `yaml:"preload"`
	Stream  StreamConfig  `yaml:"stream"`
}

type FieldConfig struct {
	Count             int     `yaml:"count"`
	Width             float64 `yaml:"width"`
	Height            float64 `yaml:"height"`
	particles.Options `yaml:",inline"`
}

type LoaderConfig struct {
	Eager    bool     `yaml:"eager"`
	Triggers []string `yaml:"triggers"`
	// ImportDelay and FailFirst shape the bundled runtime import so the
	// deferred path is visible in demos.
	ImportDelay time.Duration `yaml:"import_delay"`
	FailFirst   int           `yaml:"fail_first"`
}

type RenderConfig struct {
	FPS      int    `yaml:"fps"`
	Theme    string `yaml:"theme"`
	Headline string `yaml:"headline"`
	Tagline  string `yaml:"tagline"`
}

type PreloadConfig struct {
	Resources   []string      `yaml:"resources"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
}

type StreamConfig struct {
	Addr     string        `yaml:"addr"`
	Interval time.Duration `yaml:"interval"`
}

func DefaultConfig() *Config {
	opts := particles.DefaultOptions()
	return &Config{
		Field: FieldConfig{
			Count:   DefaultCount,
			Width:   DefaultWidth,
			Height:  DefaultHeight,
			Options: opts,
		},
		Loader: LoaderConfig{
			Triggers:    triggerNames(events.DefaultTriggers()),
			ImportDelay: 400 * time.Millisecond,
		},
		Render: RenderConfig{
			FPS:      DefaultFPS,
			Theme:    DefaultTheme,
			Headline: "Building calm, fast interfaces",
			Tagline:  "move the pointer or press a key",
		},
		Preload: PreloadConfig{
			Concurrency: DefaultConcurrency,
			Timeout:     10 * time.Second,
		},
		Stream: StreamConfig{
			Addr:     DefaultAddr,
			Interval: DefaultStreamInterval,
		},
	}
}

func triggerNames(names []events.Name) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(path, data)
}

func parse(path string, data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch {
	case c.Field.Count < 0:
		return fmt.Errorf("%w: field.count %d", ErrInvalid, c.Field.Count)
	case c.Field.Width < 0 || c.Field.Height < 0:
		return fmt.Errorf("%w: field size %gx%g", ErrInvalid, c.Field.Width, c.Field.Height)
	case c.Render.FPS <= 0:
		return fmt.Errorf("%w: render.fps %d", ErrInvalid, c.Render.FPS)
	case c.Preload.Concurrency < 0:
		return fmt.Errorf("%w: preload.concurrency %d", ErrInvalid, c.Preload.Concurrency)
	case c.Loader.FailFirst < 0:
		return fmt.Errorf("%w: loader.fail_first %d", ErrInvalid, c.Loader.FailFirst)
	}
	if _, err := c.TriggerEvents(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// TriggerEvents parses loader.triggers; an empty list means the defaults.
func (c *Config) TriggerEvents() ([]events.Name, error) {
	if len(c.Loader.Triggers) == 0 {
		return events.DefaultTriggers(), nil
	}
	out := make([]events.Name, 0, len(c.Loader.Triggers))
	for _, s := range c.Loader.Triggers {
		n, err := events.ParseName(s)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (c *Config) Bounds() particles.Bounds {
	return particles.Bounds{Width: c.Field.Width, Height: c.Field.Height}
}

// NewField builds the particle field this config describes.
func (c *Config) NewField() (*particles.Field, error) {
	return particles.New(c.Field.Count, c.Bounds(), particles.WithOptions(c.Field.Options))
}

func (c *Config) Clone() *Config {
	out := *c
	out.Field.Palette = append([]string(nil), c.Field.Palette...)
	out.Loader.Triggers = append([]string(nil), c.Loader.Triggers...)
	out.Preload.Resources = append([]string(nil), c.Preload.Resources...)
	return &out
}
