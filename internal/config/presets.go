package config

import "sort"

type preset func(c *Config)

var Presets = map[string]preset{
	"hero": func(c *Config) {},
	"calm": func(c *Config) {
		c.Field.Count = 60
		c.Field.Attraction = 0.2
		c.Field.Friction = 0.995
		c.Field.MaxSpeed = 0.4
	},
	"swarm": func(c *Config) {
		c.Field.Count = 400
		c.Field.InteractionRadius = 220
		c.Field.Attraction = 0.9
		c.Field.MaxSpeed = 2
	},
	"sparse": func(c *Config) {
		c.Field.Count = 25
		c.Field.MinSize = 2
		c.Field.MaxSize = 5
		c.Field.Flicker = 0.02
	},
	"bouncy": func(c *Config) {
		c.Field.Damping = 1
		c.Field.Friction = 1
		c.Field.MaxSpeed = 3
	},
	"eager": func(c *Config) {
		c.Loader.Eager = true
		c.Loader.ImportDelay = 0
	},
	"flaky": func(c *Config) {
		c.Loader.FailFirst = 2
	},
}

// GetPreset returns a fresh config with the named preset applied, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
