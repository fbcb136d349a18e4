package particles

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// DefaultPalette is the hero section's cyan to violet range.
func DefaultPalette() []string {
	return []string{"#22d3ee", "#38bdf8", "#818cf8", "#a78bfa", "#e879f9"}
}

// Gradient returns n colours blended in Lab space from one hex colour to
// another.
func Gradient(from, to string, n int) ([]string, error) {
	a, err := colorful.Hex(from)
	if err != nil {
		return nil, fmt.Errorf("particles: bad colour %q: %w", from, err)
	}
	b, err := colorful.Hex(to)
	if err != nil {
		return nil, fmt.Errorf("particles: bad colour %q: %w", to, err)
	}
	if n < 1 {
		return nil, nil
	}
	if n == 1 {
		return []string{a.Hex()}, nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = a.BlendLab(b, float64(i)/float64(n-1)).Clamped().Hex()
	}
	return out, nil
}

// RGBA parses a palette token. Unparseable tokens fall back to white.
func RGBA(token string) (r, g, b uint8) {
	c, err := colorful.Hex(token)
	if err != nil {
		return 255, 255, 255
	}
	return c.Clamped().RGB255()
}
