package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/ambient/internal/particles"
)

const DefaultBackground = "#0a0a0a"

// SVG renders a field snapshot as circles at field coordinates. Life maps
// to fill-opacity.
func SVG(ps []particles.Particle, b particles.Bounds, background string) string {
	if background == "" {
		background = DefaultBackground
	}
	var sb strings.Builder

	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g>
`, b.Width, b.Height, b.Width, b.Height, background)

	for _, p := range ps {
		fmt.Fprintf(&sb, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s" fill-opacity="%.3f"/>
`, p.X, p.Y, p.Radius, fill(p.Color), p.Life)
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

func fill(c string) string {
	if c == "" {
		return "#ffffff"
	}
	return c
}

// SeriesToSVG draws a metric series as a polyline scaled into width×height.
func SeriesToSVG(values []float64, width, height int, stroke string) string {
	if len(values) < 2 {
		return ""
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	lo -= span * 0.1
	span *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, DefaultBackground, stroke)

	step := float64(width) / float64(len(values)-1)
	for i, v := range values {
		x := float64(i) * step
		y := float64(height) - (v-lo)/span*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
