package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/ambient/internal/motion"
)

var (
	headlineProps = motion.Props{
		"key":        "hero",
		"initial":    motion.Props{"opacity": 0.0, "x": 6.0},
		"animate":    motion.Props{"opacity": 1.0, "x": 0.0},
		"transition": motion.Props{"frequency": 4.0, "damping": 0.7},
	}
	taglineProps = motion.Props{"key": "tagline"}
)

// renderElement draws a motion element as one line of terminal text.
// "opacity" reveals a prefix of the text and "x" indents it by whole cells;
// elements without those props render in full.
func renderElement(el motion.Element, style lipgloss.Style) string {
	runes := []rune(strings.Join(el.Children, " "))
	n := len(runes)
	if op, ok := el.Props["opacity"].(float64); ok {
		n = int(math.Round(math.Max(0, math.Min(1, op)) * float64(len(runes))))
	}
	pad := 0
	if x, ok := el.Props["x"].(float64); ok && x > 0 {
		pad = int(math.Round(x))
	}
	return strings.Repeat(" ", pad) + style.Render(string(runes[:n]))
}
