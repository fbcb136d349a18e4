package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styles is the per-theme set used by the hero view.
type styles struct {
	headline lipgloss.Style
	tagline  lipgloss.Style
	panel    lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	graph    lipgloss.Style
	help     lipgloss.Style
	running  lipgloss.Style
	paused   lipgloss.Style
	record   lipgloss.Style
	status   map[string]lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		headline: lipgloss.NewStyle().Bold(true).Foreground(t.Text),
		tagline:  lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(0, 2).
			Width(sidebarWidth),
		label:   lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:   lipgloss.NewStyle().Foreground(t.Text),
		graph:   lipgloss.NewStyle().Foreground(t.Primary),
		help:    lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		running: lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		paused:  lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		record:  lipgloss.NewStyle().Bold(true).Foreground(t.Error).Blink(true),
		status: map[string]lipgloss.Style{
			"not-loaded": lipgloss.NewStyle().Foreground(t.Muted),
			"loading":    lipgloss.NewStyle().Foreground(t.Warning),
			"loaded":     lipgloss.NewStyle().Foreground(t.Success),
			"failed":     lipgloss.NewStyle().Foreground(t.Error),
		},
	}
}

// GradientText colours each rune along a Lab blend between two colours.
func GradientText(text string, from, to string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	cols := gradientN(from, to, len(runes))
	var b strings.Builder
	for i, r := range runes {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(cols[i])).Render(string(r)))
	}
	return b.String()
}

// AnimatedSpinner returns frame of animated spinner
func AnimatedSpinner(frame int) string {
	spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return spinners[frame%len(spinners)]
}
