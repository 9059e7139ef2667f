package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	canvas  lipgloss.Style
	panel   lipgloss.Style
	header  lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	graph   lipgloss.Style
	keyHint lipgloss.Style
	log     lipgloss.Style

	idle   lipgloss.Style
	teleop lipgloss.Style
	auto   lipgloss.Style
	on     lipgloss.Style
	off    lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		canvas: lipgloss.NewStyle().Padding(1, 2).Foreground(t.Text),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(46),
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Muted),
		label:   lipgloss.NewStyle().Foreground(t.Muted).Width(10),
		value:   lipgloss.NewStyle().Foreground(t.Text),
		graph:   lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 0),
		keyHint: lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
		log:     lipgloss.NewStyle().Foreground(t.Warning),

		idle:   lipgloss.NewStyle().Bold(true).Foreground(t.Muted),
		teleop: lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		auto:   lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		on:     lipgloss.NewStyle().Foreground(t.Success),
		off:    lipgloss.NewStyle().Foreground(t.Muted),
	}
}

// ProgressBar renders the share of the autonomous period left.
func ProgressBar(percent float64, width int, s lipgloss.Style) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return s.Render(strings.Repeat("█", filled) + strings.Repeat("░", width-filled))
}

// SensorBar renders a reading in [0, 1] with eighth blocks.
func SensorBar(v float64) string {
	chars := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	idx := int(v * float64(len(chars)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(chars) {
		idx = len(chars) - 1
	}
	return string(chars[idx])
}
