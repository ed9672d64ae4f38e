package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lull-app/lull/internal/tui/styles"
)

// RenderLevelBar renders a horizontal 0..100 level as width segments with
// the dim-to-bright gradient. Zero renders as an empty track.
func RenderLevelBar(level, width int) string {
	if width <= 0 {
		return ""
	}
	if level < 0 {
		level = 0
	} else if level > 100 {
		level = 100
	}

	segments := (level * width) / 100
	if level > 0 && segments == 0 {
		segments = 1
	}

	var b strings.Builder
	for i := 1; i <= width; i++ {
		if i <= segments {
			color := styles.GetLevelColor(i, width)
			b.WriteString(lipgloss.NewStyle().Foreground(color).Render("█"))
		} else {
			b.WriteString(styles.StyleBarEmpty.Render("─"))
		}
	}
	return b.String()
}

// RenderGainColumn renders a vertical equalizer column for a gain in
// [-limit, limit] dB, height rows tall. The midpoint row marks 0dB; positive
// gain fills upward, negative downward.
func RenderGainColumn(gain, limit float64, height int) []string {
	if height < 3 {
		height = 3
	}
	if limit <= 0 {
		limit = 1
	}
	if gain > limit {
		gain = limit
	} else if gain < -limit {
		gain = -limit
	}

	mid := height / 2
	span := mid // rows available on each side of center
	filled := int(gain / limit * float64(span))

	rows := make([]string, height)
	for row := 0; row < height; row++ {
		// distance above center; negative below
		offset := mid - row
		switch {
		case offset == 0:
			rows[row] = styles.StyleTextMuted.Render("┼")
		case offset > 0 && filled >= offset:
			color := styles.GetLevelColor(offset, span)
			rows[row] = lipgloss.NewStyle().Foreground(color).Render("█")
		case offset < 0 && filled <= offset:
			rows[row] = lipgloss.NewStyle().Foreground(styles.ColorInfo).Render("█")
		default:
			rows[row] = styles.StyleBarEmpty.Render("·")
		}
	}
	return rows
}
