package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lull-app/lull/internal/tui/styles"
)

// RenderHeader renders the application header with a right-aligned status.
func RenderHeader(width int, title, status string) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.ColorText).
		Background(styles.ColorPrimary).
		Padding(0, 1)

	statusStyle := lipgloss.NewStyle().
		Foreground(styles.ColorSuccess).
		Padding(0, 1)

	if status == "" {
		status = "Offline"
		statusStyle = statusStyle.Foreground(styles.ColorTextDim)
	}

	left := titleStyle.Render(" " + title + " ")
	right := statusStyle.Render(status)

	spacing := width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacing < 0 {
		spacing = 0
	}

	headerBg := lipgloss.NewStyle().
		Background(styles.ColorSurface).
		Width(width)

	return headerBg.Render(left + strings.Repeat(" ", spacing) + right)
}
