package components

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestRenderLevelBarWidth(t *testing.T) {
	for _, level := range []int{0, 1, 50, 100, 150, -10} {
		bar := RenderLevelBar(level, 10)
		assert.Equal(t, 10, lipgloss.Width(bar), "level %d", level)
	}
	assert.Equal(t, "", RenderLevelBar(50, 0))
}

func TestRenderGainColumnHeight(t *testing.T) {
	for _, gain := range []float64{-12, -3, 0, 3, 12, 40} {
		rows := RenderGainColumn(gain, 12, 9)
		assert.Len(t, rows, 9, "gain %f", gain)
	}
}

func TestRenderGainColumnCenterline(t *testing.T) {
	rows := RenderGainColumn(0, 12, 9)
	// flat gain leaves only the 0dB mark filled
	assert.Contains(t, rows[4], "┼")
}
