package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette - muted night theme for a bedtime app
var (
	// Primary colors
	ColorPrimary    = lipgloss.Color("#B794F4") // Lavender
	ColorSecondary  = lipgloss.Color("#9F7AEA") // Darker lavender
	ColorAccent     = lipgloss.Color("#E9D8FD") // Light lavender
	ColorBackground = lipgloss.Color("#1A1A2E") // Dark background
	ColorSurface    = lipgloss.Color("#2D2D44") // Surface color
	ColorSurfaceAlt = lipgloss.Color("#3D3D5C") // Alternate surface

	// Text colors
	ColorText        = lipgloss.Color("#FAFAFA") // Primary text
	ColorTextMuted   = lipgloss.Color("#A0A0B0") // Muted text
	ColorTextDim     = lipgloss.Color("#6B6B80") // Dim text
	ColorTextInverse = lipgloss.Color("#1A1A2E") // Inverse text

	// State colors
	ColorSuccess = lipgloss.Color("#68D391") // Green
	ColorWarning = lipgloss.Color("#F6E05E") // Yellow
	ColorError   = lipgloss.Color("#FC8181") // Red
	ColorInfo    = lipgloss.Color("#63B3ED") // Blue

	// Lights
	ColorLightOn  = lipgloss.Color("#FBBF24") // Warm yellow for on
	ColorLightOff = lipgloss.Color("#4A4A5A") // Gray for off

	// Level bar gradient (dim to bright)
	levelColors = []lipgloss.Color{
		"#3D3D5C", "#4A4A6A", "#5A5A7A", "#6A6A8A", "#7A7A9A",
		"#8A8AAA", "#9A9ABA", "#AAAACA", "#BABADA", "#FBBF24",
	}
)

// Styles for various UI components
var (
	// Header styles
	StyleHeaderGradient = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorText).
				Background(ColorPrimary).
				Padding(0, 2)

	// Tab bar styles
	StyleTab = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 2)

	StyleTabActive = lipgloss.NewStyle().
			Foreground(ColorTextInverse).
			Background(ColorPrimary).
			Bold(true).
			Padding(0, 2)

	// Clock styles
	StyleClock = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	StyleGreeting = lipgloss.NewStyle().
			Foreground(ColorText).
			MarginTop(1)

	StyleZodiac = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)

	// List styles
	StyleListItem = lipgloss.NewStyle().
			Foreground(ColorText).
			Padding(0, 1)

	StyleListItemSelected = lipgloss.NewStyle().
				Foreground(ColorTextInverse).
				Background(ColorPrimary).
				Padding(0, 1)

	// Status indicators
	StyleStatusOn = lipgloss.NewStyle().
			Foreground(ColorLightOn).
			Bold(true)

	StyleStatusOff = lipgloss.NewStyle().
			Foreground(ColorLightOff)

	// Bar styles
	StyleBarEmpty = lipgloss.NewStyle().
			Foreground(ColorSurfaceAlt)

	// Panel styles
	StylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSurface).
			Padding(0, 1).
			MarginBottom(1)

	StylePanelTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent).
			MarginBottom(1)

	// Input styles
	StyleInputFocused = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder()).
				BorderForeground(ColorPrimary).
				Padding(0, 1)

	// Update banner styles
	StyleBanner = lipgloss.NewStyle().
			Foreground(ColorTextInverse).
			Background(ColorInfo).
			Padding(0, 1)

	// Help styles
	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorTextDim).
			MarginTop(1)

	// Loading/spinner styles
	StyleSpinner = lipgloss.NewStyle().
			Foreground(ColorPrimary)

	// Error styles
	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	// Success styles
	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	// Text muted style
	StyleTextMuted = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	// Primary style
	StylePrimary = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)
)

// GetLevelColor returns the gradient color for segment out of total filled
// segments, brightest at the top of the range.
func GetLevelColor(segment, total int) lipgloss.Color {
	if total <= 0 {
		return ColorSurfaceAlt
	}
	idx := (segment*len(levelColors) - 1) / total
	if idx < 0 {
		idx = 0
	}
	if idx >= len(levelColors) {
		idx = len(levelColors) - 1
	}
	return levelColors[idx]
}
