package screens

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lull-app/lull/internal/config"
	"github.com/lull-app/lull/internal/tui/messages"
	"github.com/lull-app/lull/internal/tui/styles"
)

// HomeModel is the clock/greeting screen.
type HomeModel struct {
	settings *config.Settings
	now      time.Time

	width  int
	height int
}

// NewHomeModel creates the home screen model.
func NewHomeModel(settings *config.Settings) HomeModel {
	return HomeModel{settings: settings, now: time.Now()}
}

// Init starts the clock.
func (m HomeModel) Init() tea.Cmd {
	return clockTickCmd()
}

// SetSize sets the terminal size.
func (m *HomeModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages.
func (m HomeModel) Update(msg tea.Msg) (HomeModel, tea.Cmd) {
	if tick, ok := msg.(messages.ClockTickMsg); ok {
		m.now = tick.Now
		return m, clockTickCmd()
	}
	return m, nil
}

// View renders the clock, greeting and zodiac line.
func (m HomeModel) View() string {
	var b strings.Builder

	clock := styles.StyleClock.Render(FormatClock(m.now, m.settings.User.TimeFormat))
	b.WriteString(clock)
	b.WriteString("\n")
	b.WriteString(styles.StyleGreeting.Render(Greeting(m.now, m.settings.GreetingName())))

	if sign := m.settings.User.ZodiacSign; sign != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.StyleZodiac.Render(fmt.Sprintf("✦ %s", sign)))
	}

	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center, b.String())
}

// FormatClock formats the time per the "12h"/"24h" preference, defaulting
// to 12-hour.
func FormatClock(now time.Time, format string) string {
	if format == "24h" {
		return now.Format("15:04")
	}
	return now.Format("3:04 PM")
}

// Greeting returns the time-of-day greeting for name.
func Greeting(now time.Time, name string) string {
	var phase string
	switch hour := now.Hour(); {
	case hour >= 5 && hour < 12:
		phase = "Good morning"
	case hour >= 12 && hour < 17:
		phase = "Good afternoon"
	case hour >= 17 && hour < 22:
		phase = "Good evening"
	default:
		phase = "Sweet dreams"
	}
	return fmt.Sprintf("%s, %s", phase, name)
}

func clockTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return messages.ClockTickMsg{Now: t}
	})
}
