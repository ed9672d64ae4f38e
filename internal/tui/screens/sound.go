package screens

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lull-app/lull/internal/prefs"
	"github.com/lull-app/lull/internal/sound"
	"github.com/lull-app/lull/internal/tui/components"
	"github.com/lull-app/lull/internal/tui/messages"
	"github.com/lull-app/lull/internal/tui/styles"
)

const (
	eqColumnHeight = 9
	volumeBarWidth = 30

	gainStep   = 1.0
	volumeStep = 5
)

// SoundModel is the playback screen: equalizer columns plus a volume bar.
type SoundModel struct {
	player *sound.Player

	// selected EQ band
	cursor int

	width  int
	height int
}

// NewSoundModel creates the sound screen model.
func NewSoundModel(player *sound.Player) SoundModel {
	return SoundModel{player: player}
}

// Init is a no-op; the player carries its own state.
func (m SoundModel) Init() tea.Cmd {
	return nil
}

// SetSize sets the terminal size.
func (m *SoundModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles key presses.
func (m SoundModel) Update(msg tea.Msg) (SoundModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "left", "h":
		if m.cursor > 0 {
			m.cursor--
		}
	case "right", "l":
		if m.cursor < prefs.BandCount-1 {
			m.cursor++
		}
	case "up", "k":
		return m, m.adjustBandCmd(gainStep)
	case "down", "j":
		return m, m.adjustBandCmd(-gainStep)
	case "+", "=":
		return m, m.adjustVolumeCmd(volumeStep)
	case "-":
		return m, m.adjustVolumeCmd(-volumeStep)
	case " ", "enter":
		m.player.Toggle()
	case "0":
		return m, m.resetBandCmd()
	}
	return m, nil
}

// View renders the equalizer and volume controls.
func (m SoundModel) View() string {
	var b strings.Builder

	state := styles.StyleStatusOff.Render("⏸ paused")
	if m.player.Playing() {
		state = styles.StyleStatusOn.Render("▶ playing")
	}
	b.WriteString(fmt.Sprintf("%s  %s\n\n",
		styles.StylePanelTitle.Render(m.player.Track()), state))

	b.WriteString(m.renderEqualizer())
	b.WriteString("\n\n")

	volume := m.player.Volume()
	b.WriteString(fmt.Sprintf("volume %s %3d%%\n",
		components.RenderLevelBar(volume, volumeBarWidth), volume))

	b.WriteString(styles.StyleHelp.Render(
		"←/→ band • ↑/↓ gain • 0 reset • +/- volume • space play/pause"))

	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center, b.String())
}

// renderEqualizer draws the band columns side by side with labels and the
// selected band's gain readout underneath.
func (m SoundModel) renderEqualizer() string {
	columns := make([][]string, prefs.BandCount)
	for i := range columns {
		columns[i] = components.RenderGainColumn(m.player.Band(i), 12, eqColumnHeight)
	}

	var b strings.Builder
	for row := 0; row < eqColumnHeight; row++ {
		for i := range columns {
			b.WriteString(" " + columns[i][row] + " ")
		}
		b.WriteString("\n")
	}

	for i, label := range sound.BandLabels {
		style := styles.StyleTextMuted
		if i == m.cursor {
			style = styles.StylePrimary
		}
		b.WriteString(style.Render(fmt.Sprintf("%3s", label)))
	}
	b.WriteString("\n")
	b.WriteString(styles.StyleTextMuted.Render(
		fmt.Sprintf("%+.1f dB", m.player.Band(m.cursor))))

	return b.String()
}

// Commands

func (m SoundModel) adjustBandCmd(delta float64) tea.Cmd {
	band := m.cursor
	return func() tea.Msg {
		if _, err := m.player.AdjustBand(band, delta); err != nil {
			return messages.ErrorMsg{Err: err}
		}
		return nil
	}
}

func (m SoundModel) resetBandCmd() tea.Cmd {
	band := m.cursor
	return func() tea.Msg {
		if err := m.player.SetBand(band, 0); err != nil {
			return messages.ErrorMsg{Err: err}
		}
		return nil
	}
}

func (m SoundModel) adjustVolumeCmd(delta int) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.player.AdjustVolume(delta); err != nil {
			return messages.ErrorMsg{Err: err}
		}
		return nil
	}
}
