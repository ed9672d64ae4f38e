package screens

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lull-app/lull/internal/hue"
	"github.com/lull-app/lull/internal/tui/messages"
	"github.com/lull-app/lull/internal/tui/styles"
)

// LightsState represents the lights screen state machine.
type LightsState int

const (
	LightsUnpaired LightsState = iota
	LightsDiscovering
	LightsManualEntry
	LightsPairing
	LightsReady
)

const (
	discoverTimeout = 5 * time.Second
	pairTimeout     = 10 * time.Second

	sleepFade = 8 * time.Second
	wakeFade  = 2 * time.Second

	deviceType = "lull#bedside"
)

type groupItem struct {
	id   string
	name string
}

// LightsModel drives Hue setup and the sleep/wake light actions.
type LightsModel struct {
	controller *hue.Controller

	state    LightsState
	host     string
	input    textinput.Model
	spinner  spinner.Model
	groups   []groupItem
	selected int
	status   string
	err      error

	width  int
	height int
}

// NewLightsModel creates the lights screen. A nil controller starts the
// screen in the pairing flow.
func NewLightsModel(controller *hue.Controller) LightsModel {
	ti := textinput.New()
	ti.Placeholder = "192.168.1.x"
	ti.CharLimit = 45

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.StyleSpinner

	state := LightsUnpaired
	if controller != nil && controller.Connected() {
		state = LightsReady
	}

	return LightsModel{
		controller: controller,
		state:      state,
		input:      ti,
		spinner:    sp,
	}
}

// Init fetches groups when already paired.
func (m LightsModel) Init() tea.Cmd {
	if m.state == LightsReady {
		return tea.Batch(m.spinner.Tick, m.fetchGroupsCmd())
	}
	return m.spinner.Tick
}

// SetSize sets the terminal size.
func (m *LightsModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Editing reports whether key presses belong to a text input.
func (m LightsModel) Editing() bool {
	return m.state == LightsManualEntry
}

// SetController swaps in a freshly paired controller and loads its groups.
func (m *LightsModel) SetController(controller *hue.Controller) tea.Cmd {
	m.controller = controller
	m.state = LightsReady
	m.err = nil
	return m.fetchGroupsCmd()
}

// Update handles messages.
func (m LightsModel) Update(msg tea.Msg) (LightsModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case bridgeFoundMsg:
		m.host = msg.host
		m.state = LightsPairing
		m.err = nil

	case discoverFailedMsg:
		m.state = LightsUnpaired
		m.err = msg.err

	case pairFailedMsg:
		// Stay in pairing so the user can press the link button and retry.
		m.err = msg.err

	case groupsLoadedMsg:
		m.groups = msg.groups
		m.err = nil

	case actionDoneMsg:
		m.status = msg.status

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.state == LightsManualEntry {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m LightsModel) handleKey(key tea.KeyMsg) (LightsModel, tea.Cmd) {
	switch m.state {
	case LightsUnpaired:
		switch key.String() {
		case "d", "enter":
			m.state = LightsDiscovering
			m.err = nil
			return m, m.discoverCmd()
		case "m":
			m.state = LightsManualEntry
			m.input.Focus()
			return m, textinput.Blink
		}

	case LightsManualEntry:
		switch key.String() {
		case "enter":
			host := strings.TrimSpace(m.input.Value())
			if host != "" {
				m.host = host
				m.state = LightsPairing
				m.input.Blur()
			}
		case "esc":
			m.state = LightsUnpaired
			m.input.Blur()
		}

	case LightsPairing:
		switch key.String() {
		case "enter":
			return m, m.pairCmd()
		case "esc":
			m.state = LightsUnpaired
			m.err = nil
		}

	case LightsReady:
		switch key.String() {
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.groups)-1 {
				m.selected++
			}
		case " ":
			if len(m.groups) > 0 {
				return m, m.toggleGroupCmd(m.groups[m.selected].id)
			}
		case "s":
			return m, m.actionCmd("dimming for sleep", func(ctx context.Context) error {
				return m.controller.DimLights(ctx, sleepFade)
			})
		case "w":
			return m, m.actionCmd("waking up the lights", func(ctx context.Context) error {
				return m.controller.BrightenLights(ctx, wakeFade)
			})
		case "r":
			return m, m.actionCmd("restoring saved light states", func(ctx context.Context) error {
				return m.controller.RestoreLightStates(ctx)
			})
		case "c":
			return m, m.actionCmd("setting warm color", func(ctx context.Context) error {
				return m.controller.SetWarmColor(ctx)
			})
		case "o":
			return m, m.actionCmd("house lights on", m.controller.TurnOnHouse)
		case "O":
			return m, m.actionCmd("house lights off", m.controller.TurnOffHouse)
		case "g":
			return m, m.fetchGroupsCmd()
		}
	}
	return m, nil
}

// View renders the lights screen.
func (m LightsModel) View() string {
	var content string
	switch m.state {
	case LightsUnpaired:
		content = m.renderUnpaired()
	case LightsDiscovering:
		content = fmt.Sprintf("%s Searching for a Hue bridge...", m.spinner.View())
	case LightsManualEntry:
		content = "Enter bridge IP address:\n\n" +
			styles.StyleInputFocused.Render(m.input.View()) +
			"\n\n" + styles.StyleHelp.Render("enter confirm • esc back")
	case LightsPairing:
		content = m.renderPairing()
	case LightsReady:
		content = m.renderReady()
	}

	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center, content)
}

func (m LightsModel) renderUnpaired() string {
	var b strings.Builder
	b.WriteString(styles.StyleTextMuted.Render("No Hue bridge connected.") + "\n\n")
	if m.err != nil {
		b.WriteString(styles.StyleError.Render(m.err.Error()) + "\n\n")
	}
	b.WriteString(styles.StyleHelp.Render("d discover • m enter IP manually"))
	return b.String()
}

func (m LightsModel) renderPairing() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Bridge found at %s\n\n", styles.StylePrimary.Render(m.host)))
	b.WriteString("Press the link button on the bridge, then press enter.\n")
	if m.err != nil {
		b.WriteString("\n" + styles.StyleError.Render(m.err.Error()) + "\n")
	}
	b.WriteString(styles.StyleHelp.Render("enter pair • esc back"))
	return b.String()
}

func (m LightsModel) renderReady() string {
	var b strings.Builder

	b.WriteString(styles.StylePanelTitle.Render("Rooms") + "\n")
	if len(m.groups) == 0 {
		b.WriteString(styles.StyleTextMuted.Render("  (no groups, actions apply to all lights)") + "\n")
	}
	selectedSet := map[string]bool{}
	if m.controller != nil {
		for _, id := range m.controller.SelectedGroups() {
			selectedSet[id] = true
		}
	}
	for i, g := range m.groups {
		cursor := "  "
		style := styles.StyleListItem
		if i == m.selected {
			cursor = "> "
			style = styles.StyleListItemSelected
		}
		mark := "[ ]"
		if selectedSet[g.id] {
			mark = "[x]"
		}
		b.WriteString(cursor + style.Render(fmt.Sprintf("%s %s", mark, g.name)) + "\n")
	}

	if m.status != "" {
		b.WriteString("\n" + styles.StyleSuccess.Render(m.status) + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + styles.StyleError.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n" + styles.StyleHelp.Render(
		"space select room • s sleep • w wake • r restore • c warm • o/O house on/off • g reload"))
	return b.String()
}

// Commands

func (m LightsModel) discoverCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), discoverTimeout+time.Second)
		defer cancel()

		host, err := hue.Discover(ctx, discoverTimeout)
		if err != nil {
			return discoverFailedMsg{err: err}
		}
		return bridgeFoundMsg{host: host}
	}
}

func (m LightsModel) pairCmd() tea.Cmd {
	host := m.host
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pairTimeout)
		defer cancel()

		username, err := hue.Pair(ctx, host, deviceType)
		if err != nil {
			if errors.Is(err, hue.ErrLinkButtonNotPressed) {
				return pairFailedMsg{err: errors.New("link button not pressed yet")}
			}
			return pairFailedMsg{err: err}
		}
		return BridgePairedMsg{Host: host, Username: username}
	}
}

func (m LightsModel) fetchGroupsCmd() tea.Cmd {
	controller := m.controller
	return func() tea.Msg {
		if controller == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		groups, err := controller.GetGroups(ctx)
		if err != nil {
			return messages.ErrorMsg{Err: err}
		}

		items := make([]groupItem, 0, len(groups))
		for id, g := range groups {
			items = append(items, groupItem{id: id, name: g.Name})
		}
		sort.Slice(items, func(i, j int) bool { return items[i].name < items[j].name })
		return groupsLoadedMsg{groups: items}
	}
}

func (m LightsModel) toggleGroupCmd(groupID string) tea.Cmd {
	controller := m.controller
	return func() tea.Msg {
		current := controller.SelectedGroups()
		next := make([]string, 0, len(current)+1)
		removed := false
		for _, id := range current {
			if id == groupID {
				removed = true
				continue
			}
			next = append(next, id)
		}
		if !removed {
			next = append(next, groupID)
		}
		controller.SetSelectedGroups(next)
		return GroupSelectionMsg{GroupIDs: next}
	}
}

func (m LightsModel) actionCmd(status string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := fn(ctx); err != nil {
			return messages.ErrorMsg{Err: err}
		}
		return actionDoneMsg{status: status}
	}
}

// Messages

// BridgePairedMsg announces a successful pairing; the app persists the
// credentials and builds the controller.
type BridgePairedMsg struct {
	Host     string
	Username string
}

// GroupSelectionMsg announces a change to the selected room scope; the app
// persists it.
type GroupSelectionMsg struct {
	GroupIDs []string
}

type bridgeFoundMsg struct{ host string }

type discoverFailedMsg struct{ err error }

type pairFailedMsg struct{ err error }

type groupsLoadedMsg struct{ groups []groupItem }

type actionDoneMsg struct{ status string }
