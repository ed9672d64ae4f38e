package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/lull-app/lull/internal/blink"
	"github.com/lull-app/lull/internal/config"
	"github.com/lull-app/lull/internal/hue"
	"github.com/lull-app/lull/internal/sound"
	"github.com/lull-app/lull/internal/tui/components"
	"github.com/lull-app/lull/internal/tui/messages"
	"github.com/lull-app/lull/internal/tui/screens"
	"github.com/lull-app/lull/internal/tui/styles"
	"github.com/lull-app/lull/internal/update"
)

// Tab identifies the active screen.
type Tab int

const (
	TabHome Tab = iota
	TabSound
	TabLights
	TabCameras
)

var tabNames = []string{"Home", "Sound", "Lights", "Cameras"}

// Deps carries the wired subsystems into the presentation layer.
type Deps struct {
	Settings *config.Settings
	Hue      *hue.Controller
	Blink    *blink.Client
	Media    *blink.MediaFetcher
	Player   *sound.Player
	Updates  *update.Poller
	Logger   *zap.Logger
}

// Model is the root application model.
type Model struct {
	deps Deps

	tab           Tab
	homeScreen    screens.HomeModel
	soundScreen   screens.SoundModel
	lightsScreen  screens.LightsModel
	camerasScreen screens.CamerasModel

	// update banner
	pendingRelease *update.Release
	downloading    bool
	downloadBar    progress.Model
	downloadedPath string

	width  int
	height int

	err error

	ctx    context.Context
	cancel context.CancelFunc
}

// NewModel creates the root model.
func NewModel(deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		deps:          deps,
		homeScreen:    screens.NewHomeModel(deps.Settings),
		soundScreen:   screens.NewSoundModel(deps.Player),
		lightsScreen:  screens.NewLightsModel(deps.Hue),
		camerasScreen: screens.NewCamerasModel(deps.Blink, deps.Media),
		downloadBar:   progress.New(progress.WithDefaultGradient()),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Init initializes the application.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.SetWindowTitle("lull"),
		m.homeScreen.Init(),
		m.soundScreen.Init(),
		m.lightsScreen.Init(),
		m.camerasScreen.Init(),
	}
	if m.deps.Updates != nil {
		m.deps.Updates.Start(m.ctx)
		cmds = append(cmds, m.waitForUpdateCmd())
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		inner := msg.Height - 4 // header, tabs, banner/footer
		m.homeScreen.SetSize(msg.Width, inner)
		m.soundScreen.SetSize(msg.Width, inner)
		m.lightsScreen.SetSize(msg.Width, inner)
		m.camerasScreen.SetSize(msg.Width, inner)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			return m, tea.Quit
		}
		// While a text input has focus, every other key belongs to it.
		if !m.editing() {
			switch msg.String() {
			case "q":
				m.cancel()
				return m, tea.Quit
			case "1":
				m.tab = TabHome
				return m, nil
			case "2":
				m.tab = TabSound
				return m, nil
			case "3":
				m.tab = TabLights
				return m, nil
			case "4":
				m.tab = TabCameras
				return m, nil
			case "u":
				// accept a pending update
				if m.pendingRelease != nil && !m.downloading && m.downloadedPath == "" {
					m.downloading = true
					m.deps.Updates.Download(m.ctx, m.pendingRelease)
					return m, nil
				}
			case "U":
				if m.downloadedPath != "" {
					if err := update.Apply(m.downloadedPath); err != nil {
						m.err = err
						return m, nil
					}
					m.cancel()
					return m, tea.Quit
				}
			}
		}

	case screens.BridgePairedMsg:
		cmds = append(cmds, m.adoptBridge(msg.Host, msg.Username))

	case screens.GroupSelectionMsg:
		m.deps.Settings.Hue.SelectedGroups = msg.GroupIDs
		if err := m.deps.Settings.Save(); err != nil {
			m.err = err
		}

	case messages.UpdateEventMsg:
		cmds = append(cmds, m.handleUpdateEvent(msg.Event), m.waitForUpdateCmd())

	case progress.FrameMsg:
		bar, cmd := m.downloadBar.Update(msg)
		m.downloadBar = bar.(progress.Model)
		cmds = append(cmds, cmd)

	case messages.ErrorMsg:
		m.err = msg.Err
		m.deps.Logger.Warn("ui error", zap.Error(msg.Err))
	}

	// Route to the active tab. Clock ticks always reach home so the time
	// stays right when the user returns to it.
	if _, ok := msg.(messages.ClockTickMsg); ok || m.tab == TabHome {
		var cmd tea.Cmd
		m.homeScreen, cmd = m.homeScreen.Update(msg)
		cmds = append(cmds, cmd)
	}
	switch m.tab {
	case TabSound:
		var cmd tea.Cmd
		m.soundScreen, cmd = m.soundScreen.Update(msg)
		cmds = append(cmds, cmd)
	case TabLights:
		var cmd tea.Cmd
		m.lightsScreen, cmd = m.lightsScreen.Update(msg)
		cmds = append(cmds, cmd)
	case TabCameras:
		var cmd tea.Cmd
		m.camerasScreen, cmd = m.camerasScreen.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the active screen under the header and tab bar.
func (m Model) View() string {
	var b strings.Builder

	status := ""
	if m.deps.Hue != nil && m.deps.Hue.Connected() {
		status = "Hue connected"
	}
	b.WriteString(components.RenderHeader(m.width, "lull", status))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	switch m.tab {
	case TabHome:
		b.WriteString(m.homeScreen.View())
	case TabSound:
		b.WriteString(m.soundScreen.View())
	case TabLights:
		b.WriteString(m.lightsScreen.View())
	case TabCameras:
		b.WriteString(m.camerasScreen.View())
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// editing reports whether the active screen has a focused text input.
func (m Model) editing() bool {
	switch m.tab {
	case TabLights:
		return m.lightsScreen.Editing()
	case TabCameras:
		return m.camerasScreen.Editing()
	}
	return false
}

func (m Model) renderTabs() string {
	var parts []string
	for i, name := range tabNames {
		style := styles.StyleTab
		if Tab(i) == m.tab {
			style = styles.StyleTabActive
		}
		parts = append(parts, style.Render(fmt.Sprintf("%d %s", i+1, name)))
	}
	return strings.Join(parts, "")
}

func (m Model) renderFooter() string {
	switch {
	case m.downloadedPath != "":
		return styles.StyleBanner.Render("Update ready - press U to install and quit")
	case m.downloading:
		return styles.StyleBanner.Render("Downloading update ") + m.downloadBar.View()
	case m.pendingRelease != nil:
		return styles.StyleBanner.Render(fmt.Sprintf(
			"Update %s available - press u to download", update.StripV(m.pendingRelease.Version)))
	case m.err != nil:
		return styles.StyleError.Render(m.err.Error())
	}
	return ""
}

// adoptBridge persists fresh pairing credentials and swaps the lights
// screen over to the new controller.
func (m *Model) adoptBridge(host, username string) tea.Cmd {
	m.deps.Settings.Hue.Host = host
	m.deps.Settings.Hue.Username = username
	if err := m.deps.Settings.Save(); err != nil {
		m.err = err
	}

	bridge := hue.NewBridge(host, username)
	m.deps.Hue = hue.NewController(bridge, m.deps.Settings.Hue.SelectedGroups, m.deps.Logger)
	m.deps.Logger.Info("hue bridge paired", zap.String("host", host))
	return m.lightsScreen.SetController(m.deps.Hue)
}

func (m *Model) handleUpdateEvent(ev update.Event) tea.Cmd {
	switch ev.Kind {
	case update.KindAvailable:
		m.pendingRelease = ev.Release
	case update.KindProgress:
		return m.downloadBar.SetPercent(float64(ev.Percent) / 100)
	case update.KindDownloaded:
		m.downloading = false
		m.downloadedPath = ev.Path
	case update.KindError:
		m.downloading = false
		m.err = ev.Err
	}
	return nil
}

// waitForUpdateCmd blocks on the poller channel and feeds events back into
// the program.
func (m Model) waitForUpdateCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-m.deps.Updates.Events():
			return messages.UpdateEventMsg{Event: ev}
		case <-m.ctx.Done():
			return nil
		}
	}
}
