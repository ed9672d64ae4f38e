package screens

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lull-app/lull/internal/blink"
	"github.com/lull-app/lull/internal/models"
	"github.com/lull-app/lull/internal/tui/messages"
	"github.com/lull-app/lull/internal/tui/styles"
)

// CamerasState represents the cameras screen state machine.
type CamerasState int

const (
	CamerasLoggedOut CamerasState = iota
	CamerasVerifying
	CamerasList
)

const cameraRequestTimeout = 30 * time.Second

// CamerasModel drives Blink login, 2FA and the camera list.
type CamerasModel struct {
	client *blink.Client
	media  *blink.MediaFetcher

	state     CamerasState
	email     textinput.Model
	password  textinput.Model
	pin       textinput.Model
	focus     int // 0 = email, 1 = password
	accountID string

	cameras  []models.Camera
	selected int

	spinner spinner.Model
	busy    bool
	blurred bool
	message string
	err     error

	width  int
	height int
}

// NewCamerasModel creates the cameras screen model.
func NewCamerasModel(client *blink.Client, media *blink.MediaFetcher) CamerasModel {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 100
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 100
	password.EchoMode = textinput.EchoPassword

	pin := textinput.New()
	pin.Placeholder = "123456"
	pin.CharLimit = 6

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.StyleSpinner

	state := CamerasLoggedOut
	if client.LoggedIn() {
		state = CamerasList
	}

	return CamerasModel{
		client:   client,
		media:    media,
		state:    state,
		email:    email,
		password: password,
		pin:      pin,
		spinner:  sp,
	}
}

// Init loads cameras when a session already exists.
func (m CamerasModel) Init() tea.Cmd {
	if m.state == CamerasList {
		return tea.Batch(m.spinner.Tick, m.fetchCamerasCmd())
	}
	return tea.Batch(m.spinner.Tick, textinput.Blink)
}

// SetSize sets the terminal size.
func (m *CamerasModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Editing reports whether key presses belong to a text input. esc blurs
// the form so global keys (tabs, quit) work again.
func (m CamerasModel) Editing() bool {
	if m.blurred {
		return false
	}
	return m.state == CamerasLoggedOut || m.state == CamerasVerifying
}

// Update handles messages.
func (m CamerasModel) Update(msg tea.Msg) (CamerasModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case loginResultMsg:
		m.busy = false
		m.message = msg.result.Message
		switch {
		case msg.result.Requires2FA:
			m.state = CamerasVerifying
			m.accountID = msg.result.AccountID
			m.pin.Focus()
			cmds = append(cmds, textinput.Blink)
		case msg.result.Success:
			m.state = CamerasList
			cmds = append(cmds, m.fetchCamerasCmd())
		}

	case verifyResultMsg:
		m.busy = false
		m.message = msg.result.Message
		if msg.result.Success {
			m.state = CamerasList
			cmds = append(cmds, m.fetchCamerasCmd())
		}

	case camerasLoadedMsg:
		m.busy = false
		m.cameras = msg.cameras
		m.err = nil
		if m.selected >= len(m.cameras) {
			m.selected = 0
		}

	case thumbnailMsg:
		m.busy = false
		m.message = fmt.Sprintf("%s: thumbnail fetched (%d KB)", msg.camera, msg.size/1024)

	case loggedOutMsg:
		m.state = CamerasLoggedOut
		m.cameras = nil
		m.message = "Logged out."
		m.focus = 0
		m.email.Focus()
		cmds = append(cmds, textinput.Blink)

	case messages.ErrorMsg:
		m.busy = false

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	cmds = append(cmds, m.updateInputs(msg)...)
	return m, tea.Batch(cmds...)
}

func (m *CamerasModel) updateInputs(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	switch m.state {
	case CamerasLoggedOut:
		m.email, cmd = m.email.Update(msg)
		cmds = append(cmds, cmd)
		m.password, cmd = m.password.Update(msg)
		cmds = append(cmds, cmd)
	case CamerasVerifying:
		m.pin, cmd = m.pin.Update(msg)
		cmds = append(cmds, cmd)
	}
	return cmds
}

func (m CamerasModel) handleKey(key tea.KeyMsg) (CamerasModel, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	if key.String() == "esc" {
		m.blurred = true
		m.email.Blur()
		m.password.Blur()
		m.pin.Blur()
		return m, nil
	}
	if m.blurred && (m.state == CamerasLoggedOut || m.state == CamerasVerifying) {
		if key.String() == "enter" || key.String() == "i" {
			m.blurred = false
			if m.state == CamerasVerifying {
				m.pin.Focus()
			} else if m.focus == 1 {
				m.password.Focus()
			} else {
				m.email.Focus()
			}
			return m, textinput.Blink
		}
		return m, nil
	}

	switch m.state {
	case CamerasLoggedOut:
		switch key.String() {
		case "tab", "shift+tab":
			m.focus = 1 - m.focus
			if m.focus == 0 {
				m.email.Focus()
				m.password.Blur()
			} else {
				m.password.Focus()
				m.email.Blur()
			}
			return m, textinput.Blink
		case "enter":
			email := strings.TrimSpace(m.email.Value())
			password := m.password.Value()
			if email == "" || password == "" {
				m.message = "Email and password are required."
				return m, nil
			}
			m.busy = true
			m.message = ""
			return m, m.loginCmd(email, password)
		}

	case CamerasVerifying:
		if key.String() == "enter" {
			pin := strings.TrimSpace(m.pin.Value())
			if pin == "" {
				return m, nil
			}
			m.busy = true
			return m, m.verifyCmd(pin)
		}

	case CamerasList:
		switch key.String() {
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.cameras)-1 {
				m.selected++
			}
		case "enter", "t":
			if len(m.cameras) > 0 {
				m.busy = true
				return m, m.thumbnailCmd(m.cameras[m.selected], true)
			}
		case "T":
			if len(m.cameras) > 0 {
				m.busy = true
				return m, m.thumbnailCmd(m.cameras[m.selected], false)
			}
		case "g":
			m.busy = true
			return m, m.fetchCamerasCmd()
		case "x":
			return m, m.logoutCmd()
		}
	}
	return m, nil
}

// View renders the cameras screen.
func (m CamerasModel) View() string {
	var content string
	switch m.state {
	case CamerasLoggedOut:
		content = m.renderLogin()
	case CamerasVerifying:
		content = m.renderVerify()
	case CamerasList:
		content = m.renderList()
	}
	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center, content)
}

func (m CamerasModel) renderLogin() string {
	var b strings.Builder
	b.WriteString(styles.StylePanelTitle.Render("Blink login") + "\n\n")
	b.WriteString(m.email.View() + "\n")
	b.WriteString(m.password.View() + "\n")
	b.WriteString(m.renderFooter("tab switch field • enter login • esc release keys"))
	return b.String()
}

func (m CamerasModel) renderVerify() string {
	var b strings.Builder
	b.WriteString(styles.StylePanelTitle.Render("Verification code") + "\n\n")
	if m.message != "" {
		b.WriteString(styles.StyleTextMuted.Render(m.message) + "\n\n")
	}
	b.WriteString(m.pin.View() + "\n")
	b.WriteString(m.renderFooter("enter verify"))
	return b.String()
}

func (m CamerasModel) renderList() string {
	var b strings.Builder
	b.WriteString(styles.StylePanelTitle.Render("Cameras") + "\n")

	if len(m.cameras) == 0 {
		b.WriteString(styles.StyleTextMuted.Render("  no cameras found") + "\n")
	}
	for i, cam := range m.cameras {
		cursor := "  "
		style := styles.StyleListItem
		if i == m.selected {
			cursor = "> "
			style = styles.StyleListItemSelected
		}
		state := styles.StyleStatusOff.Render("○")
		if cam.Enabled {
			state = styles.StyleStatusOn.Render("●")
		}
		b.WriteString(fmt.Sprintf("%s%s %s\n",
			cursor, state, style.Render(fmt.Sprintf("%s (%s)", cam.Name, cam.Type))))
	}

	b.WriteString(m.renderFooter("enter fresh snapshot • T cached snapshot • g reload • x logout"))
	return b.String()
}

func (m CamerasModel) renderFooter(help string) string {
	var b strings.Builder
	if m.busy {
		b.WriteString("\n" + m.spinner.View() + " working...\n")
	} else if m.message != "" {
		b.WriteString("\n" + styles.StyleTextMuted.Render(m.message) + "\n")
	}
	b.WriteString(styles.StyleHelp.Render(help))
	return b.String()
}

// Commands

func (m CamerasModel) loginCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cameraRequestTimeout)
		defer cancel()
		return loginResultMsg{result: m.client.Login(ctx, email, password)}
	}
}

func (m CamerasModel) verifyCmd(pin string) tea.Cmd {
	accountID := m.accountID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cameraRequestTimeout)
		defer cancel()
		return verifyResultMsg{result: m.client.Verify2FA(ctx, accountID, pin)}
	}
}

func (m CamerasModel) fetchCamerasCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cameraRequestTimeout)
		defer cancel()

		cameras, err := m.client.GetCameras(ctx)
		if err != nil {
			return messages.ErrorMsg{Err: err}
		}
		return camerasLoadedMsg{cameras: cameras}
	}
}

// thumbnailCmd fetches a snapshot for cam; fresh asks the camera to take a
// new picture first, otherwise the latest cached one is used.
func (m CamerasModel) thumbnailCmd(cam models.Camera, fresh bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cameraRequestTimeout)
		defer cancel()

		var (
			url string
			err error
		)
		if fresh {
			url, err = m.client.RequestThumbnail(ctx, cam.NetworkID, cam.ID)
		} else {
			url, err = m.client.LatestThumbnailURL(cam.NetworkID, cam.ID)
		}
		if err != nil {
			return messages.ErrorMsg{Err: err}
		}

		dataURL, err := m.media.Fetch(ctx, url)
		if err != nil {
			return messages.ErrorMsg{Err: err}
		}
		return thumbnailMsg{camera: cam.Name, size: decodedSize(dataURL)}
	}
}

func (m CamerasModel) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		if err := m.client.Logout(); err != nil {
			return messages.ErrorMsg{Err: err}
		}
		return loggedOutMsg{}
	}
}

// decodedSize reports the byte size of a base64 data URI payload.
func decodedSize(dataURL string) int {
	idx := strings.Index(dataURL, ";base64,")
	if idx < 0 {
		return len(dataURL)
	}
	return base64.StdEncoding.DecodedLen(len(dataURL) - idx - len(";base64,"))
}

// Messages

type loginResultMsg struct{ result blink.LoginResult }

type verifyResultMsg struct{ result blink.VerifyResult }

type camerasLoadedMsg struct{ cameras []models.Camera }

type thumbnailMsg struct {
	camera string
	size   int
}

type loggedOutMsg struct{}
