package tui

import (
	"errors"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lull-app/lull/internal/blink"
	"github.com/lull-app/lull/internal/config"
	"github.com/lull-app/lull/internal/prefs"
	"github.com/lull-app/lull/internal/sound"
	"github.com/lull-app/lull/internal/tui/messages"
	"github.com/lull-app/lull/internal/update"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	settings := &config.Settings{}
	store := blink.NewStore()
	prefPath := filepath.Join(t.TempDir(), "sound.toml")

	return NewModel(Deps{
		Settings: settings,
		Blink:    blink.NewClient(settings, store, nil),
		Media:    blink.NewMediaFetcher(store, nil),
		Player:   sound.NewPlayer(prefs.Default(), prefPath, nil, nil),
	})
}

func sizedModel(t *testing.T) Model {
	model := newTestModel(t)
	next, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func TestTabSwitching(t *testing.T) {
	model := sizedModel(t)
	require.Equal(t, TabHome, model.tab)

	next, _ := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	model = next.(Model)
	assert.Equal(t, TabSound, model.tab)
	assert.Contains(t, model.View(), "volume")

	next, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("3")})
	model = next.(Model)
	assert.Equal(t, TabLights, model.tab)

	next, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("1")})
	model = next.(Model)
	assert.Equal(t, TabHome, model.tab)
}

func TestErrorShownInFooter(t *testing.T) {
	model := sizedModel(t)

	next, _ := model.Update(messages.ErrorMsg{Err: errors.New("bridge unreachable")})
	model = next.(Model)

	assert.Contains(t, model.View(), "bridge unreachable")
}

func TestUpdateBannerLifecycle(t *testing.T) {
	model := sizedModel(t)
	rel := &update.Release{Version: "v2.0.0", URL: "http://example.invalid/bin"}

	next, _ := model.Update(messages.UpdateEventMsg{
		Event: update.Event{Kind: update.KindAvailable, Release: rel},
	})
	model = next.(Model)
	assert.Contains(t, model.View(), "Update 2.0.0 available")

	next, _ = model.Update(messages.UpdateEventMsg{
		Event: update.Event{Kind: update.KindDownloaded, Release: rel, Path: "/tmp/lull"},
	})
	model = next.(Model)
	assert.Contains(t, model.View(), "press U to install")
}

func TestLightsScreenStartsUnpairedWithoutController(t *testing.T) {
	model := sizedModel(t)

	next, _ := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("3")})
	model = next.(Model)

	assert.Contains(t, model.View(), "No Hue bridge connected")
}

func TestQuitOnCtrlC(t *testing.T) {
	model := sizedModel(t)

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
