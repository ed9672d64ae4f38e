package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/lull-app/lull/internal/blink"
	"github.com/lull-app/lull/internal/config"
	"github.com/lull-app/lull/internal/hue"
	"github.com/lull-app/lull/internal/prefs"
	"github.com/lull-app/lull/internal/sound"
	"github.com/lull-app/lull/internal/tui"
	"github.com/lull-app/lull/internal/update"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	logger, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	prefPath := prefs.DefaultPath()
	soundPrefs, err := prefs.Load(prefPath)
	if err != nil {
		logger.Warn("failed to load sound preferences, using defaults", zap.Error(err))
		soundPrefs = prefs.Default()
	}
	player := sound.NewPlayer(soundPrefs, prefPath, nil, logger)

	var controller *hue.Controller
	if settings.Hue.Connected() {
		bridge := hue.NewBridge(settings.Hue.Host, settings.Hue.Username)
		controller = hue.NewController(bridge, settings.Hue.SelectedGroups, logger)
	}

	store := blink.NewStore()
	blinkClient := blink.NewClient(settings, store, logger)
	media := blink.NewMediaFetcher(store, logger)

	poller := update.NewPoller(update.NewChecker(logger), version, logger)

	logger.Info("starting", zap.String("version", version))

	model := tui.NewModel(tui.Deps{
		Settings: settings,
		Hue:      controller,
		Blink:    blinkClient,
		Media:    media,
		Player:   player,
		Updates:  poller,
		Logger:   logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		os.Exit(1)
	}
}

// newLogger writes structured logs to the state directory; stderr belongs
// to the TUI.
func newLogger() (*zap.Logger, error) {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".local", "state")
	}
	dir = filepath.Join(dir, "lull")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{filepath.Join(dir, "lull.log")}
	cfg.ErrorOutputPaths = cfg.OutputPaths
	return cfg.Build()
}
