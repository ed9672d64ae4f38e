package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/lull-app/lull/internal/models"
)

// UserSettings stores the home-screen personalization keys.
type UserSettings struct {
	// Display name used in greetings
	Name string `json:"name,omitempty"`
	// Preferred pronoun for greeting phrases
	Pronoun string `json:"pronoun,omitempty"`
	// "12h" or "24h"
	TimeFormat string `json:"time_format,omitempty"`
	// Zodiac sign shown on the home screen
	ZodiacSign string `json:"zodiac_sign,omitempty"`
	// Opt-in flag for unreleased features
	BetaFeatures bool `json:"beta_features,omitempty"`
}

// HueSettings stores the Hue bridge connection details.
type HueSettings struct {
	// IP address or hostname of the bridge
	Host string `json:"host,omitempty"`
	// Bridge-issued API key obtained via link-button pairing
	Username string `json:"username,omitempty"`
	// Group IDs the sleep/wake actions are scoped to (empty = all lights)
	SelectedGroups []string `json:"selected_groups,omitempty"`
}

// Connected reports whether the bridge credentials are present.
func (h HueSettings) Connected() bool {
	return h.Host != "" && h.Username != ""
}

// BlinkSession is a confirmed Blink login.
type BlinkSession struct {
	Token      string `json:"token"`
	AccountID  string `json:"account_id"`
	Tier       string `json:"tier"`
	HeaderMode string `json:"header_mode,omitempty"`
}

// BlinkPending holds the half-finished login waiting on a 2FA pin. It is
// kept separate from the confirmed session so an abandoned verification
// never clobbers working credentials.
type BlinkPending struct {
	AccountID string `json:"account_id"`
	ClientID  string `json:"client_id"`
	Token     string `json:"token"`
	Tier      string `json:"tier"`
}

// BlinkSettings stores Blink credentials and the cached camera list.
type BlinkSettings struct {
	Session *BlinkSession   `json:"session,omitempty"`
	Pending *BlinkPending   `json:"pending,omitempty"`
	Cameras []models.Camera `json:"cameras,omitempty"`
}

// Settings stores all application configuration
type Settings struct {
	User  UserSettings  `json:"user"`
	Hue   HueSettings   `json:"hue"`
	Blink BlinkSettings `json:"blink"`
}

const defaultUserName = "friend"

// GreetingName returns the configured name or a friendly default.
func (s *Settings) GreetingName() string {
	if s.User.Name != "" {
		return s.User.Name
	}
	return defaultUserName
}

// configDir returns the configuration directory path
func configDir() (string, error) {
	// Check XDG_CONFIG_HOME first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "lull"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "lull"), nil
}

// configPath returns the full path to the config file
func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the settings from disk. Absent keys default silently: a
// missing file yields an empty Settings, never an error.
func Load() (*Settings, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, nil
		}
		return nil, err
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}

	return &s, nil
}

// Save writes the settings to disk. The file carries credentials, so it is
// created 0600.
func (s *Settings) Save() error {
	dir, err := configDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
