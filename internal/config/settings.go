package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Settings holds all client configuration.
type Settings struct {
	// BackendURL is the base URL of the marketplace backend.
	BackendURL string `json:"backend_url"`

	// MediaURL is the base URL product images are served from. Empty
	// means images live on the backend host.
	MediaURL string `json:"media_url"`

	// SessionPath is where the signed-in session is persisted.
	SessionPath string `json:"session_path"`

	// RequestTimeoutSeconds bounds every backend request.
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`

	// PrefetchThumbnails controls whether cover images are fetched into
	// memory after each catalog load.
	PrefetchThumbnails bool `json:"prefetch_thumbnails"`

	// MaxConcurrentThumbnails bounds the thumbnail prefetch fan-out.
	MaxConcurrentThumbnails int `json:"max_concurrent_thumbnails"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		BackendURL:              "http://localhost:8000",
		SessionPath:             filepath.Join(configDir(), "session.json"),
		RequestTimeoutSeconds:   60,
		PrefetchThumbnails:      true,
		MaxConcurrentThumbnails: 4,
	}
}

// DefaultPath returns the default location of the settings file.
func DefaultPath() string {
	return filepath.Join(configDir(), "config.json")
}

func configDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base, _ = os.UserHomeDir()
	}
	return filepath.Join(base, "lpmarket")
}

// Load reads settings from a JSON file. A missing file yields defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// MediaBase returns the base URL for product images, falling back to the
// backend host when no separate media host is configured.
func (s *Settings) MediaBase() string {
	if s.MediaURL != "" {
		return strings.TrimSuffix(s.MediaURL, "/")
	}
	return strings.TrimSuffix(s.BackendURL, "/")
}

// RequestTimeout returns the per-request timeout as a duration.
func (s *Settings) RequestTimeout() time.Duration {
	if s.RequestTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}
