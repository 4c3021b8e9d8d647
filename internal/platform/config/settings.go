package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

var errInvalidWeight = errors.New("config: check weights must be finite and non-negative")

// Settings is the stored check configuration. Checks maps a check id to
// whether it is enabled. An empty map enables every check; otherwise only
// ids set to true run. Weights overrides the weight a check contributes to
// the score.
type Settings struct {
	Checks  map[string]bool    `json:"checks"`
	Weights map[string]float64 `json:"weights"`
}

// DefaultSettings returns empty settings: every check enabled at its own weight.
func DefaultSettings() Settings {
	return Settings{
		Checks:  map[string]bool{},
		Weights: map[string]float64{},
	}
}

// SettingsStore persists settings in a single JSON file on disk.
type SettingsStore struct {
	path string
}

// NewSettingsStore creates a JSON-backed settings store.
func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{path: path}
}

// Load reads settings from disk or returns defaults when the file is missing.
func (s *SettingsStore) Load() (Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return Settings{}, err
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("config: parse %s: %w", s.path, err)
	}
	if settings.Checks == nil {
		settings.Checks = map[string]bool{}
	}
	if settings.Weights == nil {
		settings.Weights = map[string]float64{}
	}

	for id, w := range settings.Weights {
		if w < 0 || math.IsInf(w, 0) {
			return Settings{}, fmt.Errorf("%w: %s=%v", errInvalidWeight, id, w)
		}
	}
	return settings, nil
}

// Save writes settings as indented JSON and creates parent directories.
func (s *SettingsStore) Save(settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o644)
}
