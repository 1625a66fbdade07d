// Package onboarding holds the persisted configuration and the first-run
// setup flows (a bubbletea TUI and a plain-stdin wizard).
package onboarding

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPath is where the configuration lives unless overridden.
const DefaultPath = "~/.doppel/config.json"

// Config represents the settings gathered during onboarding.
type Config struct {
	// Persona
	Name       string `json:"name"`
	DocsDir    string `json:"docs_dir"`
	ProfileURL string `json:"profile_url,omitempty"`

	// Generation backend
	Provider string `json:"provider"`
	Model    string `json:"model"`
	BaseURL  string `json:"base_url,omitempty"`
	APIKey   string `json:"api_key,omitempty"`

	// Evaluation backend (optional)
	EvalModel  string `json:"eval_model,omitempty"`
	EvalAPIKey string `json:"eval_api_key,omitempty"`

	// Notifications (optional)
	PushoverToken string `json:"pushover_token,omitempty"`
	PushoverUser  string `json:"pushover_user,omitempty"`
}

// LoadFromFile loads the configuration from a JSON file.
func LoadFromFile(path string) (*Config, error) {
	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveToFile writes the configuration as indented JSON, creating the parent
// directory when needed.
func (cfg *Config) SaveToFile(path string) error {
	path, err := expandHome(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[2:]), nil
}
