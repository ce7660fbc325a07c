package appconfig

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	yaml "sigs.k8s.io/yaml"
)

type ViewerConfig struct {
	Theme string `json:"theme"`
}

type LogsConfig struct {
	// Scrollback caps the number of log lines kept in memory per tail.
	Scrollback int `json:"scrollback"`
	// TailLines bounds the initial backfill when a tail starts.
	TailLines int `json:"tailLines"`
}

type Config struct {
	Viewer ViewerConfig `json:"viewer"`
	Logs   LogsConfig   `json:"logs"`
}

func Default() *Config {
	return &Config{
		Viewer: ViewerConfig{Theme: "dracula"},
		Logs:   LogsConfig{Scrollback: 2000, TailLines: 500},
	}
}

func path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".podscope", "config.yaml"), nil
}

// Load reads ~/.podscope/config.yaml if present, otherwise returns defaults.
// Missing or invalid fields fall back to their defaults.
func Load() (*Config, error) {
	cfg := Default()
	p, err := path()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return Default(), err
	}
	if cfg.Viewer.Theme == "" {
		cfg.Viewer.Theme = "dracula"
	}
	if cfg.Logs.Scrollback <= 0 {
		cfg.Logs.Scrollback = 2000
	}
	if cfg.Logs.TailLines <= 0 {
		cfg.Logs.TailLines = 500
	}
	return cfg, nil
}

// Save writes the config to ~/.podscope/config.yaml, creating the directory
// if needed.
func Save(cfg *Config) error {
	p, err := path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	out := *cfg
	out.Viewer.Theme = strings.ToLower(out.Viewer.Theme)
	data, err := yaml.Marshal(&out)
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}
