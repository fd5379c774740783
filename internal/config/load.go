package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable that points at a config file
// when no -config flag is given.
const EnvConfig = "LOBBY_CONFIG"

// Load merges defaults, the config file and command-line flags, in that
// order of priority.
func Load() (*Config, error) {
	path := ConfigPath()
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		path = findConfigFile()
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		return nil, err
	}
	applyFlags(cfg)
	return cfg, nil
}

// LoadFrom loads defaults merged with the YAML file at path. An empty path
// returns the defaults. Unknown keys are an error so typos do not pass
// silently.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if err := loadFromFile(cfg, path); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing file among ./lobby.yaml,
// ./config.yaml and config.yaml in ConfigDir.
func findConfigFile() string {
	for _, path := range []string{
		"lobby.yaml",
		"config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	} {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "MidgardLobby")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "MidgardLobby")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "midgard-lobby")
	}
	return filepath.Join(home, ".config", "midgard-lobby")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
