package scene

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-lobby/internal/logger"
)

// ErrUnknownFormat is returned for scene files with an unsupported extension.
var ErrUnknownFormat = errors.New("unknown scene format")

// Format is a scene file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var log = logger.Named("scene")

// FormatFor picks the decoder for a file name. JSON is decoded as YAML.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Load reads, decodes and normalizes a scene file.
func Load(path string) (*Config, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("parsing scene %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and normalizes scene data.
func Parse(data []byte, format Format) (*Config, error) {
	cfg, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	for _, n := range cfg.Normalize() {
		log.Warn("scene config adjusted", zap.String("detail", n))
	}
	return cfg, nil
}

// Check decodes the scene file at path and returns every substitution
// Normalize would make, without logging them.
func Check(path string) (*Config, []string, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := Decode(data, format)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing scene %s: %w", path, err)
	}
	notes := cfg.Normalize()
	if _, err := regexp.Compile(cfg.Room.Floorplan.ProtectedZonePattern); err != nil {
		notes = append(notes, fmt.Sprintf("room.floorplan.protectedZonePattern invalid, default used: %v", err))
	}
	return cfg, notes, nil
}

// Decode decodes scene data without normalizing it.
func Decode(data []byte, format Format) (*Config, error) {
	cfg := &Config{}
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return cfg, nil
}

// Theme returns the theme config for id. Unknown themes yield an empty
// config, which means "no overrides".
func (c *Config) Theme(id string) ThemeConfig {
	return c.Themes[id]
}

// ThemeIDs returns every configured theme id plus the catalog theme content
// keys, deduplicated, with DefaultTheme first when present.
func (c *Config) ThemeIDs() []string {
	seen := map[string]bool{}
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if _, ok := c.Themes[DefaultTheme]; ok {
		add(DefaultTheme)
	} else if _, ok := c.Catalog.ThemeContent[DefaultTheme]; ok {
		add(DefaultTheme)
	}
	for _, id := range sortedKeys(c.Themes) {
		add(id)
	}
	for _, id := range sortedKeys(c.Catalog.ThemeContent) {
		add(id)
	}
	return ids
}
