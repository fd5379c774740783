// Package config handles application configuration loading and management.
package config

import (
	"time"

	"github.com/Faultbox/midgard-lobby/internal/logger"
)

// Config holds all application settings.
type Config struct {
	Viewer  ViewerConfig  `yaml:"viewer"`
	Server  ServerConfig  `yaml:"server"`
	Data    DataConfig    `yaml:"data"`
	Player  PlayerConfig  `yaml:"player"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig holds scene and catalog file locations.
type DataConfig struct {
	ScenePath string `yaml:"scene_path"` // Scene description (.yaml, .json, .toml)
	FeedPath  string `yaml:"feed_path"`  // Catalog item feed (JSON)
	AssetRoot string `yaml:"asset_root"` // Base directory for relative image paths
	Theme     string `yaml:"theme"`      // Theme applied at startup
	Watch     bool   `yaml:"watch"`      // Rebuild when the scene file changes
}

// ViewerConfig holds debug viewer window settings.
type ViewerConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit"`
	ShowFPS    bool `yaml:"show_fps"`
	Wireframe  bool `yaml:"wireframe"` // Draw collider outlines

	SunAzimuth   float32 `yaml:"sun_azimuth"`   // Degrees around +Y from +Z
	SunElevation float32 `yaml:"sun_elevation"` // Degrees above the horizon
}

// ServerConfig holds the inspection API settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

// PlayerConfig holds avatar movement settings.
type PlayerConfig struct {
	Radius    float32 `yaml:"radius"`
	Speed     float32 `yaml:"speed"`
	EyeHeight float32 `yaml:"eye_height"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"` // console or json
	LogFile string `yaml:"log_file"`
}

// LoggerOptions converts the logging section for logger.InitWith.
func (c LoggingConfig) LoggerOptions() logger.Options {
	opts := logger.Options{Level: c.Level, Format: c.Format, Console: true}
	if c.LogFile != "" {
		opts.File = logger.DefaultFileConfig(c.LogFile)
	}
	return opts
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Viewer: ViewerConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,

			SunAzimuth:   37,
			SunElevation: 63,
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8089",
			AllowedOrigins: []string{"*"},
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
		},
		Data: DataConfig{
			ScenePath: "",
			FeedPath:  "",
			AssetRoot: ".",
			Theme:     "default",
		},
		Player: PlayerConfig{
			Radius:    0.35,
			Speed:     4,
			EyeHeight: 1.6,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "console",
			LogFile: "",
		},
	}
}
