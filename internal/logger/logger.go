// Package logger provides structured logging using zap.
//
// Layout and catalog packages log through Named child loggers so a lobby can
// be built before Init is called; until then they write to a no-op core.
package logger

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Console is where console output goes. Tools that print results on
// stdout point it at stderr before Init.
var Console io.Writer = os.Stdout

// Log is the global logger instance.
var Log = zap.NewNop()

// Sugar is the sugared logger for convenient logging.
var Sugar = Log.Sugar()

// FileConfig holds rotating log file settings.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultFileConfig returns default file logging settings.
func DefaultFileConfig(path string) FileConfig {
	return FileConfig{
		Path:       path,
		MaxSizeMB:  20,
		MaxBackups: 5,
		MaxAgeDays: 14,
		Compress:   true,
	}
}

// Options selects where and how logs are written.
type Options struct {
	Level string
	// Format is "console" (default) or "json". JSON suits the inspection
	// server when its output is collected.
	Format  string
	File    FileConfig
	Console bool
}

// Init logs to the console and, when logFile is set, to a rotating file.
func Init(level string, logFile string) error {
	opts := Options{Level: level, Console: true}
	if logFile != "" {
		opts.File = DefaultFileConfig(logFile)
	}
	return InitWith(opts)
}

// InitWith replaces the global logger. With neither Console nor File.Path
// set, logging is disabled.
func InitWith(opts Options) error {
	lvl := parseLevel(opts.Level)
	json := strings.EqualFold(opts.Format, "json")

	var cores []zapcore.Core
	if opts.Console {
		cores = append(cores, zapcore.NewCore(encoder(json, true), zapcore.AddSync(Console), lvl))
	}
	if opts.File.Path != "" {
		w := &lumberjack.Logger{
			Filename:   opts.File.Path,
			MaxSize:    opts.File.MaxSizeMB,
			MaxBackups: opts.File.MaxBackups,
			MaxAge:     opts.File.MaxAgeDays,
			Compress:   opts.File.Compress,
			LocalTime:  true,
		}
		cores = append(cores, zapcore.NewCore(encoder(json, false), zapcore.AddSync(w), lvl))
	}

	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	Sugar = Log.Sugar()
	return nil
}

func encoder(json, console bool) zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		CallerKey:        "caller",
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	if json {
		return zapcore.NewJSONEncoder(cfg)
	}
	if console {
		// Short clock and colors for terminals.
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(cfg)
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = Log.Sync()
}

// Named returns the logger of a lobby subsystem, e.g. "layout" or "catalog".
// It resolves against the global logger on every call, so loggers created
// in package vars still reach the cores set up later by Init.
func Named(component string) *Component {
	return &Component{name: component}
}

// Component is a lazily bound named logger.
type Component struct {
	name string
}

// L returns the zap logger for the component.
func (c *Component) L() *zap.Logger {
	return Log.Named(c.name)
}

func (c *Component) Debug(msg string, fields ...zap.Field) { c.L().Debug(msg, fields...) }
func (c *Component) Info(msg string, fields ...zap.Field)  { c.L().Info(msg, fields...) }
func (c *Component) Warn(msg string, fields ...zap.Field)  { c.L().Warn(msg, fields...) }
func (c *Component) Error(msg string, fields ...zap.Field) { c.L().Error(msg, fields...) }

// Debug logs a debug message.
func Debug(msg string, fields ...zap.Field) {
	Log.Debug(msg, fields...)
}

// Info logs an info message.
func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

// Warn logs a warning message.
func Warn(msg string, fields ...zap.Field) {
	Log.Warn(msg, fields...)
}

// Error logs an error message.
func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}

// Fatal logs a fatal message and exits.
func Fatal(msg string, fields ...zap.Field) {
	Log.Fatal(msg, fields...)
}
