package main

import (
	"context"
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Faultbox/midgard-lobby/internal/app"
	"github.com/Faultbox/midgard-lobby/internal/assets"
	"github.com/Faultbox/midgard-lobby/internal/config"
	"github.com/Faultbox/midgard-lobby/internal/lobby"
	"github.com/Faultbox/midgard-lobby/internal/logger"
)

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "lobbyctl",
		Short:         "Inspect and serve generated lobby layouts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initEnv(cmd, v)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "app config file (default ./config.yaml)")
	pf.String("scene", "", "scene description (.yaml, .json, .toml)")
	pf.String("feed", "", "catalog feed (JSON)")
	pf.String("theme", "", "theme to apply")
	pf.String("assets", "", "base directory for relative image paths")
	pf.String("log-level", "warn", "log level")
	pf.String("log-format", "console", "log format (console, json)")
	for _, name := range []string{"config", "scene", "feed", "theme", "assets", "log-level", "log-format"} {
		_ = v.BindPFlag(name, pf.Lookup(name))
	}

	root.AddCommand(
		newLayoutCmd(v),
		newCollidersCmd(v),
		newValidateCmd(v),
		newServeCmd(v),
		newWalkCmd(v),
	)
	return root
}

// initEnv loads an optional .env file, then binds LOBBY_* variables.
func initEnv(cmd *cobra.Command, v *viper.Viper) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	v.SetEnvPrefix("LOBBY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	logger.Console = cmd.ErrOrStderr()
	return logger.InitWith(logger.Options{
		Level:   v.GetString("log-level"),
		Format:  v.GetString("log-format"),
		Console: true,
	})
}

// loadConfig merges the app config file with flag and env overrides.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg, err := config.LoadFrom(v.GetString("config"))
	if err != nil {
		return nil, err
	}
	if s := v.GetString("scene"); s != "" {
		cfg.Data.ScenePath = s
	}
	if s := v.GetString("feed"); s != "" {
		cfg.Data.FeedPath = s
	}
	if s := v.GetString("theme"); s != "" {
		cfg.Data.Theme = s
	}
	if s := v.GetString("assets"); s != "" {
		cfg.Data.AssetRoot = s
	}
	return cfg, nil
}

// openLobby builds the lobby described by the merged config.
func openLobby(ctx context.Context, v *viper.Viper) (*config.Config, *lobby.Lobby, *assets.Manager, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, nil, nil, err
	}
	l, mgr, err := app.Open(ctx, cfg.Data, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, l, mgr, nil
}
