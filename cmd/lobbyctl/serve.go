package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Faultbox/midgard-lobby/internal/server"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lobby over HTTP and WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, l, mgr, err := openLobby(ctx, v)
			if err != nil {
				return err
			}
			defer mgr.Close()
			defer l.Close()

			if addr != "" {
				cfg.Server.Addr = addr
			}
			return server.New(l, cfg.Server, cfg.Player).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
