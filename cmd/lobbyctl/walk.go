package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Faultbox/midgard-lobby/internal/tui"
)

func newWalkCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "walk",
		Short: "Walk the lobby floor plan in the terminal",
		Long: "Top-down walkthrough: arrows or WASD move, E inspects the card " +
			"ahead, T cycles themes, Q quits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, mgr, err := openLobby(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer mgr.Close()
			defer l.Close()

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("creating screen: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("initializing screen: %w", err)
			}
			defer screen.Fini()

			return tui.New(screen, l, cfg.Player.Radius, cfg.Player.EyeHeight).Run(cmd.Context())
		},
	}
}
