package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Faultbox/midgard-lobby/internal/catalog"
	"github.com/Faultbox/midgard-lobby/internal/scene"
)

var errInvalid = errors.New("validation failed")

func newValidateCmd(v *viper.Viper) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate <scene>...",
		Short: "Check scene files and the catalog feed",
		Long: "Decodes each scene file and reports every value that would be " +
			"replaced by a default, plus catalog rooms that cannot hold a card. " +
			"The --feed file, when given, must decode.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				cfg, notes, err := scene.Check(path)
				if err != nil {
					fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
					failed++
					continue
				}
				notes = append(notes, capacityNotes(cfg)...)
				if len(notes) == 0 {
					fmt.Fprintf(out, "ok   %s\n", path)
					continue
				}
				if strict {
					failed++
				}
				fmt.Fprintf(out, "warn %s\n", path)
				for _, n := range notes {
					fmt.Fprintf(out, "     - %s\n", n)
				}
			}

			if feed := v.GetString("feed"); feed != "" {
				items, err := catalog.LoadFeed(feed)
				if err != nil {
					fmt.Fprintf(out, "FAIL %s: %v\n", feed, err)
					failed++
				} else {
					fmt.Fprintf(out, "ok   %s (%d items)\n", feed, len(items))
				}
			}

			if failed > 0 {
				return fmt.Errorf("%w: %d file(s)", errInvalid, failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as failures")
	return cmd
}

// capacityNotes flags category rooms whose walls fit no card.
func capacityNotes(cfg *scene.Config) []string {
	cats := make([]string, 0, len(cfg.Catalog.Rooms))
	for cat := range cfg.Catalog.Rooms {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	var notes []string
	for _, cat := range cats {
		if catalog.Capacity(cfg.Catalog.Rooms[cat]) == 0 {
			notes = append(notes, fmt.Sprintf("catalog.rooms.%s holds no cards", cat))
		}
	}
	return notes
}
