package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Faultbox/midgard-lobby/internal/catalog"
	"github.com/Faultbox/midgard-lobby/internal/engine/collision"
	"github.com/Faultbox/midgard-lobby/internal/layout"
	"github.com/Faultbox/midgard-lobby/internal/lobby"
	"github.com/Faultbox/midgard-lobby/pkg/math"
)

type layoutReport struct {
	Theme        string                 `json:"theme"`
	Bounds       math.Rect              `json:"bounds"`
	Source       layout.BoundsSource    `json:"source"`
	Zones        []layout.ProtectedZone `json:"zones"`
	Colliders    []collision.TagCount   `json:"colliders"`
	CatalogRooms []catalog.Room         `json:"catalogRooms"`
	Targets      []catalog.Target       `json:"targets"`
}

func reportFor(l *lobby.Lobby) layoutReport {
	return layoutReport{
		Theme:        l.Theme(),
		Bounds:       l.RoomBounds(),
		Source:       l.BoundsSource(),
		Zones:        l.ProtectedZones(),
		Colliders:    l.PropStats().Colliders,
		CatalogRooms: l.CatalogRooms(),
		Targets:      l.Targets(),
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLayoutCmd(v *viper.Viper) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the generated layout: bounds, zones, catalog rooms and cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, l, mgr, err := openLobby(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer mgr.Close()
			defer l.Close()

			r := reportFor(l)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), r)
			}
			return printLayout(cmd.OutOrStdout(), r)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printLayout(out io.Writer, r layoutReport) error {
	b := r.Bounds
	fmt.Fprintf(out, "theme:  %s\n", r.Theme)
	fmt.Fprintf(out, "bounds: x %.2f..%.2f  z %.2f..%.2f  (%s)\n", b.MinX, b.MaxX, b.MinZ, b.MaxZ, r.Source)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nZONE\tMIN X\tMAX X\tMIN Z\tMAX Z")
	for _, z := range r.Zones {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\n", z.ID, z.Rect.MinX, z.Rect.MaxX, z.Rect.MinZ, z.Rect.MaxZ)
	}
	fmt.Fprintln(tw, "\nTAG\tCOLLIDERS")
	for _, c := range r.Colliders {
		fmt.Fprintf(tw, "%s\t%d\n", c.Tag, c.Count)
	}
	fmt.Fprintln(tw, "\nCATALOG ROOM\tCAPACITY\tCENTER\tCARDS")
	cards := map[string]int{}
	for _, t := range r.Targets {
		cards[t.Category]++
	}
	for _, room := range r.CatalogRooms {
		// cards fill rooms in order
		n := min(max(cards[room.Category]-room.Index*room.Capacity, 0), room.Capacity)
		fmt.Fprintf(tw, "%s\t%d\t%.1f,%.1f\t%d\n",
			catalog.RoomTag(room.Category, room.Index), room.Capacity, room.Center.X, room.Center.Z, n)
	}
	return tw.Flush()
}

func newCollidersCmd(v *viper.Viper) *cobra.Command {
	var (
		asJSON bool
		tag    string
	)
	cmd := &cobra.Command{
		Use:   "colliders",
		Short: "List registered colliders",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, l, mgr, err := openLobby(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer mgr.Close()
			defer l.Close()

			var cs []collision.Collider
			for _, c := range l.Colliders() {
				if tag == "" || strings.HasPrefix(c.Tag, tag) {
					cs = append(cs, c)
				}
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), cs)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TAG\tID\tX\tY\tZ")
			for _, c := range cs {
				fmt.Fprintf(tw, "%s\t%s\t%.2f..%.2f\t%.2f..%.2f\t%.2f..%.2f\n",
					c.Tag, c.ID, c.MinX, c.MaxX, c.MinY, c.MaxY, c.MinZ, c.MaxZ)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().StringVar(&tag, "tag", "", "only colliders whose tag starts with this prefix")
	return cmd
}
