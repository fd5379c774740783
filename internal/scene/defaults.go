package scene

import "fmt"

// Defaults substituted for missing or non-positive values.
const (
	DefaultRoomWidth     = 12
	DefaultRoomHeight    = 4
	DefaultRoomDepth     = 12
	DefaultWallThickness = 0.2

	DefaultCatalogRoomSize = 8
	DefaultCardWidth       = 1.2
	DefaultCardHeight      = 0.9
	DefaultHorizontalGap   = 0.4
	DefaultWallMargin      = 1.6
	DefaultDisplayY        = 1.6
	DefaultMaxItems        = 24
	DefaultConnectorWidth  = 1.2
	DefaultConnectorHeight = 2.4

	// MinConnectorWidth keeps chain connectors passable for the default
	// avatar radius of 0.35 with some slack.
	MinConnectorWidth = 1.0
	// connectorJambs is the wall left beside a connector, two minimal jambs.
	connectorJambs = 0.2

	DefaultProtectedZonePattern = `(?i)^(courtyard|outdoor|path)`
)

// Default returns a small lobby: a 12x4x12 room whose front entrance opens
// into a gallery annex and whose glass side doorways lead into the shop
// (west) and projects (east) catalog chains. Both chains run north.
func Default() *Config {
	open := true
	cfg := &Config{
		Room: RoomConfig{
			Size:                   [3]float32{12, 4, 12},
			CollisionWallThickness: 0.2,
			FrontEntrance:          FrontEntrance{Enabled: true, Width: 3, Height: 2.6},
			SideDoorways:           SideDoorways{Enabled: true, Width: 2, Height: 2.4, Glass: true},
			Floorplan: FloorplanConfig{
				Annexes: []AnnexConfig{{
					ID:              "gallery",
					Enabled:         &open,
					Size:            [3]float32{8, 4, 8},
					Position:        [3]float32{0, 0, 10},
					OpenSide:        SideNorth,
					NavigationInset: 0.3,
				}},
			},
		},
		Catalog: CatalogConfig{
			Rooms: map[string]CatalogRoomConfig{
				"shop": {
					Size:      [3]float32{8, 4, 8},
					Origin:    [3]float32{-10.25, 0, 0},
					Step:      [3]float32{0, 0, -8},
					OuterSide: SideWest,
					Entrance:  &Entrance{Width: 2, Height: 2.4},
				},
				"projects": {
					Size:      [3]float32{8, 4, 8},
					Origin:    [3]float32{10.25, 0, 0},
					Step:      [3]float32{0, 0, -8},
					OuterSide: SideEast,
					Entrance:  &Entrance{Width: 2, Height: 2.4},
				},
			},
			ThemeContent: map[string]map[string]ContentFilter{
				DefaultTheme: {},
			},
		},
	}
	cfg.Normalize()
	return cfg
}

// Normalize fills missing values with defaults. It never fails; every
// substitution is described in the returned list so callers can log it.
// Range clamping that depends on geometry (doorway widths, annex insets)
// happens in the layout builders.
func (c *Config) Normalize() []string {
	var notes []string
	note := func(format string, args ...any) {
		notes = append(notes, fmt.Sprintf(format, args...))
	}

	room := &c.Room
	defaults := [3]float32{DefaultRoomWidth, DefaultRoomHeight, DefaultRoomDepth}
	for i := range room.Size {
		if room.Size[i] <= 0 {
			note("room.size[%d]=%g replaced by %g", i, room.Size[i], defaults[i])
			room.Size[i] = defaults[i]
		}
	}
	if room.CollisionWallThickness <= 0 {
		note("room.collisionWallThickness=%g replaced by %g", room.CollisionWallThickness, DefaultWallThickness)
		room.CollisionWallThickness = DefaultWallThickness
	}
	if room.Floorplan.ProtectedZonePattern == "" {
		room.Floorplan.ProtectedZonePattern = DefaultProtectedZonePattern
	}

	for id, rc := range c.Catalog.Rooms {
		c.Catalog.Rooms[id] = rc.normalized(id, note)
	}
	return notes
}

func (rc CatalogRoomConfig) normalized(id string, note func(string, ...any)) CatalogRoomConfig {
	for i := range rc.Size {
		if rc.Size[i] <= 0 {
			note("catalog.rooms.%s.size[%d]=%g replaced by %g", id, i, rc.Size[i], float32(DefaultCatalogRoomSize))
			rc.Size[i] = DefaultCatalogRoomSize
		}
	}
	if rc.Step == ([3]float32{}) {
		rc.Step = [3]float32{0, 0, -rc.Size[2]}
	}
	if rc.OuterSide != SideEast && rc.OuterSide != SideWest {
		if rc.OuterSide != SideNone {
			note("catalog.rooms.%s.outerSide=%s replaced by east", id, rc.OuterSide)
		}
		rc.OuterSide = SideEast
	}
	if rc.WallThickness <= 0 {
		rc.WallThickness = DefaultWallThickness
	}

	l := &rc.Layout
	if l.MaxItems <= 0 {
		l.MaxItems = DefaultMaxItems
	}
	if l.WallMargin <= 0 {
		l.WallMargin = DefaultWallMargin
	}
	if l.HorizontalGap <= 0 {
		l.HorizontalGap = DefaultHorizontalGap
	}
	if l.DisplayY <= 0 {
		l.DisplayY = DefaultDisplayY
	}
	if rc.Card.Width <= 0 {
		rc.Card.Width = DefaultCardWidth
	}
	if rc.Card.Height <= 0 {
		rc.Card.Height = DefaultCardHeight
	}
	if rc.Connector.Width <= 0 {
		rc.Connector.Width = DefaultConnectorWidth
	}
	if rc.Connector.Width < MinConnectorWidth {
		note("catalog.rooms.%s.connector.width=%g raised to %g", id, rc.Connector.Width, float32(MinConnectorWidth))
		rc.Connector.Width = MinConnectorWidth
	}
	if rc.Connector.Height <= 0 {
		rc.Connector.Height = min(DefaultConnectorHeight, rc.Size[1]-0.2)
	}
	// connectors sit in the wall margin beside the cards
	if need := rc.Connector.Width + connectorJambs; l.WallMargin < need {
		note("catalog.rooms.%s.layout.wallMargin=%g raised to %g to fit the connector", id, l.WallMargin, need)
		l.WallMargin = need
	}
	return rc
}
