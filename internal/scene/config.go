// Package scene describes the declarative lobby configuration: the primary
// room, its floorplan annexes, catalog rooms and per-theme overrides.
//
// Geometry is regenerated from this description on every load and theme
// change; nothing here is persisted back.
package scene

// Config is a complete scene description.
type Config struct {
	Room    RoomConfig             `yaml:"room" toml:"room" json:"room"`
	Catalog CatalogConfig          `yaml:"catalog" toml:"catalog" json:"catalog"`
	Themes  map[string]ThemeConfig `yaml:"themes" toml:"themes" json:"themes,omitempty"`
	Zones   []Zone                 `yaml:"zones" toml:"zones" json:"zones,omitempty"`
}

// RoomConfig is the primary room shell.
type RoomConfig struct {
	Size                   [3]float32          `yaml:"size" toml:"size" json:"size"`
	FloorY                 float32             `yaml:"floorY" toml:"floorY" json:"floorY"`
	CollisionWallThickness float32             `yaml:"collisionWallThickness" toml:"collisionWallThickness" json:"collisionWallThickness"`
	FrontEntrance          FrontEntrance       `yaml:"frontEntrance" toml:"frontEntrance" json:"frontEntrance"`
	SideDoorways           SideDoorways        `yaml:"sideDoorways" toml:"sideDoorways" json:"sideDoorways"`
	ProtectedZones         []ProtectedZoneSpec `yaml:"protectedZones" toml:"protectedZones" json:"protectedZones,omitempty"`
	Floorplan              FloorplanConfig     `yaml:"floorplan" toml:"floorplan" json:"floorplan"`
}

// Width returns the X extent.
func (r RoomConfig) Width() float32 { return r.Size[0] }

// Height returns the Y extent.
func (r RoomConfig) Height() float32 { return r.Size[1] }

// Depth returns the Z extent.
func (r RoomConfig) Depth() float32 { return r.Size[2] }

// FrontEntrance is the doorway carved into the front (+Z) wall.
type FrontEntrance struct {
	Enabled bool    `yaml:"enabled" toml:"enabled" json:"enabled"`
	Width   float32 `yaml:"width" toml:"width" json:"width"`
	Height  float32 `yaml:"height" toml:"height" json:"height"`
	CenterX float32 `yaml:"centerX" toml:"centerX" json:"centerX"`
}

// SideDoorways are the matching doorways in the east and west walls.
type SideDoorways struct {
	Enabled bool    `yaml:"enabled" toml:"enabled" json:"enabled"`
	Width   float32 `yaml:"width" toml:"width" json:"width"`
	Height  float32 `yaml:"height" toml:"height" json:"height"`
	CenterZ float32 `yaml:"centerZ" toml:"centerZ" json:"centerZ"`
	Glass   bool    `yaml:"glass" toml:"glass" json:"glass"`
}

// FloorplanConfig lists annexes attached to the primary room. The same shape
// is used for the base floorplan and for theme floorplans.
type FloorplanConfig struct {
	Annexes              []AnnexConfig      `yaml:"annexes" toml:"annexes" json:"annexes,omitempty"`
	NavigationBounds     *BoundsConfig      `yaml:"navigationBounds" toml:"navigationBounds" json:"navigationBounds,omitempty"`
	NavigationProfile    *NavigationProfile `yaml:"navigationProfile" toml:"navigationProfile" json:"navigationProfile,omitempty"`
	Extras               []BoxConfig        `yaml:"extras" toml:"extras" json:"extras,omitempty"`
	ProtectedZonePattern string             `yaml:"protectedZonePattern" toml:"protectedZonePattern" json:"protectedZonePattern,omitempty"`
}

// AnnexConfig is one connected side room.
type AnnexConfig struct {
	ID              string     `yaml:"id" toml:"id" json:"id"`
	Enabled         *bool      `yaml:"enabled" toml:"enabled" json:"enabled,omitempty"`
	Size            [3]float32 `yaml:"size" toml:"size" json:"size"`
	Position        [3]float32 `yaml:"position" toml:"position" json:"position"`
	OpenSide        Side       `yaml:"openSide" toml:"openSide" json:"openSide"`
	NavigationInset float32    `yaml:"navigationInset" toml:"navigationInset" json:"navigationInset"`
}

// IsEnabled reports whether the annex should be built. Annexes are enabled
// unless explicitly disabled.
func (a AnnexConfig) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

// BoundsConfig is an explicit walkable rectangle.
type BoundsConfig struct {
	MinX float32 `yaml:"minX" toml:"minX" json:"minX"`
	MaxX float32 `yaml:"maxX" toml:"maxX" json:"maxX"`
	MinZ float32 `yaml:"minZ" toml:"minZ" json:"minZ"`
	MaxZ float32 `yaml:"maxZ" toml:"maxZ" json:"maxZ"`
}

// NavigationProfile tunes how a theme floorplan affects navigation.
type NavigationProfile struct {
	// ExtendBounds set to false keeps theme annexes out of the bounds union.
	ExtendBounds *bool `yaml:"extendBounds" toml:"extendBounds" json:"extendBounds,omitempty"`
}

// BoxConfig is a free-standing blocking prop.
type BoxConfig struct {
	ID  string     `yaml:"id" toml:"id" json:"id"`
	Min [3]float32 `yaml:"min" toml:"min" json:"min"`
	Max [3]float32 `yaml:"max" toml:"max" json:"max"`
}

// ProtectedZoneSpec is a rectangle where annex walls must never be placed.
type ProtectedZoneSpec struct {
	ID   string  `yaml:"id" toml:"id" json:"id"`
	MinX float32 `yaml:"minX" toml:"minX" json:"minX"`
	MaxX float32 `yaml:"maxX" toml:"maxX" json:"maxX"`
	MinZ float32 `yaml:"minZ" toml:"minZ" json:"minZ"`
	MaxZ float32 `yaml:"maxZ" toml:"maxZ" json:"maxZ"`
}

// Zone is a named scene area, e.g. "courtyard-path". Zones whose name
// matches the protected-zone pattern become protected zones.
type Zone struct {
	Name string     `yaml:"name" toml:"name" json:"name"`
	Min  [2]float32 `yaml:"min" toml:"min" json:"min"`
	Max  [2]float32 `yaml:"max" toml:"max" json:"max"`
}

// CatalogConfig configures catalog display rooms and theme content.
type CatalogConfig struct {
	Feed         string                              `yaml:"feed" toml:"feed" json:"feed,omitempty"`
	Rooms        map[string]CatalogRoomConfig        `yaml:"rooms" toml:"rooms" json:"rooms"`
	ThemeContent map[string]map[string]ContentFilter `yaml:"themeContent" toml:"themeContent" json:"themeContent,omitempty"`
}

// CatalogRoomConfig describes one category's chain of display rooms.
type CatalogRoomConfig struct {
	Size          [3]float32    `yaml:"size" toml:"size" json:"size"`
	Origin        [3]float32    `yaml:"origin" toml:"origin" json:"origin"`
	Step          [3]float32    `yaml:"step" toml:"step" json:"step"`
	OuterSide     Side          `yaml:"outerSide" toml:"outerSide" json:"outerSide"`
	WallThickness float32       `yaml:"wallThickness" toml:"wallThickness" json:"wallThickness"`
	Layout        CatalogLayout `yaml:"layout" toml:"layout" json:"layout"`
	Card          CardSize      `yaml:"card" toml:"card" json:"card"`
	Connector     DoorwaySize   `yaml:"connector" toml:"connector" json:"connector"`
	Entrance      *Entrance     `yaml:"entrance" toml:"entrance" json:"entrance,omitempty"`
}

// CatalogLayout controls card packing along walls.
type CatalogLayout struct {
	MaxItems      int     `yaml:"maxItems" toml:"maxItems" json:"maxItems"`
	WallMargin    float32 `yaml:"wallMargin" toml:"wallMargin" json:"wallMargin"`
	HorizontalGap float32 `yaml:"horizontalGap" toml:"horizontalGap" json:"horizontalGap"`
	DisplayY      float32 `yaml:"displayY" toml:"displayY" json:"displayY"`
}

// CardSize is the size of one catalog card.
type CardSize struct {
	Width  float32 `yaml:"width" toml:"width" json:"width"`
	Height float32 `yaml:"height" toml:"height" json:"height"`
}

// DoorwaySize is the opening size of a connector doorway between chained rooms.
type DoorwaySize struct {
	Width  float32 `yaml:"width" toml:"width" json:"width"`
	Height float32 `yaml:"height" toml:"height" json:"height"`
}

// Entrance is a doorway in the inner-side wall of the first catalog room.
type Entrance struct {
	Width   float32 `yaml:"width" toml:"width" json:"width"`
	Height  float32 `yaml:"height" toml:"height" json:"height"`
	CenterZ float32 `yaml:"centerZ" toml:"centerZ" json:"centerZ"`
}

// ContentFilter selects which feed items a catalog room shows for a theme.
type ContentFilter struct {
	ItemIDs []string `yaml:"itemIds" toml:"itemIds" json:"itemIds,omitempty"`
	TagsAny []string `yaml:"tagsAny" toml:"tagsAny" json:"tagsAny,omitempty"`
}

// ThemeConfig is what a theme may change about the layout.
type ThemeConfig struct {
	Room      *RoomOverride    `yaml:"room" toml:"room" json:"room,omitempty"`
	Floorplan *FloorplanConfig `yaml:"floorplan" toml:"floorplan" json:"floorplan,omitempty"`
}

// Filter returns the content filter for a catalog room under themeID,
// falling back to the "default" theme content.
func (c CatalogConfig) Filter(themeID, roomID string) ContentFilter {
	if rooms, ok := c.ThemeContent[themeID]; ok {
		if f, ok := rooms[roomID]; ok {
			return f
		}
	}
	return c.ThemeContent[DefaultTheme][roomID]
}

// DefaultTheme is the theme content key used when a theme has no entry.
const DefaultTheme = "default"
