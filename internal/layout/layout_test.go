package layout

import (
	"slices"
	"testing"

	"github.com/Faultbox/midgard-lobby/internal/engine/collision"
	"github.com/Faultbox/midgard-lobby/internal/engine/mesh"
	"github.com/Faultbox/midgard-lobby/internal/scene"
	"github.com/Faultbox/midgard-lobby/pkg/math"
)

const eps = 1e-4

func near(a, b float32) bool {
	d := a - b
	return d < eps && d > -eps
}

func scenarioRoom() scene.RoomConfig {
	return scene.RoomConfig{
		Size:                   [3]float32{10, 4, 10},
		CollisionWallThickness: 0.2,
		FrontEntrance:          scene.FrontEntrance{Enabled: true, Width: 4, Height: 2.5},
	}
}

func TestSplitWall(t *testing.T) {
	tests := []struct {
		name    string
		opening *Opening
		kinds   []PanelKind
	}{
		{"solid", nil, []PanelKind{PanelFull}},
		{"centered", &Opening{Width: 4, Height: 2.5}, []PanelKind{PanelLeftJamb, PanelRightJamb, PanelLintel}},
		{"full height", &Opening{Width: 2, Height: 10}, []PanelKind{PanelLeftJamb, PanelRightJamb, PanelLintel}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			panels := SplitWall(-5, 5, 4, tt.opening)
			var kinds []PanelKind
			for _, p := range panels {
				kinds = append(kinds, p.Kind)
			}
			if !slices.Equal(kinds, tt.kinds) {
				t.Errorf("kinds = %v, want %v", kinds, tt.kinds)
			}
		})
	}
}

func TestSplitWallDegenerate(t *testing.T) {
	if p := SplitWall(1, 1, 4, nil); p != nil {
		t.Errorf("zero-length wall = %v, want nil", p)
	}
	if p := SplitWall(0, 5, 0, nil); p != nil {
		t.Errorf("zero-height wall = %v, want nil", p)
	}
}

func TestClampOpening(t *testing.T) {
	tests := []struct {
		name    string
		in      Opening
		want    Opening
		changed bool
	}{
		{"fits", Opening{Width: 4, Height: 2.5}, Opening{Width: 4, Height: 2.5}, false},
		{"too wide", Opening{Width: 20, Height: 2.5}, Opening{Width: 9.8, Height: 2.5}, true},
		{"too narrow", Opening{Width: 0.1, Height: 2.5}, Opening{Width: MinDoorwayWidth, Height: 2.5}, true},
		{"too tall", Opening{Width: 2, Height: 8}, Opening{Width: 2, Height: 4 - MinLintelHeight}, true},
		{"too short", Opening{Width: 2, Height: 0.2}, Opening{Width: 2, Height: MinDoorwayHeight}, true},
		{"off wall", Opening{Width: 2, Height: 2, Center: 9}, Opening{Width: 2, Height: 2, Center: 3.9}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := ClampOpening(tt.in, -5, 5, 4)
			if changed != tt.changed {
				t.Errorf("changed = %v, want %v", changed, tt.changed)
			}
			if !near(got.Width, tt.want.Width) || !near(got.Height, tt.want.Height) || !near(got.Center, tt.want.Center) {
				t.Errorf("ClampOpening() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClampOpeningShortWall(t *testing.T) {
	for _, length := range []float32{0.15, 2 * MinJambWidth, 2*MinJambWidth + MinDoorwayWidth/2} {
		got, changed := ClampOpening(Opening{Width: 2, Height: 2}, 0, length, 4)
		if !got.Empty() || !changed {
			t.Errorf("length %v: ClampOpening() = %+v, %v; want empty, true", length, got, changed)
		}

		o := Opening{Width: 2, Height: 2}
		panels := SplitWall(0, length, 4, &o)
		if len(panels) != 1 || panels[0].Kind != PanelFull || panels[0].Length() != length {
			t.Errorf("length %v: SplitWall() = %+v, want one full panel", length, panels)
		}
	}

	got, _ := ClampOpening(Opening{Width: 2, Height: 2}, 0, 2*MinJambWidth+MinDoorwayWidth, 4)
	if !near(got.Width, MinDoorwayWidth) {
		t.Errorf("minimal wall width = %v, want %v", got.Width, MinDoorwayWidth)
	}
}

func TestBuildRoomShellFrontEntrance(t *testing.T) {
	shell := BuildRoomShell(scenarioRoom())

	var jambs []collision.Collider
	for _, c := range shell.Colliders {
		if c.Tag != collision.TagRoom {
			t.Errorf("collider %s tag = %q, want %q", c.ID, c.Tag, collision.TagRoom)
		}
		if c.MinZ < 5 && c.MaxZ > 5 {
			jambs = append(jambs, c)
		}
	}

	if len(jambs) != 2 {
		t.Fatalf("front wall colliders = %d, want 2", len(jambs))
	}
	for _, c := range jambs {
		if w := c.MaxX - c.MinX; !near(w, 3) {
			t.Errorf("jamb %s width = %v, want 3", c.ID, w)
		}
		if c.MinX < 2 && c.MaxX > -2 {
			t.Errorf("jamb %s spans the entrance [%v,%v]", c.ID, c.MinX, c.MaxX)
		}
	}

	// back, two jambs, east, west
	if len(shell.Colliders) != 5 {
		t.Errorf("colliders = %d, want 5", len(shell.Colliders))
	}
	if _, ok := shell.Openings[scene.SideSouth]; !ok {
		t.Error("front opening not recorded")
	}
}

func TestBuildRoomShellSideDoorwaysGlass(t *testing.T) {
	cfg := scenarioRoom()
	cfg.SideDoorways = scene.SideDoorways{Enabled: true, Width: 2, Height: 2.2, Glass: true}
	shell := BuildRoomShell(cfg)

	// back, front jambs, east jambs, west jambs
	if len(shell.Colliders) != 7 {
		t.Errorf("colliders = %d, want 7", len(shell.Colliders))
	}

	glass := 0
	for _, m := range shell.Meshes {
		if m.Material == mesh.MaterialGlass {
			glass++
		}
	}
	// two jambs and a lintel per side wall
	if glass != 6 {
		t.Errorf("glass meshes = %d, want 6", glass)
	}
}

func TestBuildRoomShellDegenerate(t *testing.T) {
	shell := BuildRoomShell(scene.RoomConfig{Size: [3]float32{0, 4, 10}})
	if len(shell.Colliders) != 0 || len(shell.Meshes) != 0 {
		t.Errorf("degenerate shell built %d colliders, %d meshes", len(shell.Colliders), len(shell.Meshes))
	}
}

func TestBuildAnnexesProtectedZone(t *testing.T) {
	annex := scene.AnnexConfig{
		ID:       "lounge",
		Size:     [3]float32{6, 3, 6},
		Position: [3]float32{10, 0, 0},
		OpenSide: scene.SideWest,
	}
	zones := []ProtectedZone{{ID: "courtyard", Rect: math.Rect{MinX: 8, MaxX: 12, MinZ: -4, MaxZ: -2.95}}}

	set := BuildAnnexes(AnnexTag(GroupBase), []scene.AnnexConfig{annex}, zones, 0, 0.2)
	if len(set.Annexes) != 1 {
		t.Fatalf("annexes = %d, want 1", len(set.Annexes))
	}

	a := set.Annexes[0]
	want := []scene.Side{scene.SideSouth, scene.SideEast}
	if !slices.Equal(a.Walls, want) {
		t.Errorf("walls = %v, want %v", a.Walls, want)
	}
	if a.Protected[scene.SideNorth] != "courtyard" {
		t.Errorf("north wall protected by %q, want courtyard", a.Protected[scene.SideNorth])
	}
	if len(set.Colliders) != 2 {
		t.Errorf("colliders = %d, want 2", len(set.Colliders))
	}
	for _, c := range set.Colliders {
		if c.Tag != "annex:base" {
			t.Errorf("collider tag = %q, want annex:base", c.Tag)
		}
	}
}

func TestBuildAnnexesSkips(t *testing.T) {
	off := false
	annexes := []scene.AnnexConfig{
		{ID: "off", Enabled: &off, Size: [3]float32{4, 3, 4}},
		{ID: "flat", Size: [3]float32{4, 0, 4}},
		{ID: "ok", Size: [3]float32{4, 3, 4}, OpenSide: scene.SideNone},
	}
	set := BuildAnnexes("annex:theme", annexes, nil, 0, 0.2)
	if len(set.Annexes) != 1 || set.Annexes[0].ID != "ok" {
		t.Fatalf("annexes = %+v, want only ok", set.Annexes)
	}
	if got := len(set.Annexes[0].Walls); got != 4 {
		t.Errorf("closed annex walls = %d, want 4", got)
	}
}

func TestAnnexNavigationInset(t *testing.T) {
	tests := []struct {
		name  string
		inset float32
		want  math.Rect
	}{
		{"none", 0, math.Rect{MinX: -2, MaxX: 2, MinZ: -3, MaxZ: 3}},
		{"inset", 0.5, math.Rect{MinX: -1.5, MaxX: 1.5, MinZ: -2.5, MaxZ: 2.5}},
		{"negative", -1, math.Rect{MinX: -2, MaxX: 2, MinZ: -3, MaxZ: 3}},
		{"too large", 10, math.Rect{MinX: -0.05, MaxX: 0.05, MinZ: -1.05, MaxZ: 1.05}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := scene.AnnexConfig{ID: "a", Size: [3]float32{4, 3, 6}, NavigationInset: tt.inset}
			set := BuildAnnexes("t", []scene.AnnexConfig{cfg}, nil, 0, 0.2)
			got := set.Annexes[0].NavRect
			if !near(got.MinX, tt.want.MinX) || !near(got.MaxX, tt.want.MaxX) ||
				!near(got.MinZ, tt.want.MinZ) || !near(got.MaxZ, tt.want.MaxZ) {
				t.Errorf("NavRect = %+v, want %+v", got, tt.want)
			}
			if !got.Valid() {
				t.Error("NavRect is not walkable")
			}
		})
	}
}

func TestProtectedZones(t *testing.T) {
	room := scenarioRoom()
	room.SideDoorways = scene.SideDoorways{Enabled: true, Width: 2, Height: 2}
	room.ProtectedZones = []scene.ProtectedZoneSpec{{ID: "stage", MinX: 1, MaxX: -1, MinZ: -1, MaxZ: 1}}
	zones := []scene.Zone{
		{Name: "Courtyard-North", Min: [2]float32{-3, -20}, Max: [2]float32{3, -10}},
		{Name: "plaza", Min: [2]float32{0, 0}, Max: [2]float32{1, 1}},
	}

	got := ProtectedZones(room, zones, ZonePattern(""))
	var ids []string
	for _, z := range got {
		ids = append(ids, z.ID)
	}
	want := []string{"stage", "Courtyard-North", "approach:front", "approach:east", "approach:west"}
	if !slices.Equal(ids, want) {
		t.Fatalf("zones = %v, want %v", ids, want)
	}
	if got[0].Rect.MinX != -1 || got[0].Rect.MaxX != 1 {
		t.Errorf("reversed zone not swapped: %+v", got[0].Rect)
	}
	front := got[2].Rect
	if front.MinX != -2 || front.MaxX != 2 || front.MinZ != 5 || front.MaxZ != 5+ApproachDepth {
		t.Errorf("front approach = %+v", front)
	}
}

func TestZonePatternInvalid(t *testing.T) {
	if re := ZonePattern("(["); re != defaultZonePattern {
		t.Error("invalid pattern should fall back to the default")
	}
	if re := ZonePattern("^stage"); !re.MatchString("stage-left") {
		t.Error("custom pattern not used")
	}
}

func TestBuildExtras(t *testing.T) {
	extras := []scene.BoxConfig{
		{ID: "kiosk", Min: [3]float32{1, 0, 1}, Max: [3]float32{2, 1, 2}},
		{ID: "flat", Min: [3]float32{1, 0, 1}, Max: [3]float32{1, 1, 2}},
	}
	b := BuildExtras(collision.TagThemeExtra, extras, 0.5)
	if len(b.Colliders) != 1 || len(b.Meshes) != 1 {
		t.Fatalf("built %d colliders, %d meshes, want 1 each", len(b.Colliders), len(b.Meshes))
	}
	if c := b.Colliders[0]; c.MinY != 0.5 || c.MaxY != 1.5 || c.Tag != collision.TagThemeExtra {
		t.Errorf("collider = %+v", c)
	}
}

func TestCommitAndTeardown(t *testing.T) {
	reg := collision.NewRegistry()
	sc := mesh.NewScene()

	shell := BuildRoomShell(scenarioRoom())
	shell.Commit(reg, sc)
	if reg.Len() != len(shell.Colliders) {
		t.Fatalf("registry = %d, want %d", reg.Len(), len(shell.Colliders))
	}

	Teardown(reg, sc, collision.TagRoom)
	if reg.Len() != 0 {
		t.Errorf("registry after teardown = %d, want 0", reg.Len())
	}
	for _, m := range shell.Meshes {
		if !m.Disposed() {
			t.Errorf("mesh %s not disposed", m.Name)
		}
	}

	// absent tag is a no-op
	Teardown(reg, sc, "annex:none")
}

func TestResolveBounds(t *testing.T) {
	room := math.Rect{MinX: -5, MaxX: 5, MinZ: -5, MaxZ: 5}
	annex := math.Rect{MinX: 5, MaxX: 12, MinZ: -2, MaxZ: 2}
	theme := math.Rect{MinX: -9, MaxX: -5, MinZ: 0, MaxZ: 8}
	override := math.Rect{MinX: 3, MaxX: -3, MinZ: -3, MaxZ: 3}

	tests := []struct {
		name   string
		in     BoundsInput
		want   math.Rect
		source BoundsSource
	}{
		{
			name:   "room only",
			in:     BoundsInput{Room: room},
			want:   room,
			source: SourceUnion,
		},
		{
			name:   "annex union",
			in:     BoundsInput{Room: room, Base: []math.Rect{annex}, Theme: []math.Rect{theme}, ExtendWithTheme: true},
			want:   math.Rect{MinX: -9, MaxX: 12, MinZ: -5, MaxZ: 8},
			source: SourceUnion,
		},
		{
			name:   "theme not extending",
			in:     BoundsInput{Room: room, Base: []math.Rect{annex}, Theme: []math.Rect{theme}},
			want:   math.Rect{MinX: -5, MaxX: 12, MinZ: -5, MaxZ: 5},
			source: SourceUnion,
		},
		{
			name:   "catalog rooms",
			in:     BoundsInput{Room: room, Catalog: []math.Rect{{MinX: -13, MaxX: -5, MinZ: -4, MaxZ: 4}, {MinX: -13, MaxX: -5, MinZ: -12, MaxZ: -4}}},
			want:   math.Rect{MinX: -13, MaxX: 5, MinZ: -12, MaxZ: 5},
			source: SourceUnion,
		},
		{
			name:   "base bounds",
			in:     BoundsInput{Room: room, Base: []math.Rect{annex}, BaseBounds: &scene.BoundsConfig{MinX: -1, MaxX: 1, MinZ: -1, MaxZ: 1}},
			want:   math.Rect{MinX: -1, MaxX: 1, MinZ: -1, MaxZ: 1},
			source: SourceBase,
		},
		{
			name: "theme beats base",
			in: BoundsInput{
				Room:        room,
				BaseBounds:  &scene.BoundsConfig{MinX: -1, MaxX: 1, MinZ: -1, MaxZ: 1},
				ThemeBounds: &scene.BoundsConfig{MinX: -2, MaxX: 2, MinZ: -2, MaxZ: 2},
			},
			want:   math.Rect{MinX: -2, MaxX: 2, MinZ: -2, MaxZ: 2},
			source: SourceTheme,
		},
		{
			name: "override beats all",
			in: BoundsInput{
				Room:        room,
				ThemeBounds: &scene.BoundsConfig{MinX: -2, MaxX: 2, MinZ: -2, MaxZ: 2},
				Override:    &override,
			},
			want:   math.Rect{MinX: -3, MaxX: 3, MinZ: -3, MaxZ: 3},
			source: SourceOverride,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, source := ResolveBounds(tt.in)
			if got != tt.want {
				t.Errorf("bounds = %+v, want %+v", got, tt.want)
			}
			if source != tt.source {
				t.Errorf("source = %s, want %s", source, tt.source)
			}
		})
	}
}

func TestSanitizeBounds(t *testing.T) {
	tests := []struct {
		name string
		in   math.Rect
		want math.Rect
	}{
		{"valid", math.Rect{MinX: -1, MaxX: 1, MinZ: -1, MaxZ: 1}, math.Rect{MinX: -1, MaxX: 1, MinZ: -1, MaxZ: 1}},
		{"zero width", math.Rect{MinX: 2, MaxX: 2, MinZ: -1, MaxZ: 1}, math.Rect{MinX: 1.75, MaxX: 2.25, MinZ: -1, MaxZ: 1}},
		{"huge", math.Rect{MinX: -5000, MaxX: 5000, MinZ: 0, MaxZ: 1}, math.Rect{MinX: -1000, MaxX: 1000, MinZ: 0, MaxZ: 1}},
		{"far out", math.Rect{MinX: 2000, MaxX: 3000, MinZ: 0, MaxZ: 1}, math.Rect{MinX: 999.5, MaxX: 1000, MinZ: 0, MaxZ: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeBounds(tt.in)
			if got != tt.want {
				t.Errorf("SanitizeBounds() = %+v, want %+v", got, tt.want)
			}
			if got.Width() < MinBoundsExtent || got.Depth() < MinBoundsExtent {
				t.Errorf("bounds %+v below minimum extent", got)
			}
		})
	}
}

func TestExtendsWithTheme(t *testing.T) {
	off := false
	if !ExtendsWithTheme(nil) {
		t.Error("nil floorplan should extend")
	}
	if !ExtendsWithTheme(&scene.FloorplanConfig{NavigationProfile: &scene.NavigationProfile{}}) {
		t.Error("unset flag should extend")
	}
	if ExtendsWithTheme(&scene.FloorplanConfig{NavigationProfile: &scene.NavigationProfile{ExtendBounds: &off}}) {
		t.Error("extendBounds=false should not extend")
	}
}
