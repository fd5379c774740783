package catalog

import (
	gomath "math"
	"sort"
	"testing"

	"github.com/Faultbox/midgard-lobby/internal/engine/collision"
	"github.com/Faultbox/midgard-lobby/internal/engine/mesh"
	"github.com/Faultbox/midgard-lobby/internal/layout"
	"github.com/Faultbox/midgard-lobby/internal/scene"
)

// smallRoom holds five cards: two on the back wall, one on the outer wall
// and two on the front wall.
func smallRoom() scene.CatalogRoomConfig {
	return scene.CatalogRoomConfig{
		Size:          [3]float32{3.5, 3, 2},
		Origin:        [3]float32{10, 0, -10},
		Step:          [3]float32{0, 0, -2},
		OuterSide:     scene.SideEast,
		WallThickness: 0.2,
		Layout:        scene.CatalogLayout{MaxItems: 50, WallMargin: 0.5, HorizontalGap: 0.5, DisplayY: 1.5},
		Card:          scene.CardSize{Width: 1, Height: 0.8},
		Connector:     scene.DoorwaySize{Width: 1.2, Height: 2.2},
	}
}

func TestWallCapacity(t *testing.T) {
	tests := []struct {
		name             string
		length, m, g, c  float32
		want             int
	}{
		{"default room", 8, 1.6, 0.4, 1.2, 3},
		{"exact fit", 3.5, 0.5, 0.5, 1, 2},
		{"single", 2, 0.5, 0.5, 1, 1},
		{"margins eat wall", 2, 1.2, 0.4, 1, 0},
		{"no gap", 5, 0, 0, 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WallCapacity(tt.length, tt.m, tt.g, tt.c); got != tt.want {
				t.Errorf("WallCapacity() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRoomCount(t *testing.T) {
	tests := []struct {
		items, capacity, want int
	}{
		{0, 5, 1},
		{5, 5, 1},
		{6, 5, 2},
		{7, 5, 2},
		{11, 5, 3},
		{3, 0, 1},
	}
	for _, tt := range tests {
		if got := RoomCount(tt.items, tt.capacity); got != tt.want {
			t.Errorf("RoomCount(%d, %d) = %d, want %d", tt.items, tt.capacity, got, tt.want)
		}
	}
}

func TestCapacityCoversItems(t *testing.T) {
	cfg := smallRoom()
	capacity := Capacity(cfg)
	if capacity != 5 {
		t.Fatalf("Capacity() = %d, want 5", capacity)
	}
	for n := 0; n <= 40; n++ {
		if got := capacity * RoomCount(n, capacity); got < n {
			t.Errorf("items %d: capacity %d * rooms < items", n, got)
		}
	}
}

func TestPlanOverflowRoom(t *testing.T) {
	rooms := Plan("shop", smallRoom(), 7)
	if len(rooms) != 2 {
		t.Fatalf("rooms = %d, want 2", len(rooms))
	}
	if rooms[1].Center.Z != -12 || rooms[1].Center.X != 10 {
		t.Errorf("room 1 center = %+v, want origin + step", rooms[1].Center)
	}
	for _, r := range rooms {
		if len(r.Slots) != 5 {
			t.Errorf("room %d slots = %d, want 5", r.Index, len(r.Slots))
		}
	}
}

func TestSlotsOrderAndFacing(t *testing.T) {
	room := Plan("shop", smallRoom(), 1)[0]
	wantWalls := []WallKind{WallBack, WallBack, WallOuter, WallFront, WallFront}
	wantRot := []float32{0, 0, -gomath.Pi / 2, gomath.Pi, gomath.Pi}

	for i, s := range room.Slots {
		if s.Wall != wantWalls[i] {
			t.Errorf("slot %d wall = %s, want %s", i, s.Wall, wantWalls[i])
		}
		if s.RotationY != wantRot[i] {
			t.Errorf("slot %d rotation = %v, want %v", i, s.RotationY, wantRot[i])
		}
		if !room.Rect.ContainsStrict(s.Position.XZ()) {
			t.Errorf("slot %d at %+v outside room %+v", i, s.Position, room.Rect)
		}
		if s.Position.Y != 1.5 {
			t.Errorf("slot %d y = %v, want display height", i, s.Position.Y)
		}
	}

	// back wall cards do not overlap
	if d := room.Slots[1].Position.X - room.Slots[0].Position.X; d < 1 {
		t.Errorf("back wall stride = %v, want >= card width", d)
	}
}

func TestEngineReconcile(t *testing.T) {
	reg := collision.NewRegistry()
	sc := mesh.NewScene()
	e := NewEngine(reg, sc)
	cfg := smallRoom()

	rooms, rebuilt := e.Reconcile("shop", cfg, 7)
	if !rebuilt || len(rooms) != 2 {
		t.Fatalf("Reconcile() = %d rooms, rebuilt %v", len(rooms), rebuilt)
	}
	first := sc.Meshes(RoomTag("shop", 0))
	if len(first) == 0 {
		t.Fatal("room 0 has no meshes")
	}

	// room 0: back connector jambs, front, outer, inner; room 1 mirrored
	count := func(tag string) int {
		n := 0
		for _, c := range reg.All() {
			if c.Tag == tag {
				n++
			}
		}
		return n
	}
	if got := count(RoomTag("shop", 0)); got != 5 {
		t.Errorf("room 0 colliders = %d, want 5", got)
	}
	if got := count(RoomTag("shop", 1)); got != 5 {
		t.Errorf("room 1 colliders = %d, want 5", got)
	}

	if _, rebuilt := e.Reconcile("shop", cfg, 9); rebuilt {
		t.Error("same room count should not rebuild")
	}

	rooms, rebuilt = e.Reconcile("shop", cfg, 3)
	if !rebuilt || len(rooms) != 1 {
		t.Fatalf("shrink = %d rooms, rebuilt %v", len(rooms), rebuilt)
	}
	if count(RoomTag("shop", 1)) != 0 {
		t.Error("room 1 colliders left after shrink")
	}
	for _, m := range first {
		if !m.Disposed() {
			t.Errorf("old mesh %s not disposed", m.Name)
		}
	}
}

func TestEngineCategoriesIndependent(t *testing.T) {
	reg := collision.NewRegistry()
	e := NewEngine(reg, mesh.NewScene())
	e.Reconcile("shop", smallRoom(), 3)
	projects := smallRoom()
	projects.Origin = [3]float32{-10, 0, -10}
	projects.OuterSide = scene.SideWest
	e.Reconcile("projects", projects, 3)

	before := reg.Len()
	e.Remove("shop")
	if reg.Len() != before/2 {
		t.Errorf("after removing shop = %d colliders, want %d", reg.Len(), before/2)
	}
	if got := e.Categories(); len(got) != 1 || got[0] != "projects" {
		t.Errorf("Categories() = %v, want [projects]", got)
	}
}

// backOpening returns the gap between the two back-wall jambs of room r,
// whose back wall faces north.
func backOpening(t *testing.T, b layout.Build, r Room) (lo, hi float32) {
	t.Helper()
	var jambs []collision.Collider
	for _, c := range b.Colliders {
		if c.MinZ < r.Rect.MinZ && c.MaxZ > r.Rect.MinZ && c.MaxZ-c.MinZ < 1 {
			jambs = append(jambs, c)
		}
	}
	if len(jambs) != 2 {
		t.Fatalf("back wall colliders = %d, want 2 jambs", len(jambs))
	}
	sort.Slice(jambs, func(i, j int) bool { return jambs[i].MinX < jambs[j].MinX })
	return jambs[0].MaxX, jambs[1].MinX
}

func TestConnectorAvoidsSlots(t *testing.T) {
	narrow := scene.Default()
	shop := narrow.Catalog.Rooms["shop"]
	shop.Layout.WallMargin = 0.5
	narrow.Catalog.Rooms["shop"] = shop
	if notes := narrow.Normalize(); len(notes) != 1 {
		t.Errorf("Normalize() notes = %q, want the widened margin", notes)
	}

	tests := []struct {
		name string
		cfg  scene.CatalogRoomConfig
	}{
		{"default", scene.Default().Catalog.Rooms["shop"]},
		{"narrow margin normalized", narrow.Catalog.Rooms["shop"]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rooms := Plan("shop", tt.cfg, 40)
			if len(rooms) < 2 {
				t.Fatalf("rooms = %d, want a chain", len(rooms))
			}

			b := buildRoom(tt.cfg, rooms[0], len(rooms))
			lo, hi := backOpening(t, b, rooms[0])
			if hi-lo < scene.MinConnectorWidth-1e-4 {
				t.Errorf("connector width = %v, want at least %v", hi-lo, scene.MinConnectorWidth)
			}
			for _, s := range rooms[0].Slots {
				if s.Wall != WallBack {
					continue
				}
				cl, ch := s.Position.X-tt.cfg.Card.Width/2, s.Position.X+tt.cfg.Card.Width/2
				if cl < hi && ch > lo {
					t.Errorf("card [%v,%v] overlaps connector [%v,%v]", cl, ch, lo, hi)
				}
			}
		})
	}
}

func TestConnectorStaysPassable(t *testing.T) {
	// un-normalized margin too narrow for the configured connector
	cfg := scene.Default().Catalog.Rooms["shop"]
	cfg.Layout.WallMargin = 0.5
	cfg.Connector.Width = 0.4

	rooms := Plan("shop", cfg, 40)
	b := buildRoom(cfg, rooms[0], len(rooms))
	lo, hi := backOpening(t, b, rooms[0])
	if hi-lo < scene.MinConnectorWidth-1e-4 {
		t.Errorf("connector width = %v, want at least %v", hi-lo, scene.MinConnectorWidth)
	}
	// an avatar of radius 0.35 fits between the jambs
	if hi-lo <= 2*0.35 {
		t.Errorf("connector [%v,%v] is impassable", lo, hi)
	}
}
