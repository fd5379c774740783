package scene

// RoomOverride patches a subset of RoomConfig. Nil fields keep the base value.
type RoomOverride struct {
	Size                   *[3]float32         `yaml:"size" toml:"size" json:"size,omitempty"`
	FloorY                 *float32            `yaml:"floorY" toml:"floorY" json:"floorY,omitempty"`
	CollisionWallThickness *float32            `yaml:"collisionWallThickness" toml:"collisionWallThickness" json:"collisionWallThickness,omitempty"`
	FrontEntrance          *FrontEntrancePatch `yaml:"frontEntrance" toml:"frontEntrance" json:"frontEntrance,omitempty"`
	SideDoorways           *SideDoorwaysPatch  `yaml:"sideDoorways" toml:"sideDoorways" json:"sideDoorways,omitempty"`
}

// FrontEntrancePatch patches FrontEntrance.
type FrontEntrancePatch struct {
	Enabled *bool    `yaml:"enabled" toml:"enabled" json:"enabled,omitempty"`
	Width   *float32 `yaml:"width" toml:"width" json:"width,omitempty"`
	Height  *float32 `yaml:"height" toml:"height" json:"height,omitempty"`
	CenterX *float32 `yaml:"centerX" toml:"centerX" json:"centerX,omitempty"`
}

// SideDoorwaysPatch patches SideDoorways.
type SideDoorwaysPatch struct {
	Enabled *bool    `yaml:"enabled" toml:"enabled" json:"enabled,omitempty"`
	Width   *float32 `yaml:"width" toml:"width" json:"width,omitempty"`
	Height  *float32 `yaml:"height" toml:"height" json:"height,omitempty"`
	CenterZ *float32 `yaml:"centerZ" toml:"centerZ" json:"centerZ,omitempty"`
	Glass   *bool    `yaml:"glass" toml:"glass" json:"glass,omitempty"`
}

// Merge returns base with the override applied. A nil override returns base.
func (o *RoomOverride) Merge(base RoomConfig) RoomConfig {
	if o == nil {
		return base
	}
	out := base
	setArr(&out.Size, o.Size)
	setF(&out.FloorY, o.FloorY)
	setF(&out.CollisionWallThickness, o.CollisionWallThickness)

	if p := o.FrontEntrance; p != nil {
		setB(&out.FrontEntrance.Enabled, p.Enabled)
		setF(&out.FrontEntrance.Width, p.Width)
		setF(&out.FrontEntrance.Height, p.Height)
		setF(&out.FrontEntrance.CenterX, p.CenterX)
	}
	if p := o.SideDoorways; p != nil {
		setB(&out.SideDoorways.Enabled, p.Enabled)
		setF(&out.SideDoorways.Width, p.Width)
		setF(&out.SideDoorways.Height, p.Height)
		setF(&out.SideDoorways.CenterZ, p.CenterZ)
		setB(&out.SideDoorways.Glass, p.Glass)
	}
	return out
}

func setF(dst *float32, v *float32) {
	if v != nil {
		*dst = *v
	}
}

func setB(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setArr(dst *[3]float32, v *[3]float32) {
	if v != nil {
		*dst = *v
	}
}
