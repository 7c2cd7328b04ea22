package generate

import (
	"fmt"

	"go.uber.org/zap"

	"lumen/internal/asset"
	"lumen/internal/component"
	"lumen/internal/factory"
	"lumen/internal/mathx"
	"lumen/internal/scene"
)

const (
	wallHeight = 1.5
	eyeHeight  = 0.7
)

// World returns the centre of tile (x, y) at height h. Grid rows run
// along +Z and the grid is centred on the origin.
func (g *Grid) World(x, y int, h float32) mathx.Vec3 {
	return mathx.V3(
		float32(x)-float32(g.Width)/2+0.5,
		h,
		float32(y)-float32(g.Height)/2+0.5,
	)
}

// Populate generates a layout from cfg and builds it into the scene.
func Populate(cfg Config) scene.PopulateFunc {
	return func(s *scene.Scene) error {
		g, sx, sy := Generate(&cfg)
		if len(g.Rooms) == 0 {
			return fmt.Errorf("generate: no rooms in a %dx%d grid", cfg.Width, cfg.Height)
		}
		walls, err := Build(s, g, sx, sy)
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}
		s.Log().Info("labyrinth built",
			zap.Int("rooms", len(g.Rooms)),
			zap.Int("walls", walls),
			zap.Int("start_x", sx), zap.Int("start_y", sy))
		return nil
	}
}

// Build creates the assets and entities for g with the camera on the
// start tile. It returns the number of wall entities.
func Build(s *scene.Scene, g *Grid, sx, sy int) (int, error) {
	a := s.Assets()
	v, i := asset.Cube(1)
	cube, err := a.CreateMesh("wall", v, i, false)
	if err != nil {
		return 0, err
	}
	side := float32(max(g.Width, g.Height))
	v, i = asset.Grid(side, max(g.Width, g.Height), nil)
	floor, err := a.CreateMesh("floor", v, i, false)
	if err != nil {
		return 0, err
	}
	v, i, bones := asset.Column(0.3, 2, 4)
	skel, err := a.CreateSkeleton("beacon", bones)
	if err != nil {
		return 0, err
	}
	beacon, err := a.CreateMesh("beacon", v, i, true)
	if err != nil {
		return 0, err
	}
	sway, err := a.CreateAnimation("beacon", 2, asset.Sway(bones, mathx.Radians(30), 2))
	if err != nil {
		return 0, err
	}
	stone, err := a.CreateMaterial("stone", mathx.V4(0.7, 0.68, 0.62, 1), asset.None)
	if err != nil {
		return 0, err
	}
	glow, err := a.CreateMaterial("glow", mathx.V4(1, 0.8, 0.3, 1), asset.None)
	if err != nil {
		return 0, err
	}

	cam := component.Camera{FOV: mathx.Radians(70), Aspect: 1, ZNear: 0.05, ZFar: side}
	if _, err := factory.NewCamera(s, cam, mathx.Translation(g.World(sx, sy, eyeHeight)), true); err != nil {
		return 0, err
	}
	cfg := s.Services().Config
	if _, err := factory.NewDirectionalLight(s, mathx.V3(0.5, -1, 0.3), mathx.V3(1, 1, 1), cfg.Light.MaxShadowDistance); err != nil {
		return 0, err
	}
	if _, err := factory.NewTerrain(s, floor, stone, mathx.Identity()); err != nil {
		return 0, err
	}

	walls := 0
	wallScale := mathx.V3(1, wallHeight, 1)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			switch {
			case g.Edge(x, y):
				// Alternate shades so long walls read as blocks.
				shade := float32(0.85 + 0.15*float32((x+y)%2))
				local := mathx.Compose(g.World(x, y, wallHeight/2), mathx.QuatIdentity(), wallScale)
				if _, err := factory.NewStaticMesh(s, cube, stone, local, mathx.V4(shade, shade, shade, 1)); err != nil {
					return walls, err
				}
				walls++
			case g.At(x, y) == Beacon:
				desc := factory.SkinnedDesc{Mesh: beacon, Material: glow, Skeleton: skel, Animation: sway}
				if _, err := factory.NewSkinnedMesh(s, desc, mathx.Translation(g.World(x, y, 0))); err != nil {
					return walls, err
				}
			}
		}
	}
	label := fmt.Sprintf("labyrinth  %d rooms  find the beacon", len(g.Rooms))
	if _, err := factory.NewText(s, asset.None, label, mathx.V2(1, 1), 1, mathx.Vec4{}, 1); err != nil {
		return walls, err
	}
	return walls, nil
}
