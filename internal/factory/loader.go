package factory

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"lumen/internal/asset"
	"lumen/internal/component"
	"lumen/internal/ecs"
	"lumen/internal/mathx"
	"lumen/internal/scene"
)

// SceneFile is a declarative scene: procedural assets followed by the
// entities that use them. Assets are referred to by name.
type SceneFile struct {
	Name     string       `yaml:"name"`
	Assets   AssetsDesc   `yaml:"assets"`
	Entities []EntityDesc `yaml:"entities"`
	Script   string       `yaml:"script"`
}

type AssetsDesc struct {
	Textures   []TextureDesc   `yaml:"textures"`
	Meshes     []MeshDesc      `yaml:"meshes"`
	Materials  []MaterialDesc  `yaml:"materials"`
	Animations []AnimationDesc `yaml:"animations"`
}

// TextureDesc is a solid colour or, with Checker set, a checkerboard of
// Color and Alt.
type TextureDesc struct {
	Name    string   `yaml:"name"`
	Color   [4]uint8 `yaml:"color"`
	Alt     [4]uint8 `yaml:"alt"`
	Checker int      `yaml:"checker"`
}

// MeshDesc builds exactly one primitive. A column also registers a
// skeleton under the mesh's name.
type MeshDesc struct {
	Name   string      `yaml:"name"`
	Cube   float32     `yaml:"cube"`
	Quad   bool        `yaml:"quad"`
	Grid   *GridDesc   `yaml:"grid"`
	Column *ColumnDesc `yaml:"column"`
}

type GridDesc struct {
	Size      float32 `yaml:"size"`
	Cells     int     `yaml:"cells"`
	Amplitude float32 `yaml:"amplitude"`
}

type ColumnDesc struct {
	Width    float32 `yaml:"width"`
	Height   float32 `yaml:"height"`
	Segments int     `yaml:"segments"`
}

type MaterialDesc struct {
	Name   string     `yaml:"name"`
	Color  [4]float32 `yaml:"color"`
	Albedo string     `yaml:"albedo"`
}

// AnimationDesc sways the bones of Skeleton by Angle degrees over Length
// seconds.
type AnimationDesc struct {
	Name     string  `yaml:"name"`
	Skeleton string  `yaml:"skeleton"`
	Angle    float32 `yaml:"angle"`
	Length   float32 `yaml:"length"`
}

// TransformDesc is position, Euler rotation in degrees (pitch, yaw,
// roll) and scale. A zero scale means 1.
type TransformDesc struct {
	Position [3]float32 `yaml:"position"`
	Rotation [3]float32 `yaml:"rotation"`
	Scale    [3]float32 `yaml:"scale"`
}

// EntityDesc sets exactly one of its renderable or camera/light fields.
type EntityDesc struct {
	Name      string        `yaml:"name"`
	Transform TransformDesc `yaml:"transform"`
	Camera    *CameraDesc   `yaml:"camera"`
	Light     *LightDesc    `yaml:"light"`
	Mesh      *MeshRef      `yaml:"mesh"`
	Terrain   *MeshRef      `yaml:"terrain"`
	Skinned   *SkinnedRef   `yaml:"skinned"`
	Image     *ImageDesc    `yaml:"image"`
	Text      *TextDesc     `yaml:"text"`
	Children  []EntityDesc  `yaml:"children"`
}

type CameraDesc struct {
	FOV    float32 `yaml:"fov"`
	Near   float32 `yaml:"near"`
	Far    float32 `yaml:"far"`
	Active bool    `yaml:"active"`
}

type LightDesc struct {
	Direction         [3]float32 `yaml:"direction"`
	Color             [3]float32 `yaml:"color"`
	MaxShadowDistance float32    `yaml:"max_shadow_distance"`
}

type MeshRef struct {
	Mesh     string     `yaml:"mesh"`
	Material string     `yaml:"material"`
	Tint     [4]float32 `yaml:"tint"`
}

type SkinnedRef struct {
	Mesh      string     `yaml:"mesh"`
	Material  string     `yaml:"material"`
	Animation string     `yaml:"animation"`
	Once      bool       `yaml:"once"`
	Tint      [4]float32 `yaml:"tint"`
}

type ImageDesc struct {
	Texture  string     `yaml:"texture"`
	Position [2]float32 `yaml:"position"`
	Size     [2]float32 `yaml:"size"`
	Layer    int        `yaml:"layer"`
	Color    [4]float32 `yaml:"color"`
}

type TextDesc struct {
	Text     string     `yaml:"text"`
	Position [2]float32 `yaml:"position"`
	Layer    int        `yaml:"layer"`
	Color    [4]float32 `yaml:"color"`
	Scale    float32    `yaml:"scale"`
}

// LoadSceneFile reads and parses a scene file.
func LoadSceneFile(path string) (*SceneFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene file: %w", err)
	}
	return ParseScene(raw)
}

// ParseScene parses a scene description.
func ParseScene(raw []byte) (*SceneFile, error) {
	var f SceneFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	return &f, nil
}

// Populate returns the function that builds f into a scene.
func (f *SceneFile) Populate() scene.PopulateFunc {
	return func(s *scene.Scene) error {
		names, err := f.createAssets(s.Assets())
		if err != nil {
			return err
		}
		l := &loader{s: s, names: names, maxShadow: s.Services().Config.Light.MaxShadowDistance}
		for i := range f.Entities {
			if _, err := l.entity(&f.Entities[i]); err != nil {
				return err
			}
		}
		return nil
	}
}

// assetNames maps scene-file names to asset ids per kind.
type assetNames map[asset.Kind]map[string]asset.ID

func (n assetNames) put(k asset.Kind, name string, id asset.ID) {
	if n[k] == nil {
		n[k] = make(map[string]asset.ID)
	}
	n[k][name] = id
}

func (n assetNames) get(k asset.Kind, name string) (asset.ID, error) {
	if id, ok := n[k][name]; ok {
		return id, nil
	}
	return asset.None, fmt.Errorf("%w: %s %q", asset.ErrNotFound, k, name)
}

func (f *SceneFile) createAssets(m *asset.Manager) (assetNames, error) {
	names := make(assetNames)
	for _, t := range f.Assets.Textures {
		var (
			id  asset.ID
			err error
		)
		if t.Checker > 0 {
			id, err = m.CreateTexture(t.Name, t.Checker, t.Checker, checker(t.Checker, t.Color, t.Alt))
		} else {
			id, err = m.SolidTexture(t.Name, t.Color)
		}
		if err != nil {
			return nil, err
		}
		names.put(asset.KindTexture, t.Name, id)
	}

	for _, md := range f.Assets.Meshes {
		id, err := createMesh(m, md, names)
		if err != nil {
			return nil, fmt.Errorf("mesh %q: %w", md.Name, err)
		}
		names.put(asset.KindMesh, md.Name, id)
	}

	for _, mat := range f.Assets.Materials {
		albedo := asset.None
		if mat.Albedo != "" {
			var err error
			if albedo, err = names.get(asset.KindTexture, mat.Albedo); err != nil {
				return nil, fmt.Errorf("material %q: %w", mat.Name, err)
			}
		}
		id, err := m.CreateMaterial(mat.Name, mathx.Vec4(mat.Color), albedo)
		if err != nil {
			return nil, err
		}
		names.put(asset.KindMaterial, mat.Name, id)
	}

	for _, a := range f.Assets.Animations {
		skelID, err := names.get(asset.KindSkeleton, a.Skeleton)
		if err != nil {
			return nil, fmt.Errorf("animation %q: %w", a.Name, err)
		}
		skel, err := m.Skeleton(skelID)
		if err != nil {
			return nil, err
		}
		id, err := m.CreateAnimation(a.Name, a.Length, asset.Sway(skel.Bones, mathx.Radians(a.Angle), a.Length))
		if err != nil {
			return nil, err
		}
		names.put(asset.KindAnimation, a.Name, id)
	}
	return names, nil
}

func createMesh(m *asset.Manager, md MeshDesc, names assetNames) (asset.ID, error) {
	switch {
	case md.Cube > 0:
		v, i := asset.Cube(md.Cube)
		return m.CreateMesh(md.Name, v, i, false)
	case md.Quad:
		v, i := asset.Quad()
		return m.CreateMesh(md.Name, v, i, false)
	case md.Grid != nil:
		g := md.Grid
		v, i := asset.Grid(g.Size, max(g.Cells, 1), wave(g.Amplitude, g.Size))
		return m.CreateMesh(md.Name, v, i, false)
	case md.Column != nil:
		c := md.Column
		v, i, bones := asset.Column(c.Width, c.Height, max(c.Segments, 1))
		skel, err := m.CreateSkeleton(md.Name, bones)
		if err != nil {
			return asset.None, err
		}
		names.put(asset.KindSkeleton, md.Name, skel)
		return m.CreateMesh(md.Name, v, i, true)
	}
	return asset.None, fmt.Errorf("no primitive given")
}

type loader struct {
	s         *scene.Scene
	names     assetNames
	maxShadow float32
}

func (l *loader) entity(e *EntityDesc) (id ecs.EntityID, err error) {
	local := e.Transform.matrix()
	s := l.s
	switch {
	case e.Camera != nil:
		c := e.Camera
		id, err = NewCamera(s, component.Camera{
			FOV:    mathx.Radians(orDefault(c.FOV, 60)),
			Aspect: 1,
			ZNear:  orDefault(c.Near, 0.1),
			ZFar:   orDefault(c.Far, 100),
		}, local, c.Active)
	case e.Light != nil:
		lt := e.Light
		color := mathx.Vec3(lt.Color)
		if color == mathx.Zero3 {
			color = mathx.V3(1, 1, 1)
		}
		id, err = NewDirectionalLight(s, mathx.Vec3(lt.Direction), color, orDefault(lt.MaxShadowDistance, l.maxShadow))
	case e.Mesh != nil:
		var mesh, mat asset.ID
		if mesh, mat, err = l.meshRef(e.Mesh.Mesh, e.Mesh.Material); err == nil {
			id, err = NewStaticMesh(s, mesh, mat, local, mathx.Vec4(e.Mesh.Tint))
		}
	case e.Terrain != nil:
		var mesh, mat asset.ID
		if mesh, mat, err = l.meshRef(e.Terrain.Mesh, e.Terrain.Material); err == nil {
			id, err = NewTerrain(s, mesh, mat, local)
		}
	case e.Skinned != nil:
		id, err = l.skinned(e.Skinned, local)
	case e.Image != nil:
		im := e.Image
		var tex asset.ID
		if tex, err = l.names.get(asset.KindTexture, im.Texture); err == nil {
			id, err = NewImage(s, tex, mathx.Vec2(im.Position), mathx.Vec2(im.Size), im.Layer, mathx.Vec4(im.Color))
		}
	case e.Text != nil:
		tx := e.Text
		id, err = NewText(s, asset.None, tx.Text, mathx.Vec2(tx.Position), tx.Layer, mathx.Vec4(tx.Color), tx.Scale)
	default:
		id, err = with(build(s), component.NewTransform(local)).done("new node")
	}
	if err != nil {
		return id, fmt.Errorf("entity %q: %w", e.Name, err)
	}

	for i := range e.Children {
		child, err := l.entity(&e.Children[i])
		if err != nil {
			return id, err
		}
		if err := s.AddChild(id, child); err != nil {
			return id, fmt.Errorf("entity %q: %w", e.Name, err)
		}
	}
	return id, nil
}

func (l *loader) meshRef(mesh, material string) (asset.ID, asset.ID, error) {
	m, err := l.names.get(asset.KindMesh, mesh)
	if err != nil {
		return asset.None, asset.None, err
	}
	mat, err := l.names.get(asset.KindMaterial, material)
	if err != nil {
		return asset.None, asset.None, err
	}
	return m, mat, nil
}

func (l *loader) skinned(r *SkinnedRef, local mathx.Mat4) (ecs.EntityID, error) {
	mesh, mat, err := l.meshRef(r.Mesh, r.Material)
	if err != nil {
		return ecs.NullEntity, err
	}
	skel, err := l.names.get(asset.KindSkeleton, r.Mesh)
	if err != nil {
		return ecs.NullEntity, err
	}
	desc := SkinnedDesc{Mesh: mesh, Material: mat, Skeleton: skel, Tint: mathx.Vec4(r.Tint)}
	if r.Animation != "" {
		if desc.Animation, err = l.names.get(asset.KindAnimation, r.Animation); err != nil {
			return ecs.NullEntity, err
		}
	}
	if r.Once {
		desc.Mode = component.PlayOnce
	}
	return NewSkinnedMesh(l.s, desc, local)
}

func (t TransformDesc) matrix() mathx.Mat4 {
	scale := mathx.Vec3(t.Scale)
	if scale == mathx.Zero3 {
		scale = mathx.V3(1, 1, 1)
	}
	return mathx.Compose(mathx.Vec3(t.Position), Euler(t.Rotation[0], t.Rotation[1], t.Rotation[2]), scale)
}

// Euler builds a rotation from pitch (about X), yaw (about Y) and roll
// (about Z) in degrees, applied roll first and yaw last.
func Euler(pitch, yaw, roll float32) mathx.Quat {
	qx := mathx.QuatAxisAngle(mathx.V3(1, 0, 0), mathx.Radians(pitch))
	qy := mathx.QuatAxisAngle(mathx.Up, mathx.Radians(yaw))
	qz := mathx.QuatAxisAngle(mathx.Fwd, mathx.Radians(roll))
	return qy.Mul(qx).Mul(qz)
}

func orDefault(v, def float32) float32 {
	if v == 0 {
		return def
	}
	return v
}

// checker returns size×size RGBA pixels alternating a and b.
func checker(size int, a, b [4]uint8) []byte {
	px := make([]byte, 0, size*size*4)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := a
			if (x+y)%2 == 1 {
				c = b
			}
			px = append(px, c[:]...)
		}
	}
	return px
}

// wave is a gentle height field of the given amplitude.
func wave(amp, size float32) func(x, z float32) float32 {
	if amp == 0 {
		return nil
	}
	k := 2 * math.Pi / max(size/2, 1)
	return func(x, z float32) float32 {
		return amp * float32(math.Sin(float64(x*k))*math.Cos(float64(z*k)))
	}
}
