package asset

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"go.uber.org/zap"

	"lumen/internal/gpu"
	"lumen/internal/mathx"
	"lumen/internal/shader"
)

type entry struct {
	kind       Kind
	value      any
	persistent bool
}

// Manager creates assets, uploads their GPU resources and hands out IDs.
// It is used from the frame goroutine only.
type Manager struct {
	device *gpu.Device
	log    *zap.Logger
	next   ID
	assets map[ID]entry

	white, black, zero ID
	font               ID
}

// NewManager creates a manager and its persistent defaults: white, black
// and fully transparent 1x1 textures and a printable-ASCII font.
func NewManager(device *gpu.Device, log *zap.Logger) (*Manager, error) {
	m := &Manager{
		device: device,
		log:    log,
		assets: make(map[ID]entry),
	}
	var err error
	if m.white, err = m.SolidTexture("white", [4]uint8{255, 255, 255, 255}); err != nil {
		return nil, err
	}
	if m.black, err = m.SolidTexture("black", [4]uint8{0, 0, 0, 255}); err != nil {
		return nil, err
	}
	if m.zero, err = m.SolidTexture("zero", [4]uint8{}); err != nil {
		return nil, err
	}
	if m.font, err = m.CreateFont(DefaultFontDesc()); err != nil {
		return nil, err
	}
	for _, id := range []ID{m.white, m.black, m.zero, m.font} {
		e := m.assets[id]
		e.persistent = true
		m.assets[id] = e
	}
	if f, err := m.Font(m.font); err == nil {
		m.markPersistent(f.Atlas)
	}
	return m, nil
}

func (m *Manager) markPersistent(id ID) {
	if e, ok := m.assets[id]; ok {
		e.persistent = true
		m.assets[id] = e
	}
}

func (m *Manager) White() ID       { return m.white }
func (m *Manager) Black() ID       { return m.black }
func (m *Manager) Zero() ID        { return m.zero }
func (m *Manager) DefaultFont() ID { return m.font }

// Len returns the number of live assets, defaults included.
func (m *Manager) Len() int { return len(m.assets) }

func (m *Manager) add(kind Kind, value any) ID {
	m.next++
	m.assets[m.next] = entry{kind: kind, value: value}
	return m.next
}

// Get returns the asset id if it exists and is of kind.
func (m *Manager) Get(id ID, kind Kind) (any, error) {
	e, ok := m.assets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s %d", ErrNotFound, kind, id)
	}
	if e.kind != kind {
		return nil, fmt.Errorf("%w: %d is a %s, not a %s", ErrKindMismatch, id, e.kind, kind)
	}
	return e.value, nil
}

// Exists reports whether id names a live asset of kind.
func (m *Manager) Exists(id ID, kind Kind) bool {
	e, ok := m.assets[id]
	return ok && e.kind == kind
}

func get[T any](m *Manager, id ID, kind Kind) (*T, error) {
	v, err := m.Get(id, kind)
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

func (m *Manager) Texture(id ID) (*Texture, error)   { return get[Texture](m, id, KindTexture) }
func (m *Manager) Mesh(id ID) (*Mesh, error)         { return get[Mesh](m, id, KindMesh) }
func (m *Manager) Material(id ID) (*Material, error) { return get[Material](m, id, KindMaterial) }
func (m *Manager) Font(id ID) (*Font, error)         { return get[Font](m, id, KindFont) }
func (m *Manager) Skeleton(id ID) (*Skeleton, error) { return get[Skeleton](m, id, KindSkeleton) }
func (m *Manager) Animation(id ID) (*Animation, error) {
	return get[Animation](m, id, KindAnimation)
}

// CreateTexture uploads an RGBA8 image.
func (m *Manager) CreateTexture(name string, width, height int, pixels []byte) (ID, error) {
	tex, err := m.device.CreateTexture(gpu.TextureDesc{
		Label:  name,
		Width:  width,
		Height: height,
		Format: gputypes.TextureFormatRGBA8Unorm,
	}, pixels)
	if err != nil {
		return None, fmt.Errorf("create texture %q: %w", name, err)
	}
	t := &Texture{Name: name, Width: width, Height: height, GPU: tex}
	t.ID = m.add(KindTexture, t)
	return t.ID, nil
}

// SolidTexture creates a 1x1 texture of colour c.
func (m *Manager) SolidTexture(name string, c [4]uint8) (ID, error) {
	return m.CreateTexture(name, 1, 1, c[:])
}

// CreateMesh uploads vertices and indices. Indices must describe triangles.
func (m *Manager) CreateMesh(name string, vertices []shader.Vertex, indices []uint32, skinned bool) (ID, error) {
	if len(vertices) == 0 || len(indices) == 0 || len(indices)%3 != 0 {
		return None, fmt.Errorf("create mesh %q: %d vertices, %d indices", name, len(vertices), len(indices))
	}
	for _, i := range indices {
		if int(i) >= len(vertices) {
			return None, fmt.Errorf("create mesh %q: index %d out of range", name, i)
		}
	}
	vb, err := m.device.CreateBuffer(gpu.BufferDesc{
		Label:        name + ".vertices",
		ElementSize:  shader.VertexSize,
		Length:       len(vertices),
		Usage:        gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
		Frequency:    gpu.Static,
		KeepHostCopy: true,
	}, shader.AppendVertices(nil, vertices))
	if err != nil {
		return None, fmt.Errorf("create mesh %q: %w", name, err)
	}
	ib, err := m.device.CreateBuffer(gpu.BufferDesc{
		Label:       name + ".indices",
		ElementSize: 4,
		Length:      len(indices),
		Usage:       gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
		Frequency:   gpu.Static,
	}, shader.AppendIndices(nil, indices))
	if err != nil {
		m.device.DestroyBuffer(vb)
		return None, fmt.Errorf("create mesh %q: %w", name, err)
	}

	mesh := &Mesh{
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
		Skinned:  skinned,
		Vertex:   vb,
		Index:    ib,
		Min:      vertices[0].Position,
		Max:      vertices[0].Position,
	}
	for _, v := range vertices[1:] {
		mesh.Min = mathx.Min3(mesh.Min, v.Position)
		mesh.Max = mathx.Max3(mesh.Max, v.Position)
	}
	mesh.ID = m.add(KindMesh, mesh)
	return mesh.ID, nil
}

// CreateMaterial creates a material tinted by color. A None albedo uses the
// white texture.
func (m *Manager) CreateMaterial(name string, color mathx.Vec4, albedo ID) (ID, error) {
	if albedo == None {
		albedo = m.white
	}
	if !m.Exists(albedo, KindTexture) {
		return None, fmt.Errorf("create material %q: albedo: %w", name, ErrNotFound)
	}
	ub, err := m.device.CreateBuffer(gpu.BufferDesc{
		Label:       name + ".material",
		ElementSize: shader.MaterialSize,
		Length:      1,
		Usage:       gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		Frequency:   gpu.Static,
	}, shader.Material{Color: color}.Encode())
	if err != nil {
		return None, fmt.Errorf("create material %q: %w", name, err)
	}
	mat := &Material{Name: name, Color: color, Albedo: albedo, Uniform: ub}
	mat.ID = m.add(KindMaterial, mat)
	return mat.ID, nil
}

// CreateSkeleton registers bones. A bone whose InverseBind is the zero
// matrix gets the inverse of its global bind transform. Parents must come
// before their children.
func (m *Manager) CreateSkeleton(name string, bones []Bone) (ID, error) {
	globals := make([]mathx.Mat4, len(bones))
	for i := range bones {
		p := bones[i].Parent
		switch {
		case p < 0:
			globals[i] = bones[i].Bind
		case p >= i:
			return None, fmt.Errorf("create skeleton %q: bone %d has parent %d", name, i, p)
		default:
			globals[i] = globals[p].Mul(bones[i].Bind)
		}
		if bones[i].InverseBind == (mathx.Mat4{}) {
			bones[i].InverseBind = globals[i].Inverse()
		}
	}
	s := &Skeleton{Name: name, Bones: bones}
	s.ID = m.add(KindSkeleton, s)
	return s.ID, nil
}

// CreateAnimation registers keyframe channels. A zero length becomes the
// time of the last key in any channel.
func (m *Manager) CreateAnimation(name string, length float32, channels []Channel) (ID, error) {
	if length == 0 {
		for _, c := range channels {
			if n := len(c.Keys); n > 0 {
				length = max(length, c.Keys[n-1].Time)
			}
		}
	}
	a := &Animation{Name: name, Length: length, Channels: channels}
	a.ID = m.add(KindAnimation, a)
	return a.ID, nil
}

// Destroy removes one asset and frees its GPU resources. Persistent
// defaults cannot be destroyed.
func (m *Manager) Destroy(id ID) error {
	e, ok := m.assets[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if e.persistent {
		return fmt.Errorf("destroy %s %d: asset is persistent", e.kind, id)
	}
	delete(m.assets, id)
	return m.release(e)
}

// DestroyAssets removes every asset except the persistent defaults.
func (m *Manager) DestroyAssets() error {
	var errs []error
	n := 0
	for id, e := range m.assets {
		if e.persistent {
			continue
		}
		delete(m.assets, id)
		if err := m.release(e); err != nil {
			errs = append(errs, err)
		}
		n++
	}
	m.log.Debug("destroyed assets", zap.Int("count", n), zap.Int("kept", len(m.assets)))
	return errors.Join(errs...)
}

func (m *Manager) release(e entry) error {
	switch v := e.value.(type) {
	case *Texture:
		return m.device.DestroyTexture(v.GPU)
	case *Mesh:
		return errors.Join(m.device.DestroyBuffer(v.Vertex), m.device.DestroyBuffer(v.Index))
	case *Material:
		return m.device.DestroyBuffer(v.Uniform)
	}
	return nil
}
