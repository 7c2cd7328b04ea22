package script

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"lumen/internal/asset"
	"lumen/internal/component"
	"lumen/internal/ecs"
	"lumen/internal/factory"
	"lumen/internal/mathx"
	"lumen/internal/scene"
)

// module builds the lumen table. Asset constructors return ids and entity
// constructors return entity ids; failures raise a Lua error.
func (e *Engine) module() *lua.LTable {
	t := e.vm.NewTable()
	e.vm.SetFuncs(t, map[string]lua.LGFunction{
		"cube":         e.luaCube,
		"grid":         e.luaGrid,
		"column":       e.luaColumn,
		"sway":         e.luaSway,
		"solid":        e.luaSolid,
		"material":     e.luaMaterial,
		"camera":       e.luaCamera,
		"light":        e.luaLight,
		"mesh":         e.luaMesh,
		"terrain":      e.luaTerrain,
		"skinned":      e.luaSkinned,
		"image":        e.luaImage,
		"text":         e.luaText,
		"set_text":     e.luaSetText,
		"move":         e.luaMove,
		"add_child":    e.luaAddChild,
		"destroy":      e.luaDestroy,
		"entity_count": e.luaEntityCount,
		"log":          e.luaLog,
	})
	return t
}

func (e *Engine) check(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
}

func pushID[T ~uint32](L *lua.LState, id T) int {
	L.Push(lua.LNumber(id))
	return 1
}

func num(L *lua.LState, n int) float32 { return float32(L.CheckNumber(n)) }

func optNum(L *lua.LState, n int, def float32) float32 {
	return float32(L.OptNumber(n, lua.LNumber(def)))
}

func assetArg(L *lua.LState, n int) asset.ID { return asset.ID(L.CheckInt(n)) }

func entityArg(L *lua.LState, n int) ecs.EntityID { return ecs.EntityID(L.CheckInt(n)) }

// field reads a number from a table argument.
func field(t *lua.LTable, key string, def float32) float32 {
	if v, ok := t.RawGetString(key).(lua.LNumber); ok {
		return float32(v)
	}
	return def
}

// placement builds a transform from x, y, z and an optional yaw in
// degrees starting at argument n.
func placement(L *lua.LState, n int) mathx.Mat4 {
	pos := mathx.V3(optNum(L, n, 0), optNum(L, n+1, 0), optNum(L, n+2, 0))
	yaw := optNum(L, n+3, 0)
	return mathx.Compose(pos, factory.Euler(0, yaw, 0), mathx.V3(1, 1, 1))
}

func (e *Engine) luaCube(L *lua.LState) int {
	v, i := asset.Cube(optNum(L, 2, 1))
	id, err := e.s.Assets().CreateMesh(L.CheckString(1), v, i, false)
	e.check(L, err)
	return pushID(L, id)
}

func (e *Engine) luaGrid(L *lua.LState) int {
	size, cells, amp := num(L, 2), L.OptInt(3, 16), optNum(L, 4, 0)
	var height func(x, z float32) float32
	if amp != 0 {
		height = func(x, z float32) float32 { return amp * (x*x + z*z) / (size * size) }
	}
	v, i := asset.Grid(size, cells, height)
	id, err := e.s.Assets().CreateMesh(L.CheckString(1), v, i, false)
	e.check(L, err)
	return pushID(L, id)
}

// luaColumn returns the mesh id and its skeleton id.
func (e *Engine) luaColumn(L *lua.LState) int {
	name := L.CheckString(1)
	v, i, bones := asset.Column(num(L, 2), num(L, 3), L.OptInt(4, 4))
	skel, err := e.s.Assets().CreateSkeleton(name, bones)
	e.check(L, err)
	mesh, err := e.s.Assets().CreateMesh(name, v, i, true)
	e.check(L, err)
	L.Push(lua.LNumber(mesh))
	L.Push(lua.LNumber(skel))
	return 2
}

func (e *Engine) luaSway(L *lua.LState) int {
	skel, err := e.s.Assets().Skeleton(assetArg(L, 2))
	e.check(L, err)
	length := optNum(L, 4, 2)
	id, err := e.s.Assets().CreateAnimation(L.CheckString(1), length,
		asset.Sway(skel.Bones, mathx.Radians(optNum(L, 3, 15)), length))
	e.check(L, err)
	return pushID(L, id)
}

func (e *Engine) luaSolid(L *lua.LState) int {
	c := [4]uint8{uint8(L.CheckInt(2)), uint8(L.CheckInt(3)), uint8(L.CheckInt(4)), uint8(L.OptInt(5, 255))}
	id, err := e.s.Assets().SolidTexture(L.CheckString(1), c)
	e.check(L, err)
	return pushID(L, id)
}

func (e *Engine) luaMaterial(L *lua.LState) int {
	color := mathx.V4(num(L, 2), num(L, 3), num(L, 4), optNum(L, 5, 1))
	id, err := e.s.Assets().CreateMaterial(L.CheckString(1), color, asset.ID(L.OptInt(6, 0)))
	e.check(L, err)
	return pushID(L, id)
}

// luaCamera takes a table {fov, near, far, x, y, z, yaw, pitch, active}.
func (e *Engine) luaCamera(L *lua.LState) int {
	t := L.CheckTable(1)
	cam := component.Camera{
		FOV:    mathx.Radians(field(t, "fov", 60)),
		Aspect: 1,
		ZNear:  field(t, "near", 0.1),
		ZFar:   field(t, "far", 100),
	}
	local := mathx.Compose(
		mathx.V3(field(t, "x", 0), field(t, "y", 0), field(t, "z", 0)),
		factory.Euler(field(t, "pitch", 0), field(t, "yaw", 0), 0),
		mathx.V3(1, 1, 1),
	)
	active := t.RawGetString("active") != lua.LFalse
	id, err := factory.NewCamera(e.s, cam, local, active)
	e.check(L, err)
	return pushID(L, id)
}

// luaLight takes a table {dx, dy, dz, r, g, b, shadow}.
func (e *Engine) luaLight(L *lua.LState) int {
	t := L.CheckTable(1)
	dir := mathx.V3(field(t, "dx", 0), field(t, "dy", -1), field(t, "dz", 0))
	color := mathx.V3(field(t, "r", 1), field(t, "g", 1), field(t, "b", 1))
	shadow := field(t, "shadow", e.s.Services().Config.Light.MaxShadowDistance)
	id, err := factory.NewDirectionalLight(e.s, dir, color, shadow)
	e.check(L, err)
	return pushID(L, id)
}

func (e *Engine) luaMesh(L *lua.LState) int {
	id, err := factory.NewStaticMesh(e.s, assetArg(L, 1), assetArg(L, 2), placement(L, 3), mathx.Vec4{})
	e.check(L, err)
	return pushID(L, id)
}

func (e *Engine) luaTerrain(L *lua.LState) int {
	id, err := factory.NewTerrain(e.s, assetArg(L, 1), assetArg(L, 2), placement(L, 3))
	e.check(L, err)
	return pushID(L, id)
}

// luaSkinned takes mesh, material, skeleton, animation (0 for none) and
// a placement.
func (e *Engine) luaSkinned(L *lua.LState) int {
	id, err := factory.NewSkinnedMesh(e.s, factory.SkinnedDesc{
		Mesh:      assetArg(L, 1),
		Material:  assetArg(L, 2),
		Skeleton:  assetArg(L, 3),
		Animation: asset.ID(L.OptInt(4, 0)),
	}, placement(L, 5))
	e.check(L, err)
	return pushID(L, id)
}

func (e *Engine) luaImage(L *lua.LState) int {
	id, err := factory.NewImage(e.s, assetArg(L, 1),
		mathx.V2(num(L, 2), num(L, 3)), mathx.V2(num(L, 4), num(L, 5)), L.OptInt(6, 0), mathx.Vec4{})
	e.check(L, err)
	return pushID(L, id)
}

func (e *Engine) luaText(L *lua.LState) int {
	id, err := factory.NewText(e.s, asset.None, L.CheckString(1),
		mathx.V2(num(L, 2), num(L, 3)), L.OptInt(4, 1), mathx.Vec4{}, 1)
	e.check(L, err)
	return pushID(L, id)
}

func (e *Engine) luaSetText(L *lua.LState) int {
	txt, ok := scene.Get[component.TextRenderable](e.s, entityArg(L, 1))
	if !ok {
		L.ArgError(1, "entity has no text")
	}
	txt.Text = L.CheckString(2)
	return 0
}

// luaMove sets an entity's local placement. Roots also get the matching
// global matrix since propagation does not write it.
func (e *Engine) luaMove(L *lua.LState) int {
	id := entityArg(L, 1)
	t, ok := scene.Get[component.Transform](e.s, id)
	if !ok {
		L.ArgError(1, "entity has no transform")
	}
	t.Local = placement(L, 2)
	if !e.s.Mask(id).Has(component.KindParent) {
		t.Global = t.Local
	}
	return 0
}

func (e *Engine) luaAddChild(L *lua.LState) int {
	e.check(L, e.s.AddChild(entityArg(L, 1), entityArg(L, 2)))
	return 0
}

func (e *Engine) luaDestroy(L *lua.LState) int {
	e.check(L, e.s.DestroyEntity(entityArg(L, 1)))
	return 0
}

func (e *Engine) luaEntityCount(L *lua.LState) int {
	L.Push(lua.LNumber(e.s.EntityCount()))
	return 1
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}
