// Package scene holds a scene's entities, their components and the
// systems that update them, plus the manager that swaps scenes at frame
// boundaries.
package scene

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"lumen/internal/asset"
	"lumen/internal/component"
	"lumen/internal/config"
	"lumen/internal/ecs"
	"lumen/internal/gpu"
	"lumen/internal/input"
)

var (
	ErrChildrenFull = errors.New("scene: children full")
	ErrNotChild     = errors.New("scene: not a child of this parent")
	ErrCycle        = errors.New("scene: child is an ancestor of the parent")
)

// Services are the engine-wide collaborators a scene works with.
type Services struct {
	Device *gpu.Device
	Assets *asset.Manager
	Input  *input.Manager
	Log    *zap.Logger
	Config *config.Config
}

// System updates a scene once per frame.
type System interface {
	Name() string
	Update(s *Scene, dt float32) error
}

// PopulateFunc creates a scene's assets and entities.
type PopulateFunc func(s *Scene) error

type Scene struct {
	name     string
	svc      Services
	log      *zap.Logger
	entities *ecs.Table
	stores   ecs.Stores
	systems  []System
	camera   ecs.EntityID
	populate PopulateFunc
	cleanup  []func()
}

// New creates an empty scene. Nothing is built until Populate runs, which
// the manager does when the scene becomes current.
func New(name string, svc Services, populate PopulateFunc) *Scene {
	cfg := config.Default().Engine
	if svc.Config != nil {
		cfg = svc.Config.Engine
	}
	s := &Scene{
		name:     name,
		svc:      svc,
		log:      svc.Log.With(zap.String("scene", name)),
		entities: ecs.NewTable(cfg.Entities),
		camera:   ecs.NullEntity,
		populate: populate,
	}
	register[component.Transform](s, cfg)
	register[component.GUITransform](s, cfg)
	register[component.StaticMeshRenderable](s, cfg)
	register[component.SkinnedMeshRenderable](s, cfg)
	register[component.TerrainMeshRenderable](s, cfg)
	register[component.GUIRenderable](s, cfg)
	register[component.TextRenderable](s, cfg)
	register[component.Camera](s, cfg)
	register[component.Light](s, cfg)
	register[component.SkeletalAnimation](s, cfg)
	register[component.Joint](s, cfg)
	register[component.Parent](s, cfg)
	register[component.Children](s, cfg)
	return s
}

func register[T component.Component](s *Scene, cfg config.EngineConfig) {
	var zero T
	k := zero.Kind()
	s.stores.Register(k, ecs.NewPool[T](cfg.Capacity(component.Name(k))))
}

func (s *Scene) Name() string               { return s.name }
func (s *Scene) Services() Services         { return s.svc }
func (s *Scene) Log() *zap.Logger           { return s.log }
func (s *Scene) Assets() *asset.Manager     { return s.svc.Assets }
func (s *Scene) Input() *input.Manager      { return s.svc.Input }
func (s *Scene) Systems() []System          { return s.systems }
func (s *Scene) ActiveCamera() ecs.EntityID { return s.camera }

// AddSystem appends sys to the update order.
func (s *Scene) AddSystem(sys ...System) { s.systems = append(s.systems, sys...) }

// SetActiveCamera makes id, which must hold a Camera, the scene's camera.
func (s *Scene) SetActiveCamera(id ecs.EntityID) error {
	if !s.Mask(id).Has(component.KindCamera) {
		return fmt.Errorf("set active camera %d: %w", id, ecs.ErrUnknownOwner)
	}
	s.camera = id
	return nil
}

// Populate runs the scene's populate step.
func (s *Scene) Populate() error {
	if s.populate == nil {
		return nil
	}
	if err := s.populate(s); err != nil {
		return fmt.Errorf("populate %s: %w", s.name, err)
	}
	s.log.Info("scene populated", zap.Int("entities", s.entities.Len()))
	return nil
}

// Update runs every system in order. A failing system is logged and the
// rest still run.
func (s *Scene) Update(dt float32) error {
	var errs []error
	for _, sys := range s.systems {
		if err := sys.Update(s, dt); err != nil {
			s.log.Debug("system failed", zap.String("system", sys.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", sys.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// OnDestroy registers fn to run when the scene is destroyed, most recent
// first.
func (s *Scene) OnDestroy(fn func()) { s.cleanup = append(s.cleanup, fn) }

// Destroy runs the OnDestroy hooks, clears every store and entity and
// drops the scene's input handlers.
func (s *Scene) Destroy() {
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
	s.cleanup = nil
	s.stores.Clear()
	s.entities.Clear()
	s.camera = ecs.NullEntity
	if s.svc.Input != nil {
		s.svc.Input.Unregister(s)
	}
}

// CreateEntity returns a new entity with no components.
func (s *Scene) CreateEntity() ecs.EntityID { return s.entities.Create() }

func (s *Scene) Valid(id ecs.EntityID) bool { return s.entities.Valid(id) }

func (s *Scene) Mask(id ecs.EntityID) ecs.Mask { return s.entities.Mask(id) }

// Query returns the entities holding every kind in kinds, in id order.
func (s *Scene) Query(kinds ...ecs.Kind) []ecs.EntityID {
	return s.entities.Query(ecs.MaskOf(kinds...))
}

// EntityCount returns the number of live entities.
func (s *Scene) EntityCount() int { return s.entities.Len() }

// FreeIDs returns how many destroyed ids are waiting to be reused.
func (s *Scene) FreeIDs() int { return s.entities.FreeIDs() }

// Store returns the kind-erased store of kind k.
func (s *Scene) Store(k ecs.Kind) ecs.Store { return s.stores.At(k) }

// Pool returns the scene's pool for component type T.
func Pool[T component.Component](s *Scene) *ecs.Pool[T] {
	var zero T
	return s.stores.At(zero.Kind()).(*ecs.Pool[T])
}

// Add attaches c to id and returns the stored copy.
func Add[T component.Component](s *Scene, id ecs.EntityID, c T) (*T, error) {
	k := c.Kind()
	if !s.entities.Valid(id) {
		return nil, fmt.Errorf("add %s: %w: %d", component.Name(k), ecs.ErrInvalidEntity, id)
	}
	slot, err := Pool[T](s).Occupy(id)
	if err != nil {
		s.log.Error("add component", zap.Uint32("entity", uint32(id)), zap.String("kind", component.Name(k)), zap.Error(err))
		return nil, fmt.Errorf("add %s: %w", component.Name(k), err)
	}
	*slot = c
	s.entities.Attach(id, k)
	return slot, nil
}

// Get returns id's component of type T.
func Get[T component.Component](s *Scene, id ecs.EntityID) (*T, bool) {
	return Pool[T](s).Get(id)
}

// Remove detaches id's component of type T.
func Remove[T component.Component](s *Scene, id ecs.EntityID) error {
	var zero T
	k := zero.Kind()
	if err := Pool[T](s).Release(id); err != nil {
		return fmt.Errorf("remove %s: %w", component.Name(k), err)
	}
	s.entities.Detach(id, k)
	return nil
}
