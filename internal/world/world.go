// Package world owns the two engines of a client session, the entity
// registry living on them, and the fixed-step tick that drives both.
package world

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"cogentcore.org/core/math32"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/orbitforge/client/internal/config"
	"github.com/orbitforge/client/internal/core/ecs"
	"github.com/orbitforge/client/internal/core/event"
	coresys "github.com/orbitforge/client/internal/core/system"
	"github.com/orbitforge/client/internal/data"
	"github.com/orbitforge/client/internal/engine"
	"github.com/orbitforge/client/internal/entity"
	"github.com/orbitforge/client/internal/selection"
)

var (
	ErrNoPrototypes   = errors.New("no prototype table loaded")
	ErrGhostPrototype = errors.New("ghost prototype has no entity")
	ErrUnknownGhost   = errors.New("unknown ghost")
	ErrInvalidRadius  = errors.New("radius must not be negative")
)

// ghost is a tracked ghost body.
type ghost struct {
	handle engine.PhysicsHandle
	proto  string
}

// World is the only component that talks to both engines directly. It hands
// out builders bound to its registry, keeps the spatial grid and the
// deferred destruction queue, and runs the registered systems once per tick.
// Accessed only from the game loop goroutine, no locks.
type World struct {
	graphics engine.Graphics
	physics  engine.Physics
	log      *zap.Logger

	reg    *entity.Registry
	bus    *event.Bus
	runner *coresys.Runner
	grid   *Grid

	protos *data.PrototypeTable
	origin map[ecs.EntityID]string // prototype of spawned entities
	ghosts map[string]ghost
	bodies map[engine.PhysicsHandle]string
	props  map[string]engine.GraphicsHandle // cameras, lights, effects
	sets   map[*selection.Set]func()        // deletion subscriptions
	doomed []*entity.Entity
	tick   uint64
	closed bool
}

func New(g engine.Graphics, p engine.Physics, cfg config.WorldConfig, log *zap.Logger) *World {
	w := &World{
		graphics: g,
		physics:  p,
		log:      log,
		reg:      entity.NewRegistry(g, p, log),
		bus:      event.NewBus(),
		runner:   coresys.NewRunner(),
		grid:     NewGrid(cfg.GridCellSize),
		origin:   make(map[ecs.EntityID]string),
		ghosts:   make(map[string]ghost),
		bodies:   make(map[engine.PhysicsHandle]string),
		props:    make(map[string]engine.GraphicsHandle),
		sets:     make(map[*selection.Set]func()),
	}
	w.reg.OnCreated(w.entityCreated)
	w.reg.OnDestroyed(w.entityDestroyed)
	return w
}

func (w *World) entityCreated(e *entity.Entity) {
	w.grid.Add(e.ID(), e.Position())
	if b := e.Body(); b != 0 {
		w.bodies[b] = e.Name()
	}
	event.Publish(w.bus, event.EntityCreated{Entity: e})
}

func (w *World) entityDestroyed(e *entity.Entity) {
	w.grid.Remove(e.ID())
	delete(w.bodies, e.Body())
	delete(w.origin, e.ID())
	event.Publish(w.bus, event.EntityDestroyed{Entity: e})
}

func (w *World) Graphics() engine.Graphics  { return w.graphics }
func (w *World) Physics() engine.Physics    { return w.physics }
func (w *World) Registry() *entity.Registry { return w.reg }
func (w *World) Bus() *event.Bus            { return w.bus }
func (w *World) Log() *zap.Logger           { return w.log }

// CurrentTick returns the number of the tick in progress, or of the last
// completed tick between ticks.
func (w *World) CurrentTick() uint64 { return w.tick }

// CreateEntity returns a builder whose product is registered in this world.
func (w *World) CreateEntity() *entity.Builder {
	return w.reg.NewBuilder()
}

// Entity resolves a live entity by name.
func (w *World) Entity(name string) (*entity.Entity, bool) {
	return w.reg.ByName(name)
}

// DeleteEntity deletes e immediately.
func (w *World) DeleteEntity(e *entity.Entity) error {
	return e.Delete()
}

func (w *World) CreateCamera(name string) (engine.GraphicsHandle, error) {
	h, err := w.graphics.CreateCamera(name)
	if err != nil {
		return 0, fmt.Errorf("create camera %q: %w", name, err)
	}
	w.props[name] = h
	return h, nil
}

func (w *World) CreateLight(name string, light engine.Light) (engine.GraphicsHandle, error) {
	h, err := w.graphics.CreateLight(name, light)
	if err != nil {
		return 0, fmt.Errorf("create light %q: %w", name, err)
	}
	w.props[name] = h
	return h, nil
}

func (w *World) CreateEffect(name, effect string) (engine.GraphicsHandle, error) {
	h, err := w.graphics.CreateEffect(name, effect)
	if err != nil {
		return 0, fmt.Errorf("create effect %q (%s): %w", name, effect, err)
	}
	w.props[name] = h
	return h, nil
}

// DestroyProp releases a camera, light or effect created by this world.
func (w *World) DestroyProp(name string) error {
	h, ok := w.props[name]
	if !ok {
		return fmt.Errorf("destroy %q: %w", name, engine.ErrUnknownHandle)
	}
	delete(w.props, name)
	return w.graphics.Destroy(h)
}

// NewSelectionSet creates a selection set that drops members as soon as
// they are deleted. The world keeps the set subscribed until
// ReleaseSelectionSet or Close.
func (w *World) NewSelectionSet(capacity int) (*selection.Set, error) {
	s, err := selection.New(capacity)
	if err != nil {
		return nil, err
	}
	w.sets[s] = event.Subscribe(w.bus, func(ev event.EntityDestroyed) {
		s.EntityDestroyed(ev.Entity)
	})
	return s, nil
}

// ReleaseSelectionSet stops tracking deletions for s. The set keeps its
// current members.
func (w *World) ReleaseSelectionSet(s *selection.Set) {
	if stop, ok := w.sets[s]; ok {
		stop()
		delete(w.sets, s)
	}
}

// MarkForDestruction queues e for deletion at the end of the current tick.
// Marking the same entity twice queues it once.
func (w *World) MarkForDestruction(e *entity.Entity) {
	if e == nil || !e.Live() {
		return
	}
	for _, d := range w.doomed {
		if d.ID() == e.ID() {
			return
		}
	}
	w.doomed = append(w.doomed, e)
}

// PendingDestruction returns the number of queued entities.
func (w *World) PendingDestruction() int { return len(w.doomed) }

// FlushDestroyQueue deletes every queued entity that is still live.
func (w *World) FlushDestroyQueue() error {
	var errs error
	for i, e := range w.doomed {
		if e.Live() {
			errs = multierr.Append(errs, e.Delete())
		}
		w.doomed[i] = nil
	}
	w.doomed = w.doomed[:0]
	return errs
}

// Register adds a per-tick system.
func (w *World) Register(s coresys.System) {
	w.runner.Register(s)
}

// Tick advances the world by one fixed step, running every system in
// phase order.
func (w *World) Tick(dt time.Duration) {
	w.tick++
	w.runner.Tick(dt)
}

// Redraw runs only the render phase. The simulation does not advance and
// the tick counter is unchanged.
func (w *World) Redraw() {
	w.runner.TickPhase(coresys.PhaseRender, 0)
}

// BodyName maps a physics handle to the entity or ghost that owns it.
func (w *World) BodyName(h engine.PhysicsHandle) string {
	if name, ok := w.bodies[h]; ok {
		return name
	}
	return fmt.Sprintf("body#%d", h)
}

// RefreshGrid moves every live entity to the cell of its current position.
func (w *World) RefreshGrid() {
	w.reg.Each(func(e *entity.Entity) {
		w.grid.Move(e.ID(), e.Position())
	})
}

// EntitiesNear returns the live entities within radius of center, nearest
// first; equal distances are ordered by name.
func (w *World) EntitiesNear(center math32.Vector3, radius float32) ([]*entity.Entity, error) {
	if radius < 0 {
		return nil, ErrInvalidRadius
	}
	w.RefreshGrid()
	type hit struct {
		e    *entity.Entity
		dist float32
	}
	var hits []hit
	for _, id := range w.grid.Nearby(center, radius) {
		e, ok := w.reg.Get(id)
		if !ok {
			continue
		}
		if d := e.Position().DistanceTo(center); d <= radius {
			hits = append(hits, hit{e: e, dist: d})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].e.Name() < hits[j].e.Name()
	})
	out := make([]*entity.Entity, len(hits))
	for i, h := range hits {
		out[i] = h.e
	}
	return out, nil
}

// SelectNear replaces the selection of set with the entities near center,
// nearest first, keeping as many as the set holds.
func (w *World) SelectNear(set *selection.Set, center math32.Vector3, radius float32) error {
	near, err := w.EntitiesNear(center, radius)
	if err != nil {
		return err
	}
	set.SetSelectionList(near)
	return nil
}

// Close deletes every entity, ghost and prop. Children go before parents.
func (w *World) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	var errs error
	var all []*entity.Entity
	w.reg.Each(func(e *entity.Entity) { all = append(all, e) })
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Live() {
			errs = multierr.Append(errs, all[i].Delete())
		}
	}
	for _, name := range sortedKeys(w.ghosts) {
		errs = multierr.Append(errs, w.DestroyGhost(name))
	}
	for _, name := range sortedKeys(w.props) {
		errs = multierr.Append(errs, w.DestroyProp(name))
	}
	for s := range w.sets {
		w.ReleaseSelectionSet(s)
	}
	w.doomed = nil
	if errs != nil {
		return fmt.Errorf("close world: %w", errs)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
