package entity

import (
	"go.uber.org/zap"

	"github.com/orbitforge/client/internal/core/ecs"
	"github.com/orbitforge/client/internal/engine"
)

// Registry owns every live entity of one world and the id-keyed parent/child
// links between them. Entities reference each other only through IDs held
// here, so deleting or detaching never leaves a stale back-pointer.
// Accessed only from the game loop goroutine, no locks.
type Registry struct {
	graphics engine.Graphics
	physics  engine.Physics
	log      *zap.Logger

	ids      *ecs.Registry
	entities *ecs.Store[Entity]
	parents  *ecs.Store[ecs.EntityID]
	children *ecs.Store[[]ecs.EntityID]
	names    map[string]ecs.EntityID

	onCreated   []func(*Entity)
	onDestroyed []func(*Entity)
}

func NewRegistry(g engine.Graphics, p engine.Physics, log *zap.Logger) *Registry {
	r := &Registry{
		graphics: g,
		physics:  p,
		log:      log,
		ids:      ecs.NewRegistry(),
		entities: ecs.NewStore[Entity](),
		parents:  ecs.NewStore[ecs.EntityID](),
		children: ecs.NewStore[[]ecs.EntityID](),
		names:    make(map[string]ecs.EntityID, 64),
	}
	r.ids.Register(r.entities)
	r.ids.Register(r.parents)
	r.ids.Register(r.children)
	return r
}

// NewBuilder starts a declarative description of a new object.
func (r *Registry) NewBuilder() *Builder {
	return &Builder{reg: r}
}

// OnCreated registers fn to run after an entity is built and registered.
func (r *Registry) OnCreated(fn func(*Entity)) {
	r.onCreated = append(r.onCreated, fn)
}

// OnDestroyed registers fn to run right after an entity is deleted, while
// still inside its Delete call.
func (r *Registry) OnDestroyed(fn func(*Entity)) {
	r.onDestroyed = append(r.onDestroyed, fn)
}

// Get resolves a live entity by ID.
func (r *Registry) Get(id ecs.EntityID) (*Entity, bool) {
	return r.entities.Get(id)
}

// ByName resolves a live entity by the ID it was built with.
func (r *Registry) ByName(name string) (*Entity, bool) {
	id, ok := r.names[name]
	if !ok {
		return nil, false
	}
	return r.entities.Get(id)
}

// Len returns the number of live entities.
func (r *Registry) Len() int { return r.entities.Len() }

// Each visits live entities in ID order, which is creation order until
// freed slots are reused. fn may not delete entities; collect them and
// delete afterwards.
func (r *Registry) Each(fn func(*Entity)) {
	r.entities.Each(func(_ ecs.EntityID, e *Entity) { fn(e) })
}

func (r *Registry) nameTaken(name string) bool {
	_, ok := r.names[name]
	return ok
}

func (r *Registry) register(name string, auth Authority, node engine.GraphicsHandle, body engine.PhysicsHandle) *Entity {
	e := &Entity{
		id:        r.ids.Create(),
		name:      name,
		authority: auth,
		node:      node,
		body:      body,
		reg:       r,
	}
	r.entities.Set(e.id, e)
	r.names[name] = e.id
	return e
}

func (r *Registry) created(e *Entity) {
	for _, fn := range r.onCreated {
		fn(e)
	}
}

func (r *Registry) unregister(e *Entity) {
	r.unlink(e.id)
	delete(r.names, e.name)
	r.ids.Destroy(e.id)
	for _, fn := range r.onDestroyed {
		fn(e)
	}
}

func (r *Registry) parentOf(id ecs.EntityID) (*Entity, bool) {
	pid, ok := r.parents.Get(id)
	if !ok {
		return nil, false
	}
	return r.entities.Get(*pid)
}

func (r *Registry) childrenOf(id ecs.EntityID) []*Entity {
	ids, ok := r.children.Get(id)
	if !ok {
		return nil
	}
	out := make([]*Entity, 0, len(*ids))
	for _, cid := range *ids {
		if c, ok := r.entities.Get(cid); ok {
			out = append(out, c)
		}
	}
	return out
}

func (r *Registry) link(parent, child ecs.EntityID) {
	r.unlink(child)
	p := parent
	r.parents.Set(child, &p)
	ids, ok := r.children.Get(parent)
	if !ok {
		ids = new([]ecs.EntityID)
		r.children.Set(parent, ids)
	}
	*ids = append(*ids, child)
}

func (r *Registry) unlink(child ecs.EntityID) {
	pid, ok := r.parents.Get(child)
	if !ok {
		return
	}
	r.parents.Remove(child)
	ids, ok := r.children.Get(*pid)
	if !ok {
		return
	}
	for i, c := range *ids {
		if c == child {
			*ids = append((*ids)[:i], (*ids)[i+1:]...)
			break
		}
	}
	if len(*ids) == 0 {
		r.children.Remove(*pid)
	}
}

// isAncestor reports whether a is an ancestor of (or equal to) b.
func (r *Registry) isAncestor(a, b ecs.EntityID) bool {
	for id := b; ; {
		if id == a {
			return true
		}
		pid, ok := r.parents.Get(id)
		if !ok {
			return false
		}
		id = *pid
	}
}
