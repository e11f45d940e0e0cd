package world

import (
	"fmt"

	"cogentcore.org/core/math32"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/orbitforge/client/internal/data"
	"github.com/orbitforge/client/internal/engine"
	"github.com/orbitforge/client/internal/entity"
)

// SetPrototypes installs the table Spawn resolves prototype names against.
func (w *World) SetPrototypes(t *data.PrototypeTable) {
	w.protos = t
}

func (w *World) Prototypes() *data.PrototypeTable { return w.protos }

func (w *World) prototype(name string) (*data.Prototype, error) {
	if w.protos == nil {
		return nil, ErrNoPrototypes
	}
	p := w.protos.Get(name)
	if p == nil {
		return nil, fmt.Errorf("%w %q", data.ErrUnknownPrototype, name)
	}
	return p, nil
}

func (w *World) builderFor(p *data.Prototype, name string, pos, dir math32.Vector3) *entity.Builder {
	b := w.CreateEntity().
		WithID(name).
		WithGraphicShape(p.GraphicShape()).
		WithPhysicShape(p.PhysicShape()).
		WithMaterial(p.MaterialDesc()).
		WithMass(p.Mass).
		AtPosition(pos).
		WithDirection(dir)
	if p.Scale != nil {
		b.WithScale(p.Scale.Vector3())
	}
	return b
}

// Spawn builds a named entity from a prototype. Ghost prototypes are
// rejected with ErrGhostPrototype; use SpawnGhost for them.
func (w *World) Spawn(proto, name string, pos, dir math32.Vector3) (*entity.Entity, error) {
	p, err := w.prototype(proto)
	if err != nil {
		return nil, fmt.Errorf("spawn %q: %w", name, err)
	}
	b := w.builderFor(p, name, pos, dir)
	var e *entity.Entity
	switch p.Kind {
	case data.KindVisual:
		e, err = b.BuildVisualObject()
	case data.KindStatic:
		e, err = b.BuildStaticObject()
	case data.KindMovable:
		e, err = b.BuildMovableObject()
	case data.KindDynamic:
		e, err = b.BuildDynamicObject()
	default:
		return nil, fmt.Errorf("spawn %q from %q: %w", name, proto, ErrGhostPrototype)
	}
	if err != nil {
		return nil, fmt.Errorf("spawn %q from %q: %w", name, proto, err)
	}
	w.origin[e.ID()] = p.Name
	return e, nil
}

// SpawnGhost builds a tracked ghost body from a prototype of any kind. Its
// contacts are reported under name.
func (w *World) SpawnGhost(proto, name string, pos math32.Vector3) (engine.PhysicsHandle, error) {
	p, err := w.prototype(proto)
	if err != nil {
		return 0, fmt.Errorf("spawn ghost %q: %w", name, err)
	}
	if _, taken := w.ghosts[name]; taken {
		return 0, fmt.Errorf("spawn ghost %q: %w", name, entity.ErrDuplicateID)
	}
	if _, taken := w.reg.ByName(name); taken {
		return 0, fmt.Errorf("spawn ghost %q: %w", name, entity.ErrDuplicateID)
	}
	h, err := w.builderFor(p, name, pos, math32.Vector3{}).BuildGhost()
	if err != nil {
		return 0, fmt.Errorf("spawn ghost %q from %q: %w", name, proto, err)
	}
	w.ghosts[name] = ghost{handle: h, proto: p.Name}
	w.bodies[h] = name
	return h, nil
}

// DestroyGhost releases a ghost created by SpawnGhost.
func (w *World) DestroyGhost(name string) error {
	g, ok := w.ghosts[name]
	if !ok {
		return fmt.Errorf("destroy ghost %q: %w", name, ErrUnknownGhost)
	}
	delete(w.ghosts, name)
	delete(w.bodies, g.handle)
	if err := w.physics.Destroy(g.handle); err != nil {
		return fmt.Errorf("destroy ghost %q: %w", name, err)
	}
	return nil
}

// Ghost returns the handle of a tracked ghost.
func (w *World) Ghost(name string) (engine.PhysicsHandle, bool) {
	g, ok := w.ghosts[name]
	return g.handle, ok
}

// LoadLevel spawns every entry of list in order and attaches children to
// their parents. Child positions are local to the parent. A failing entry
// is skipped and reported; the rest of the level still loads.
func (w *World) LoadLevel(list *data.SpawnList) error {
	if w.protos == nil {
		return fmt.Errorf("load level %q: %w", list.Level, ErrNoPrototypes)
	}
	if err := list.Validate(w.protos); err != nil {
		return fmt.Errorf("load level %q: %w", list.Level, err)
	}
	var errs error
	for _, s := range list.Entries {
		p, err := w.prototype(s.Prototype)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("spawn %q: %w", s.Name, err))
			continue
		}
		if p.Kind == data.KindGhost {
			_, err := w.SpawnGhost(s.Prototype, s.Name, s.Position.Vector3())
			errs = multierr.Append(errs, err)
			continue
		}
		e, err := w.Spawn(s.Prototype, s.Name, s.Position.Vector3(), s.Direction.Vector3())
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if s.Parent == "" {
			continue
		}
		parent, ok := w.reg.ByName(s.Parent)
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("attach %q: parent %q was not spawned", s.Name, s.Parent))
			continue
		}
		if err := e.AttachTo(parent); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("attach %q to %q: %w", s.Name, s.Parent, err))
		}
	}
	w.log.Info("level loaded",
		zap.String("level", list.Level),
		zap.Int("entries", len(list.Entries)),
		zap.Int("entities", w.reg.Len()),
		zap.Int("ghosts", len(w.ghosts)))
	if errs != nil {
		return fmt.Errorf("load level %q: %w", list.Level, errs)
	}
	return nil
}

// Layout snapshots the prototype-spawned entities and ghosts back into a
// spawn list that LoadLevel reproduces. Dynamic entities are left out since
// their pose belongs to the simulation. An entity whose parent is not part
// of the layout is saved at its world pose without a parent.
func (w *World) Layout(level string) *data.SpawnList {
	l := &data.SpawnList{Level: level}
	var walk func(e *entity.Entity, parent string)
	walk = func(e *entity.Entity, parent string) {
		name := ""
		if proto, ok := w.origin[e.ID()]; ok && e.Authority() != entity.PhysicsLeads {
			pose := e.Pose()
			if parent != "" {
				pose = w.graphics.Pose(e.Node())
			}
			l.Entries = append(l.Entries, data.SpawnEntry{
				Prototype: proto,
				Name:      e.Name(),
				Position:  data.FromVector3(pose.Pos),
				Direction: data.FromVector3(pose.Direction()),
				Parent:    parent,
			})
			name = e.Name()
		}
		for _, c := range e.Children() {
			walk(c, name)
		}
	}
	w.reg.Each(func(e *entity.Entity) {
		if _, hasParent := e.Parent(); !hasParent {
			walk(e, "")
		}
	})
	for _, name := range sortedKeys(w.ghosts) {
		g := w.ghosts[name]
		l.Entries = append(l.Entries, data.SpawnEntry{
			Prototype: g.proto,
			Name:      name,
			Position:  data.FromVector3(w.physics.Pose(g.handle).Pos),
		})
	}
	return l
}
