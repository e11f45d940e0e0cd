package entity

import (
	"fmt"

	"cogentcore.org/core/math32"
	"go.uber.org/zap"

	"github.com/orbitforge/client/internal/engine"
)

// Builder accumulates the description of one object and creates the
// matching graphics node and physics body. A builder produces at most one
// object: after a successful Build call every further Build call returns
// ErrBuilderConsumed. A failed Build leaves it usable, so the caller may fix
// the description and retry.
type Builder struct {
	reg *Registry

	id       string
	gshape   engine.Shape
	pshape   engine.Shape
	material engine.Material
	mass     float32
	pos      math32.Vector3
	dir      math32.Vector3
	scale    math32.Vector3
	parent   *Entity
	consumed bool
}

func (b *Builder) WithID(id string) *Builder {
	b.id = id
	return b
}

func (b *Builder) WithGraphicShape(s engine.Shape) *Builder {
	b.gshape = s
	return b
}

// WithPhysicShape sets a collision shape distinct from the visual one.
func (b *Builder) WithPhysicShape(s engine.Shape) *Builder {
	b.pshape = s
	return b
}

// WithShape sets both the visual and the collision shape.
func (b *Builder) WithShape(s engine.Shape) *Builder {
	b.gshape = s
	b.pshape = s
	return b
}

func (b *Builder) WithMaterial(m engine.Material) *Builder {
	b.material = m
	return b
}

func (b *Builder) WithMass(mass float32) *Builder {
	b.mass = mass
	return b
}

func (b *Builder) AtPosition(pos math32.Vector3) *Builder {
	b.pos = pos
	return b
}

// WithDirection sets the initial forward axis. The default is -Z.
func (b *Builder) WithDirection(dir math32.Vector3) *Builder {
	b.dir = dir
	return b
}

// WithScale sets the initial scale. The default is (1, 1, 1).
func (b *Builder) WithScale(s math32.Vector3) *Builder {
	b.scale = s
	return b
}

// WithParent attaches the built object under parent. Ignored for dynamic
// objects, which cannot have a parent.
func (b *Builder) WithParent(parent *Entity) *Builder {
	b.parent = parent
	return b
}

// BuildVisualObject creates a graphics node with no physics body.
func (b *Builder) BuildVisualObject() (*Entity, error) {
	return b.build(GraphicsOnly, engine.NodeMovable, engine.BodyStatic)
}

// BuildStaticObject creates a static body and a static node. Graphics
// leads, so editing tools can still reposition it.
func (b *Builder) BuildStaticObject() (*Entity, error) {
	return b.build(GraphicsLeads, engine.NodeStatic, engine.BodyStatic)
}

// BuildMovableObject creates a kinematic body and a movable node. Game
// logic drives the node; the body follows for collision queries.
func (b *Builder) BuildMovableObject() (*Entity, error) {
	return b.build(GraphicsLeads, engine.NodeMovable, engine.BodyKinematic)
}

// BuildDynamicObject creates a dynamic body and a movable node. The body is
// authoritative and needs a positive mass.
func (b *Builder) BuildDynamicObject() (*Entity, error) {
	return b.build(PhysicsLeads, engine.NodeMovable, engine.BodyDynamic)
}

// BuildGhost creates an invisible ghost body used only to detect overlaps.
// It returns the raw physics handle; the caller owns its release.
func (b *Builder) BuildGhost() (engine.PhysicsHandle, error) {
	if b.consumed {
		return 0, ErrBuilderConsumed
	}
	if b.id == "" {
		return 0, ErrMissingID
	}
	shape := b.physicShape()
	if shape.IsZero() {
		return 0, fmt.Errorf("build ghost %q: %w", b.id, ErrMissingShape)
	}
	p := b.reg.physics
	h, err := p.CreateBody(b.id, engine.BodyGhost, shape, 0)
	if err != nil {
		return 0, fmt.Errorf("build ghost %q: %w", b.id, err)
	}
	p.SetPosition(h, b.pos)
	p.SetOrientation(h, engine.QuatFromDirection(b.dir))
	if b.scale != (math32.Vector3{}) {
		p.SetScale(h, b.scale)
	}
	b.consumed = true
	return h, nil
}

func (b *Builder) physicShape() engine.Shape {
	if !b.pshape.IsZero() {
		return b.pshape
	}
	return b.gshape
}

func (b *Builder) validate(auth Authority) error {
	if b.consumed {
		return ErrBuilderConsumed
	}
	if b.id == "" {
		return ErrMissingID
	}
	if b.gshape.IsZero() {
		return fmt.Errorf("build %q: %w", b.id, ErrMissingShape)
	}
	if b.material.IsZero() {
		return fmt.Errorf("build %q: %w", b.id, ErrMissingMaterial)
	}
	if auth == PhysicsLeads && b.mass <= 0 {
		return fmt.Errorf("build %q: mass %g: %w", b.id, b.mass, ErrInvalidMass)
	}
	if b.reg.nameTaken(b.id) {
		return fmt.Errorf("build %q: %w", b.id, ErrDuplicateID)
	}
	if b.parent != nil {
		b.parent.checkLive("build child of")
	}
	return nil
}

// build creates the body first and the node second; a node failure
// releases the body so nothing is left orphaned.
func (b *Builder) build(auth Authority, nodeKind engine.NodeKind, bodyKind engine.BodyKind) (*Entity, error) {
	if err := b.validate(auth); err != nil {
		return nil, err
	}
	g, p := b.reg.graphics, b.reg.physics

	var body engine.PhysicsHandle
	if auth.HasPhysics() {
		var err error
		body, err = p.CreateBody(b.id, bodyKind, b.physicShape(), b.mass)
		if err != nil {
			return nil, fmt.Errorf("build %s object %q: %w", bodyKind, b.id, err)
		}
	}
	node, err := g.CreateNode(b.id, nodeKind, b.gshape, b.material)
	if err != nil {
		if body != 0 {
			if derr := p.Destroy(body); derr != nil {
				b.reg.log.Warn("release body after failed build",
					zap.String("entity", b.id), zap.Error(derr))
			}
		}
		return nil, fmt.Errorf("build %s node %q: %w", nodeKind, b.id, err)
	}

	e := b.reg.register(b.id, auth, node, body)
	scale := b.scale
	if scale == (math32.Vector3{}) {
		scale = math32.Vec3(1, 1, 1)
	}
	q := engine.QuatFromDirection(b.dir)
	g.SetScale(node, scale)
	if body != 0 {
		p.SetScale(body, scale)
	}
	if auth == PhysicsLeads {
		p.SetPosition(body, b.pos)
		p.SetOrientation(body, q)
		e.SyncFromPhysics()
	} else {
		g.SetPosition(node, b.pos)
		g.SetOrientation(node, q)
		e.mirror()
		if b.parent != nil {
			if err := e.AttachTo(b.parent); err != nil {
				b.reg.log.Warn("attach after build", zap.String("entity", b.id), zap.Error(err))
			}
		}
	}
	b.consumed = true
	b.reg.created(e)
	return e, nil
}

func (b *Builder) String() string {
	return fmt.Sprintf("Builder(%q)", b.id)
}
