package entity

import (
	"fmt"

	"github.com/orbitforge/client/internal/engine"
)

// Authority decides which backing is the source of truth for an entity's
// transform. It is fixed when the entity is built.
type Authority int

const (
	// GraphicsOnly entities have no physics body.
	GraphicsOnly Authority = iota
	// GraphicsLeads entities own a static or kinematic body that mirrors
	// the graphics node after every write.
	GraphicsLeads
	// PhysicsLeads entities own a dynamic body; the graphics node follows
	// it through SyncFromPhysics.
	PhysicsLeads
)

func (a Authority) String() string {
	switch a {
	case GraphicsOnly:
		return "graphics-only"
	case GraphicsLeads:
		return "graphics-leads"
	case PhysicsLeads:
		return "physics-leads"
	}
	return fmt.Sprintf("Authority(%d)", int(a))
}

// HasPhysics reports whether entities of this authority own a body.
func (a Authority) HasPhysics() bool {
	return a != GraphicsOnly
}

// authorityFor maps the body kind chosen by a build to its authority.
func authorityFor(kind engine.BodyKind) Authority {
	if kind == engine.BodyDynamic {
		return PhysicsLeads
	}
	return GraphicsLeads
}
