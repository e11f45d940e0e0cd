// Package entity implements the client-side game object: one handle over a
// graphics node and, optionally, a physics body, with every spatial write
// routed by the entity's Authority.
package entity

import (
	"fmt"

	"cogentcore.org/core/math32"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/orbitforge/client/internal/core/ecs"
	"github.com/orbitforge/client/internal/engine"
)

// Entity is the handle game logic holds. It exclusively owns its graphics
// node and physics body; nothing else may write to them.
//
// An entity is Live from its Build call until Delete. Every method except
// ID, Name, Authority, Live, Node and Body panics with *UseAfterDeleteError afterwards.
type Entity struct {
	id        ecs.EntityID
	name      string
	authority Authority
	node      engine.GraphicsHandle
	body      engine.PhysicsHandle
	reg       *Registry
	deleted   bool
}

func (e *Entity) ID() ecs.EntityID     { return e.id }
func (e *Entity) Name() string         { return e.name }
func (e *Entity) Authority() Authority { return e.authority }
func (e *Entity) Live() bool           { return !e.deleted }

// Node returns the graphics handle the entity owns.
func (e *Entity) Node() engine.GraphicsHandle { return e.node }

// Body returns the physics handle, zero for GraphicsOnly entities.
func (e *Entity) Body() engine.PhysicsHandle { return e.body }

func (e *Entity) String() string {
	return fmt.Sprintf("%s(%s)", e.name, e.authority)
}

func (e *Entity) checkLive(op string) {
	if e.deleted {
		panic(&UseAfterDeleteError{ID: e.id, Name: e.name, Op: op})
	}
}

func (e *Entity) g() engine.Graphics { return e.reg.graphics }
func (e *Entity) p() engine.Physics  { return e.reg.physics }

// ignored records a write the entity's authority does not accept.
func (e *Entity) ignored(op string) {
	e.reg.log.Debug("spatial write ignored",
		zap.String("entity", e.name),
		zap.Stringer("authority", e.authority),
		zap.String("op", op))
}

// Pose returns the world transform read from the authoritative backing.
func (e *Entity) Pose() engine.Pose {
	e.checkLive("pose")
	if e.authority == PhysicsLeads {
		return e.p().Pose(e.body)
	}
	return e.g().WorldPose(e.node)
}

func (e *Entity) Position() math32.Vector3  { return e.Pose().Pos }
func (e *Entity) Orientation() math32.Quat  { return e.Pose().Quat }
func (e *Entity) Direction() math32.Vector3 { return e.Pose().Direction() }
func (e *Entity) Scale() math32.Vector3     { return e.Pose().Scale }

// SetPosition moves the entity relative to its parent. It is a no-op for
// PhysicsLeads entities: dynamic bodies only move under simulation.
func (e *Entity) SetPosition(pos math32.Vector3) {
	e.checkLive("set position")
	if e.authority == PhysicsLeads {
		e.ignored("set position")
		return
	}
	e.g().SetPosition(e.node, pos)
	e.mirror()
}

// SetOrientation sets the rotation relative to the parent. No-op for
// PhysicsLeads entities.
func (e *Entity) SetOrientation(q math32.Quat) {
	e.checkLive("set orientation")
	if e.authority == PhysicsLeads {
		e.ignored("set orientation")
		return
	}
	e.g().SetOrientation(e.node, q)
	e.mirror()
}

// SetDirection points the entity's forward axis (-Z) along dir. No-op for
// PhysicsLeads entities.
func (e *Entity) SetDirection(dir math32.Vector3) {
	e.checkLive("set direction")
	if e.authority == PhysicsLeads {
		e.ignored("set direction")
		return
	}
	e.g().SetDirection(e.node, dir)
	e.mirror()
}

// LookAt points the forward axis at a world-space target. No-op for
// PhysicsLeads entities.
func (e *Entity) LookAt(target math32.Vector3) {
	e.checkLive("look at")
	if e.authority == PhysicsLeads {
		e.ignored("look at")
		return
	}
	e.g().LookAt(e.node, target)
	e.mirror()
}

// Translate moves the entity by delta. For PhysicsLeads entities delta is
// handed to the body as a linear impulse and takes effect on the next step.
func (e *Entity) Translate(delta math32.Vector3) {
	e.checkLive("translate")
	if e.authority == PhysicsLeads {
		e.p().ApplyImpulse(e.body, delta)
		return
	}
	e.g().Translate(e.node, delta)
	e.mirror()
}

// Rotate turns the entity around a local axis by angle radians. For
// PhysicsLeads entities it becomes an angular impulse of axis*angle.
func (e *Entity) Rotate(axis math32.Vector3, angle float32) {
	e.checkLive("rotate")
	if e.authority == PhysicsLeads {
		e.p().ApplyTorqueImpulse(e.body, axis.Normal().MulScalar(angle))
		return
	}
	e.g().Rotate(e.node, axis, angle)
	e.mirror()
}

// ApplyImpulse pushes a dynamic body. Entities without a dynamic body
// ignore it.
func (e *Entity) ApplyImpulse(impulse math32.Vector3) {
	e.checkLive("apply impulse")
	if e.authority != PhysicsLeads {
		e.ignored("apply impulse")
		return
	}
	e.p().ApplyImpulse(e.body, impulse)
}

// SetScale applies to both backings whatever the authority.
func (e *Entity) SetScale(scale math32.Vector3) {
	e.checkLive("set scale")
	e.g().SetScale(e.node, scale)
	if e.body != 0 {
		e.p().SetScale(e.body, scale)
	}
	e.mirror()
}

// Sleep suspends or resumes simulation of the body. No-op for
// GraphicsOnly entities.
func (e *Entity) Sleep(asleep bool) {
	e.checkLive("sleep")
	if e.body == 0 {
		return
	}
	e.p().Sleep(e.body, asleep)
}

func (e *Entity) Show() {
	e.checkLive("show")
	e.g().SetVisible(e.node, true)
}

func (e *Entity) Hide() {
	e.checkLive("hide")
	e.g().SetVisible(e.node, false)
}

// SyncFromPhysics copies the body pose onto the graphics node. The world
// calls it once per tick for each PhysicsLeads entity, after the physics
// step and before rendering. Other authorities ignore it.
func (e *Entity) SyncFromPhysics() {
	e.checkLive("sync from physics")
	if e.authority != PhysicsLeads {
		return
	}
	pose := e.p().Pose(e.body)
	e.g().SetPosition(e.node, pose.Pos)
	e.g().SetOrientation(e.node, pose.Quat)
	for _, c := range e.reg.childrenOf(e.id) {
		c.mirror()
	}
}

// mirror pushes the world pose of e and its GraphicsLeads descendants onto
// their bodies. A parent's move changes every descendant's world pose.
func (e *Entity) mirror() {
	if e.authority == GraphicsLeads {
		w := e.g().WorldPose(e.node)
		e.p().SetPosition(e.body, w.Pos)
		e.p().SetOrientation(e.body, w.Quat)
		e.p().SetScale(e.body, w.Scale)
	}
	for _, c := range e.reg.childrenOf(e.id) {
		c.mirror()
	}
}

// Delete releases the graphics node and the physics body. Both releases are
// attempted even if one fails; the failures are returned together and the
// entity is Deleted either way. Children are detached and keep their world
// pose. Deleting twice panics.
func (e *Entity) Delete() error {
	e.checkLive("delete")
	for _, c := range e.reg.childrenOf(e.id) {
		c.DetachFromParent()
	}
	var err error
	err = multierr.Append(err, e.g().Destroy(e.node))
	if e.body != 0 {
		err = multierr.Append(err, e.p().Destroy(e.body))
	}
	e.deleted = true
	e.reg.unregister(e)
	if err != nil {
		e.reg.log.Warn("entity release incomplete",
			zap.String("entity", e.name),
			zap.Error(err))
		return fmt.Errorf("delete entity %q: %w", e.name, err)
	}
	return nil
}
