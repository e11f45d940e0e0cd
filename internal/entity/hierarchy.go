package entity

import (
	"fmt"

	"go.uber.org/zap"
)

// AttachTo makes e a child of parent. e keeps its local transform, so its
// world pose becomes relative to parent. A PhysicsLeads entity cannot have
// a parent: the call is silently ignored and returns nil.
func (e *Entity) AttachTo(parent *Entity) error {
	e.checkLive("attach")
	parent.checkLive("attach as parent")
	if e.authority == PhysicsLeads {
		e.ignored("attach to parent")
		return nil
	}
	if cur, ok := e.reg.parentOf(e.id); ok && cur == parent {
		return nil
	}
	if e.reg.isAncestor(e.id, parent.id) {
		return fmt.Errorf("attach %q to %q: %w", e.name, parent.name, ErrHierarchyCycle)
	}
	if err := e.g().Attach(parent.node, e.node); err != nil {
		return fmt.Errorf("attach %q to %q: %w", e.name, parent.name, err)
	}
	e.reg.link(parent.id, e.id)
	e.mirror()
	return nil
}

// AttachToOptional attaches e to parent, or detaches it when parent is nil.
func (e *Entity) AttachToOptional(parent *Entity) error {
	if parent == nil {
		e.DetachFromParent()
		return nil
	}
	return e.AttachTo(parent)
}

// AddChild attaches child under e. It follows the same rules as
// child.AttachTo(e).
func (e *Entity) AddChild(child *Entity) error {
	e.checkLive("add child")
	return child.AttachTo(e)
}

// RemoveChild detaches child if it is currently a child of e.
func (e *Entity) RemoveChild(child *Entity) {
	e.checkLive("remove child")
	child.checkLive("remove as child")
	if p, ok := e.reg.parentOf(child.id); ok && p == e {
		child.DetachFromParent()
	}
}

// DetachFromParent moves e back to the scene root, keeping its world pose.
func (e *Entity) DetachFromParent() {
	e.checkLive("detach")
	if _, ok := e.reg.parentOf(e.id); !ok {
		return
	}
	world := e.g().WorldPose(e.node)
	if err := e.g().Attach(0, e.node); err != nil {
		e.reg.log.Warn("detach failed", zap.String("entity", e.name), zap.Error(err))
		return
	}
	e.reg.unlink(e.id)
	e.g().SetPosition(e.node, world.Pos)
	e.g().SetOrientation(e.node, world.Quat)
	e.g().SetScale(e.node, world.Scale)
	e.mirror()
}

// Parent returns the entity e is attached to.
func (e *Entity) Parent() (*Entity, bool) {
	e.checkLive("parent")
	return e.reg.parentOf(e.id)
}

// Children returns e's direct children in attach order.
func (e *Entity) Children() []*Entity {
	e.checkLive("children")
	return e.reg.childrenOf(e.id)
}
