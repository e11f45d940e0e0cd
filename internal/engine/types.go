// Package engine defines the contracts of the two external collaborators the
// entity layer drives: the Graphics engine (scene nodes, cameras, lights) and
// the Physics engine (rigid bodies, ghosts, contacts).
package engine

import (
	"errors"
	"fmt"

	"cogentcore.org/core/math32"
)

// ErrUnknownHandle is returned when an engine is given a handle it did not
// issue or has already destroyed.
var ErrUnknownHandle = errors.New("unknown handle")

// GraphicsHandle identifies a node owned by a Graphics engine. Zero is the
// scene root and is never returned by a create call.
type GraphicsHandle uint64

// PhysicsHandle identifies a body owned by a Physics engine. Zero is invalid.
type PhysicsHandle uint64

// ShapeKind is the primitive a Shape describes.
type ShapeKind int

const (
	ShapeBox ShapeKind = iota
	ShapeSphere
	ShapeCapsule
	ShapeCylinder
	ShapePlane
	ShapeMesh
)

var shapeNames = [...]string{"box", "sphere", "capsule", "cylinder", "plane", "mesh"}

func (k ShapeKind) String() string {
	if int(k) < len(shapeNames) {
		return shapeNames[k]
	}
	return fmt.Sprintf("ShapeKind(%d)", int(k))
}

// ParseShapeKind maps a lower-case name to a ShapeKind.
func ParseShapeKind(s string) (ShapeKind, error) {
	for i, n := range shapeNames {
		if n == s {
			return ShapeKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown shape kind %q", s)
}

// Shape is a declarative geometry description shared by both engines.
// Size is the full extent for boxes and planes, and (radius, height, radius)
// for round shapes. Mesh names an external asset for ShapeMesh.
type Shape struct {
	Kind ShapeKind
	Size math32.Vector3
	Mesh string
}

// IsZero reports whether the shape was never set.
func (s Shape) IsZero() bool {
	return s == Shape{}
}

// Radius is the bounding-sphere radius of the shape.
func (s Shape) Radius() float32 {
	switch s.Kind {
	case ShapeSphere:
		return s.Size.X
	case ShapeCapsule, ShapeCylinder:
		return math32.Max(s.Size.X, s.Size.Y*0.5)
	default:
		return s.Size.Length() * 0.5
	}
}

// Material is the surface description of a visual node.
type Material struct {
	Name  string
	Color string
}

// IsZero reports whether the material was never set.
func (m Material) IsZero() bool {
	return m == Material{}
}

// NodeKind tells the Graphics engine whether a node is expected to move.
type NodeKind int

const (
	NodeStatic NodeKind = iota
	NodeMovable
)

func (k NodeKind) String() string {
	if k == NodeStatic {
		return "static"
	}
	return "movable"
}

// BodyKind is the simulation role of a physics body.
type BodyKind int

const (
	BodyStatic BodyKind = iota
	BodyKinematic
	BodyDynamic
	BodyGhost
)

var bodyNames = [...]string{"static", "kinematic", "dynamic", "ghost"}

func (k BodyKind) String() string {
	if int(k) < len(bodyNames) {
		return bodyNames[k]
	}
	return fmt.Sprintf("BodyKind(%d)", int(k))
}

// LightKind selects the light model of CreateLight.
type LightKind int

const (
	LightAmbient LightKind = iota
	LightDirectional
	LightPoint
	LightSpot
)

// Light describes a light source.
type Light struct {
	Kind  LightKind
	Color string
	// Range is ignored by ambient and directional lights.
	Range float32
}

// Pose is a transform: position, rotation and scale.
type Pose struct {
	Pos   math32.Vector3
	Quat  math32.Quat
	Scale math32.Vector3
}

// IdentityPose returns a pose at the origin with no rotation and unit scale.
func IdentityPose() Pose {
	p := Pose{Scale: math32.Vec3(1, 1, 1)}
	p.Quat.SetIdentity()
	return p
}

// Forward is the local axis a node points along; SetDirection rotates it
// onto the requested direction.
var Forward = math32.Vec3(0, 0, -1)

// Direction returns the pose's forward axis in its parent space.
func (p Pose) Direction() math32.Vector3 {
	return Forward.MulQuat(p.Quat)
}

// Compose returns the pose obtained by applying rel inside parent.
func (p Pose) Compose(rel Pose) Pose {
	return Pose{
		Pos:   rel.Pos.Mul(p.Scale).MulQuat(p.Quat).Add(p.Pos),
		Quat:  p.Quat.Mul(rel.Quat),
		Scale: rel.Scale.Mul(p.Scale),
	}
}

// QuatFromDirection returns the rotation taking Forward onto dir. A zero
// dir yields the identity rotation.
func QuatFromDirection(dir math32.Vector3) math32.Quat {
	var q math32.Quat
	if dir.Length() == 0 {
		q.SetIdentity()
		return q
	}
	q.SetFromUnitVectors(Forward, dir.Normal())
	return q
}

// Contact is an overlap the Physics engine detected during its last step.
type Contact struct {
	A, B  PhysicsHandle
	Point math32.Vector3
}
