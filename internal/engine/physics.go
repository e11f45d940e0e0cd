package engine

import (
	"time"

	"cogentcore.org/core/math32"
)

// Physics is the simulation collaborator. Bodies have no hierarchy; every
// pose is in world space. Implementations are driven from the game loop
// goroutine only.
type Physics interface {
	// CreateBody creates a body of the given kind. mass is only read for
	// BodyDynamic.
	CreateBody(name string, kind BodyKind, shape Shape, mass float32) (PhysicsHandle, error)
	Destroy(h PhysicsHandle) error

	SetPosition(h PhysicsHandle, pos math32.Vector3)
	SetOrientation(h PhysicsHandle, q math32.Quat)
	SetScale(h PhysicsHandle, scale math32.Vector3)
	Pose(h PhysicsHandle) Pose

	ApplyImpulse(h PhysicsHandle, impulse math32.Vector3)
	ApplyTorqueImpulse(h PhysicsHandle, torque math32.Vector3)
	Sleep(h PhysicsHandle, asleep bool)

	Step(dt time.Duration)
	// Contacts returns the overlaps found by the last Step.
	Contacts() []Contact
}
