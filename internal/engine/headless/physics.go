package headless

import (
	"fmt"
	"math"
	"time"

	"cogentcore.org/core/math32"

	"github.com/orbitforge/client/internal/engine"
)

// angMotionMax caps the rotation a body may take in one step.
const angMotionMax = math.Pi / 4

// BodyInfo is the inspectable state of one physics body.
type BodyInfo struct {
	Name   string
	Kind   engine.BodyKind
	Shape  engine.Shape
	Mass   float32
	Pose   engine.Pose
	LinVel math32.Vector3
	AngVel math32.Vector3
	Asleep bool
}

// Physics integrates dynamic bodies under gravity and their accumulated
// impulses. There is no collision response: overlaps involving a ghost body
// are only reported through Contacts. Accessed only from the game loop
// goroutine, no locks.
type Physics struct {
	bodies   map[engine.PhysicsHandle]*BodyInfo
	next     engine.PhysicsHandle
	gravity  math32.Vector3
	contacts []engine.Contact
	steps    int

	// CreateErr and DestroyErr, when set, make the next create or destroy
	// call fail with that error. Each is cleared after it fires.
	CreateErr  error
	DestroyErr error
}

var _ engine.Physics = (*Physics)(nil)

func NewPhysics(gravity math32.Vector3) *Physics {
	return &Physics{
		bodies:  make(map[engine.PhysicsHandle]*BodyInfo, 64),
		gravity: gravity,
	}
}

func (p *Physics) CreateBody(name string, kind engine.BodyKind, shape engine.Shape, mass float32) (engine.PhysicsHandle, error) {
	if err := p.CreateErr; err != nil {
		p.CreateErr = nil
		return 0, fmt.Errorf("create %s body %q: %w", kind, name, err)
	}
	if kind == engine.BodyDynamic && mass <= 0 {
		return 0, fmt.Errorf("create dynamic body %q: mass %g must be positive", name, mass)
	}
	p.next++
	p.bodies[p.next] = &BodyInfo{
		Name:  name,
		Kind:  kind,
		Shape: shape,
		Mass:  mass,
		Pose:  engine.IdentityPose(),
	}
	return p.next, nil
}

func (p *Physics) Destroy(h engine.PhysicsHandle) error {
	b, ok := p.bodies[h]
	if !ok {
		return fmt.Errorf("destroy body %d: %w", h, engine.ErrUnknownHandle)
	}
	if err := p.DestroyErr; err != nil {
		p.DestroyErr = nil
		return fmt.Errorf("destroy body %q: %w", b.Name, err)
	}
	delete(p.bodies, h)
	return nil
}

func (p *Physics) body(h engine.PhysicsHandle) *BodyInfo {
	b, ok := p.bodies[h]
	if !ok {
		panic(fmt.Sprintf("headless physics: %v: %d", engine.ErrUnknownHandle, h))
	}
	return b
}

func (p *Physics) SetPosition(h engine.PhysicsHandle, pos math32.Vector3) {
	p.body(h).Pose.Pos = pos
}

func (p *Physics) SetOrientation(h engine.PhysicsHandle, q math32.Quat) {
	q.Normalize()
	p.body(h).Pose.Quat = q
}

func (p *Physics) SetScale(h engine.PhysicsHandle, scale math32.Vector3) {
	p.body(h).Pose.Scale = scale
}

func (p *Physics) Pose(h engine.PhysicsHandle) engine.Pose {
	return p.body(h).Pose
}

// ApplyImpulse changes a dynamic body's linear velocity by impulse/mass and
// wakes it. Other kinds ignore impulses.
func (p *Physics) ApplyImpulse(h engine.PhysicsHandle, impulse math32.Vector3) {
	b := p.body(h)
	if b.Kind != engine.BodyDynamic {
		return
	}
	b.LinVel = b.LinVel.Add(impulse.DivScalar(b.Mass))
	b.Asleep = false
}

// ApplyTorqueImpulse changes a dynamic body's angular velocity by
// torque/mass and wakes it.
func (p *Physics) ApplyTorqueImpulse(h engine.PhysicsHandle, torque math32.Vector3) {
	b := p.body(h)
	if b.Kind != engine.BodyDynamic {
		return
	}
	b.AngVel = b.AngVel.Add(torque.DivScalar(b.Mass))
	b.Asleep = false
}

func (p *Physics) Sleep(h engine.PhysicsHandle, asleep bool) {
	b := p.body(h)
	b.Asleep = asleep
	if asleep {
		b.LinVel = math32.Vector3{}
		b.AngVel = math32.Vector3{}
	}
}

// Step advances every awake dynamic body by dt and recomputes ghost contacts.
func (p *Physics) Step(dt time.Duration) {
	step := float32(dt.Seconds())
	p.steps++
	for _, h := range p.handles() {
		b := p.bodies[h]
		if b.Kind != engine.BodyDynamic || b.Asleep {
			continue
		}
		b.LinVel = b.LinVel.Add(p.gravity.MulScalar(step))
		b.Pose.Pos = b.Pose.Pos.Add(b.LinVel.MulScalar(step))
		stepAngular(b, step)
	}
	p.findContacts()
}

// stepAngular integrates the rotation from angular velocity.
func stepAngular(b *BodyInfo, step float32) {
	ang := math32.Sqrt(b.AngVel.Dot(b.AngVel))
	if ang < 1e-6 {
		return
	}
	if ang*step > angMotionMax {
		ang = angMotionMax / step
	}
	dq := math32.NewQuatAxisAngle(b.AngVel.Normal(), ang*step)
	b.Pose.Quat = dq.Mul(b.Pose.Quat)
	b.Pose.Quat.Normalize()
}

func (p *Physics) findContacts() {
	p.contacts = p.contacts[:0]
	hs := p.handles()
	for i, ha := range hs {
		a := p.bodies[ha]
		for _, hb := range hs[i+1:] {
			b := p.bodies[hb]
			if a.Kind != engine.BodyGhost && b.Kind != engine.BodyGhost {
				continue
			}
			ra := a.Shape.Radius() * maxComponent(a.Pose.Scale)
			rb := b.Shape.Radius() * maxComponent(b.Pose.Scale)
			d := b.Pose.Pos.Sub(a.Pose.Pos)
			if d.Length() <= ra+rb {
				p.contacts = append(p.contacts, engine.Contact{
					A:     ha,
					B:     hb,
					Point: a.Pose.Pos.Add(d.MulScalar(0.5)),
				})
			}
		}
	}
}

func maxComponent(v math32.Vector3) float32 {
	return math32.Max(v.X, math32.Max(v.Y, v.Z))
}

func (p *Physics) handles() []engine.PhysicsHandle {
	hs := make([]engine.PhysicsHandle, 0, len(p.bodies))
	for h := engine.PhysicsHandle(1); h <= p.next; h++ {
		if _, ok := p.bodies[h]; ok {
			hs = append(hs, h)
		}
	}
	return hs
}

func (p *Physics) Contacts() []engine.Contact {
	out := make([]engine.Contact, len(p.contacts))
	copy(out, p.contacts)
	return out
}

// Body returns a copy of a body's state.
func (p *Physics) Body(h engine.PhysicsHandle) (BodyInfo, bool) {
	b, ok := p.bodies[h]
	if !ok {
		return BodyInfo{}, false
	}
	return *b, true
}

// Len returns the number of live bodies.
func (p *Physics) Len() int { return len(p.bodies) }

// Steps returns how many times Step was called.
func (p *Physics) Steps() int { return p.steps }
