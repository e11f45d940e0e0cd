package system

import (
	"time"

	"github.com/orbitforge/client/internal/core/event"
	coresys "github.com/orbitforge/client/internal/core/system"
	"github.com/orbitforge/client/internal/world"
)

// PhysicsSystem advances the simulation one fixed step and emits a
// Collision event per contact, delivered next tick. Phase 2 (Physics).
type PhysicsSystem struct {
	world *world.World
}

func NewPhysicsSystem(w *world.World) *PhysicsSystem {
	return &PhysicsSystem{world: w}
}

func (s *PhysicsSystem) Phase() coresys.Phase { return coresys.PhasePhysics }

func (s *PhysicsSystem) Update(dt time.Duration) {
	p := s.world.Physics()
	p.Step(dt)
	tick := s.world.CurrentTick()
	for _, c := range p.Contacts() {
		event.Emit(s.world.Bus(), event.Collision{
			Tick:  tick,
			A:     s.world.BodyName(c.A),
			B:     s.world.BodyName(c.B),
			Point: c.Point,
		})
	}
}
