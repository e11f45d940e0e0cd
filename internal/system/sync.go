package system

import (
	"time"

	coresys "github.com/orbitforge/client/internal/core/system"
	"github.com/orbitforge/client/internal/entity"
	"github.com/orbitforge/client/internal/world"
)

// SyncSystem copies every PhysicsLeads body pose onto its node, once per
// tick, then refreshes the spatial grid. Phase 3 (Sync).
type SyncSystem struct {
	world *world.World
}

func NewSyncSystem(w *world.World) *SyncSystem {
	return &SyncSystem{world: w}
}

func (s *SyncSystem) Phase() coresys.Phase { return coresys.PhaseSync }

func (s *SyncSystem) Update(_ time.Duration) {
	s.world.Registry().Each(func(e *entity.Entity) {
		if e.Authority() == entity.PhysicsLeads {
			e.SyncFromPhysics()
		}
	})
	s.world.RefreshGrid()
}
