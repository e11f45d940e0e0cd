package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/orbitforge/client/internal/core/system"
	"github.com/orbitforge/client/internal/world"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end.
// Phase 6 (Cleanup).
type CleanupSystem struct {
	world *world.World
	log   *zap.Logger
}

func NewCleanupSystem(w *world.World, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: w, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	if err := s.world.FlushDestroyQueue(); err != nil {
		s.log.Warn("deferred destruction incomplete", zap.Error(err))
	}
}
