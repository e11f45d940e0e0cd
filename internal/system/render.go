package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/orbitforge/client/internal/core/system"
	"github.com/orbitforge/client/internal/world"
)

// RenderSystem draws one frame. Phase 4 (Render).
type RenderSystem struct {
	world *world.World
	log   *zap.Logger
	fails int
}

func NewRenderSystem(w *world.World, log *zap.Logger) *RenderSystem {
	return &RenderSystem{world: w, log: log}
}

func (s *RenderSystem) Phase() coresys.Phase { return coresys.PhaseRender }

func (s *RenderSystem) Update(_ time.Duration) {
	if err := s.world.Graphics().Render(); err != nil {
		s.fails++
		// first failure and then every 100th, so a broken screen cannot flood the log
		if s.fails%100 == 1 {
			s.log.Warn("render failed", zap.Error(err), zap.Int("failures", s.fails))
		}
	}
}
