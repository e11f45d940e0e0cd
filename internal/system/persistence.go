package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/orbitforge/client/internal/core/system"
	"github.com/orbitforge/client/internal/data"
	"github.com/orbitforge/client/internal/world"
)

// LayoutSaver stores a level layout. persist.LayoutRepo implements it.
type LayoutSaver interface {
	SaveLayout(ctx context.Context, layout *data.SpawnList) error
}

// PersistenceSystem periodically saves the world layout. Phase 5 (Persist).
type PersistenceSystem struct {
	world     *world.World
	saver     LayoutSaver
	level     string
	log       *zap.Logger
	tickCount int
	interval  int // auto-save every N ticks, 0 = never
}

func NewPersistenceSystem(w *world.World, saver LayoutSaver, level string, intervalTicks int, log *zap.Logger) *PersistenceSystem {
	return &PersistenceSystem{
		world:    w,
		saver:    saver,
		level:    level,
		log:      log,
		interval: intervalTicks,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Save(ctx); err != nil {
		s.log.Error("layout autosave failed", zap.String("level", s.level), zap.Error(err))
	}
}

// Save persists the current layout immediately. Called for graceful
// shutdown as well.
func (s *PersistenceSystem) Save(ctx context.Context) error {
	layout := s.world.Layout(s.level)
	if err := s.saver.SaveLayout(ctx, layout); err != nil {
		return err
	}
	s.log.Debug("layout saved", zap.String("level", s.level), zap.Int("entries", len(layout.Entries)))
	return nil
}
