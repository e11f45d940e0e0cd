package scripting

import (
	"time"

	"go.uber.org/zap"

	"github.com/orbitforge/client/internal/core/event"
	coresys "github.com/orbitforge/client/internal/core/system"
	"github.com/orbitforge/client/internal/world"
)

// ScriptSystem reloads scripts when the watcher signals and calls on_tick.
// Phase 1 (Logic). Collision events are forwarded to on_collision as the
// bus delivers them.
type ScriptSystem struct {
	engine *Engine
	world  *world.World
	reload <-chan struct{}
	log    *zap.Logger
}

// NewScriptSystem wires eng to the world's events. reload may be nil when
// hot reload is off.
func NewScriptSystem(eng *Engine, w *world.World, reload <-chan struct{}, log *zap.Logger) *ScriptSystem {
	event.Subscribe(w.Bus(), eng.OnCollision)
	return &ScriptSystem{engine: eng, world: w, reload: reload, log: log}
}

func (s *ScriptSystem) Phase() coresys.Phase { return coresys.PhaseLogic }

func (s *ScriptSystem) Update(_ time.Duration) {
	select {
	case <-s.reload:
		if err := s.engine.Reload(); err != nil {
			s.log.Error("lua reload failed, keeping previous scripts", zap.Error(err))
		}
	default:
	}
	s.engine.OnTick(s.world.CurrentTick())
}
