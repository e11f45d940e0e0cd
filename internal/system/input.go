package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/orbitforge/client/internal/core/system"
	"github.com/orbitforge/client/internal/world"
)

// Command is a unit of work queued by a goroutine other than the game loop
// (terminal input, the script watcher). It runs on the game loop.
type Command func(w *world.World)

// InputSystem drains queued commands and then delivers the events emitted
// during the previous tick. Phase 0 (Input).
type InputSystem struct {
	world      *world.World
	commands   <-chan Command
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(w *world.World, commands <-chan Command, maxPerTick int, log *zap.Logger) *InputSystem {
	return &InputSystem{
		world:      w,
		commands:   commands,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	n := 0
drain:
	for s.maxPerTick <= 0 || n < s.maxPerTick {
		select {
		case cmd, ok := <-s.commands:
			if !ok {
				break drain
			}
			cmd(s.world)
			n++
		default:
			break drain
		}
	}
	if n > 0 {
		s.log.Debug("commands processed", zap.Int("count", n), zap.Uint64("tick", s.world.CurrentTick()))
	}

	bus := s.world.Bus()
	bus.SwapBuffers()
	bus.DispatchAll()
}
