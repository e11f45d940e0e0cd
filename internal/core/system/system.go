package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput   Phase = iota // 0: terminal input, script reloads, last tick's events
	PhaseLogic                // 1: game logic and scripts issue entity mutations
	PhasePhysics              // 2: physics step
	PhaseSync                 // 3: copy dynamic bodies onto their nodes, refresh spatial grid
	PhaseRender               // 4: draw the frame
	PhasePersist              // 5: layout autosave
	PhaseCleanup              // 6: destroy queued entities
)

var phaseNames = [...]string{"input", "logic", "physics", "sync", "render", "persist", "cleanup"}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// System is the interface every per-tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}

// Func adapts a plain function to a System.
type Func struct {
	At Phase
	Fn func(dt time.Duration)
}

func (f Func) Phase() Phase            { return f.At }
func (f Func) Update(dt time.Duration) { f.Fn(dt) }
