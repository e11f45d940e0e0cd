package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	coresys "github.com/orbitforge/client/internal/core/system"
	"github.com/orbitforge/client/internal/engine/termview"
	"github.com/orbitforge/client/internal/entity"
	"github.com/orbitforge/client/internal/selection"
	"github.com/orbitforge/client/internal/system"
	"github.com/orbitforge/client/internal/world"
)

// pollInput turns terminal events into commands for the game loop. It runs
// on its own goroutine and never touches the world directly. A resize asks
// the loop for an immediate redraw instead of waiting for the next tick.
func pollInput(ctx context.Context, screen tcell.Screen, commands chan<- system.Command, quit, redraw chan<- struct{}, sel *selection.Set) {
	for {
		ev := screen.PollEvent()
		if ev == nil || ctx.Err() != nil {
			return // screen finalized
		}
		var cmd system.Command
		switch ev := ev.(type) {
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
				(ev.Key() == tcell.KeyRune && ev.Rune() == 'q'):
				select {
				case quit <- struct{}{}:
				default:
				}
				continue
			case ev.Key() == tcell.KeyTab:
				cmd = func(w *world.World) { cycleSelection(w, sel) }
			case ev.Key() == tcell.KeyRune && ev.Rune() == 'c':
				cmd = func(*world.World) { sel.Clear() }
			}
		case *tcell.EventResize:
			screen.Sync()
			select {
			case redraw <- struct{}{}:
			default:
			}
			continue
		}
		if cmd == nil {
			continue
		}
		select {
		case commands <- cmd:
		case <-ctx.Done():
			return
		}
	}
}

// cycleSelection selects the entity created after the current primary
// selection, wrapping around.
func cycleSelection(w *world.World, sel *selection.Set) {
	var all []*entity.Entity
	w.Registry().Each(func(e *entity.Entity) { all = append(all, e) })
	if len(all) == 0 {
		return
	}
	next := 0
	if cur, ok := sel.Selection(); ok {
		for i, e := range all {
			if e.ID() == cur.ID() {
				next = (i + 1) % len(all)
				break
			}
		}
	}
	sel.SetSelection(all[next])
}

// hud keeps the terminal viewport on the primary selection and writes the
// status line. It runs in the render phase, before the frame is drawn.
type hud struct {
	world *world.World
	view  *termview.View
	sel   *selection.Set
}

func newHUD(w *world.World, v *termview.View, sel *selection.Set) *hud {
	return &hud{world: w, view: v, sel: sel}
}

func (h *hud) Phase() coresys.Phase { return coresys.PhaseRender }

func (h *hud) Update(_ time.Duration) {
	status := fmt.Sprintf(" tick %d · %d entities · [tab] select [c] clear [q] quit",
		h.world.CurrentTick(), h.world.Registry().Len())
	if e, ok := h.sel.Selection(); ok {
		p := e.Position()
		h.view.CenterOn(p)
		status = fmt.Sprintf(" %s %s at (%.1f, %.1f, %.1f) · %d selected ·%s",
			e.Name(), e.Authority(), p.X, p.Y, p.Z, h.sel.Len(), status)
	}
	h.view.SetStatus(status)
}
