// Package scripting runs level scripts on an embedded Lua VM. Scripts drive
// entities by name through a small global API and may define on_tick and
// on_collision callbacks.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/orbitforge/client/internal/core/event"
	"github.com/orbitforge/client/internal/selection"
	"github.com/orbitforge/client/internal/world"
)

// APIVersion is exposed to scripts as API_VERSION.
const APIVersion = 1

// Engine wraps a single gopher-lua VM for level logic.
// Single-goroutine access only (game loop). Reload builds a fresh VM and
// swaps it in only when every script loaded.
type Engine struct {
	vm    *lua.LState
	dir   string
	world *world.World
	sel   *selection.Set
	log   *zap.Logger
}

// NewEngine creates a Lua engine bound to w and sel and loads all scripts
// from dir. sel may be nil, which disables the selection functions.
func NewEngine(dir string, w *world.World, sel *selection.Set, log *zap.Logger) (*Engine, error) {
	e := &Engine{dir: dir, world: w, sel: sel, log: log}
	vm, err := e.load()
	if err != nil {
		return nil, err
	}
	e.vm = vm
	return e, nil
}

func (e *Engine) load() (*lua.LState, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))
	e.registerAPI(vm)

	// shared helpers first, then level scripts
	for _, dir := range []string{filepath.Join(e.dir, "lib"), e.dir} {
		if err := e.loadDir(vm, dir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return vm, nil
}

// loadDir loads all .lua files in a directory, in name order.
func (e *Engine) loadDir(vm *lua.LState, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Reload rebuilds the VM from the script directory. On failure the
// previous VM stays active and the error is returned.
func (e *Engine) Reload() error {
	vm, err := e.load()
	if err != nil {
		return err
	}
	e.vm.Close()
	e.vm = vm
	e.log.Info("lua scripts reloaded", zap.String("dir", e.dir))
	return nil
}

// DoString runs a chunk of Lua in the current VM.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// OnTick calls the Lua on_tick(n) callback if the scripts define one.
func (e *Engine) OnTick(n uint64) {
	e.call("on_tick", lua.LNumber(n))
}

// OnCollision calls the Lua on_collision(a, b) callback if defined.
func (e *Engine) OnCollision(c event.Collision) {
	e.call("on_collision", lua.LString(c.A), lua.LString(c.B))
}

func (e *Engine) call(name string, args ...lua.LValue) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("lua callback error", zap.String("fn", name), zap.Error(err))
	}
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}
