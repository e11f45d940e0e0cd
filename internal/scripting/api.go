package scripting

import (
	"cogentcore.org/core/math32"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/orbitforge/client/internal/entity"
)

// registerAPI installs the entity functions as Lua globals:
//
//	spawn(proto, name, x, y, z [, dx, dy, dz]) -> name | nil, err
//	move(name, x, y, z)          translate(name, dx, dy, dz)
//	rotate(name, ax, ay, az, rad) impulse(name, x, y, z)
//	scale(name, sx, sy, sz)      delete(name)
//	set_selection(name, ...)     add_selection(name)
//	selection() -> {names}       position(name) -> x, y, z
//
// Entity writes follow the entity's authority, so move on a dynamic entity
// does nothing and translate becomes an impulse.
func (e *Engine) registerAPI(vm *lua.LState) {
	for name, fn := range map[string]lua.LGFunction{
		"spawn":         e.luaSpawn,
		"move":          e.luaMove,
		"translate":     e.luaTranslate,
		"rotate":        e.luaRotate,
		"impulse":       e.luaImpulse,
		"scale":         e.luaScale,
		"delete":        e.luaDelete,
		"set_selection": e.luaSetSelection,
		"add_selection": e.luaAddSelection,
		"selection":     e.luaSelection,
		"position":      e.luaPosition,
	} {
		vm.SetGlobal(name, vm.NewFunction(fn))
	}
}

func checkVec(L *lua.LState, at int) math32.Vector3 {
	return math32.Vec3(
		float32(L.CheckNumber(at)),
		float32(L.CheckNumber(at+1)),
		float32(L.CheckNumber(at+2)),
	)
}

func optVec(L *lua.LState, at int) math32.Vector3 {
	return math32.Vec3(
		float32(L.OptNumber(at, 0)),
		float32(L.OptNumber(at+1, 0)),
		float32(L.OptNumber(at+2, 0)),
	)
}

// checkEntity resolves argument at as a live entity name, raising a Lua
// error otherwise.
func (e *Engine) checkEntity(L *lua.LState, at int) *entity.Entity {
	name := L.CheckString(at)
	ent, ok := e.world.Entity(name)
	if !ok {
		L.RaiseError("unknown entity %q", name)
		return nil
	}
	return ent
}

func (e *Engine) luaSpawn(L *lua.LState) int {
	proto := L.CheckString(1)
	name := L.CheckString(2)
	ent, err := e.world.Spawn(proto, name, checkVec(L, 3), optVec(L, 6))
	if err != nil {
		e.log.Debug("lua spawn failed", zap.String("name", name), zap.Error(err))
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LString(ent.Name()))
	return 1
}

func (e *Engine) luaMove(L *lua.LState) int {
	e.checkEntity(L, 1).SetPosition(checkVec(L, 2))
	return 0
}

func (e *Engine) luaTranslate(L *lua.LState) int {
	e.checkEntity(L, 1).Translate(checkVec(L, 2))
	return 0
}

func (e *Engine) luaRotate(L *lua.LState) int {
	ent := e.checkEntity(L, 1)
	ent.Rotate(checkVec(L, 2), float32(L.CheckNumber(5)))
	return 0
}

func (e *Engine) luaImpulse(L *lua.LState) int {
	e.checkEntity(L, 1).ApplyImpulse(checkVec(L, 2))
	return 0
}

func (e *Engine) luaScale(L *lua.LState) int {
	e.checkEntity(L, 1).SetScale(checkVec(L, 2))
	return 0
}

// luaDelete queues the entity; it is destroyed at the end of the tick so
// callbacks never observe a half-deleted world.
func (e *Engine) luaDelete(L *lua.LState) int {
	e.world.MarkForDestruction(e.checkEntity(L, 1))
	return 0
}

func (e *Engine) luaSetSelection(L *lua.LState) int {
	if e.sel == nil {
		L.RaiseError("selection not available")
		return 0
	}
	list := make([]*entity.Entity, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		list = append(list, e.checkEntity(L, i))
	}
	e.sel.SetSelectionList(list)
	return 0
}

func (e *Engine) luaAddSelection(L *lua.LState) int {
	if e.sel == nil {
		L.RaiseError("selection not available")
		return 0
	}
	e.sel.AddToSelection(e.checkEntity(L, 1))
	return 0
}

func (e *Engine) luaSelection(L *lua.LState) int {
	t := L.NewTable()
	if e.sel != nil {
		for _, m := range e.sel.Members() {
			t.Append(lua.LString(m.Name()))
		}
	}
	L.Push(t)
	return 1
}

func (e *Engine) luaPosition(L *lua.LState) int {
	p := e.checkEntity(L, 1).Position()
	L.Push(lua.LNumber(p.X))
	L.Push(lua.LNumber(p.Y))
	L.Push(lua.LNumber(p.Z))
	return 3
}
