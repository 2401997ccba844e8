package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

func (e *Engine) registerAPI(vm *lua.LState) {
	vm.SetGlobal("transition_to", vm.NewFunction(e.luaTransitionTo))
	vm.SetGlobal("play_sound", vm.NewFunction(e.luaPlaySound))
	vm.SetGlobal("named_point", vm.NewFunction(e.luaNamedPoint))
	vm.SetGlobal("hero_position", vm.NewFunction(e.luaHeroPosition))
	vm.SetGlobal("set_door", vm.NewFunction(e.luaSetDoor))
	vm.SetGlobal("player", vm.NewFunction(e.luaPlayer))
	vm.SetGlobal("log", vm.NewFunction(e.luaLog))
}

// transition_to(label [, point [, message]]) -> bool
func (e *Engine) luaTransitionTo(L *lua.LState) int {
	label := L.CheckString(1)
	point := L.OptString(2, "")
	msg := L.OptString(3, "")
	ok := e.host != nil && e.host.TransitionTo(label, point, msg)
	L.Push(lua.LBool(ok))
	return 1
}

// play_sound(name, ...); raises on unknown names.
func (e *Engine) luaPlaySound(L *lua.LState) int {
	names := []string{L.CheckString(1)}
	for i := 2; i <= L.GetTop(); i++ {
		names = append(names, L.CheckString(i))
	}
	if e.host == nil {
		return 0
	}
	if err := e.host.PlaySound(names...); err != nil {
		L.RaiseError("play_sound: %s", err.Error())
	}
	return 0
}

// named_point(name) -> x, y | nil
func (e *Engine) luaNamedPoint(L *lua.LState) int {
	name := L.CheckString(1)
	if e.host == nil {
		L.Push(lua.LNil)
		return 1
	}
	p, ok := e.host.NamedPoint(name)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(p.X))
	L.Push(lua.LNumber(p.Y))
	return 2
}

// hero_position() -> x, y | nil
func (e *Engine) luaHeroPosition(L *lua.LState) int {
	if e.host == nil {
		L.Push(lua.LNil)
		return 1
	}
	p, ok := e.host.HeroPosition()
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(p.X))
	L.Push(lua.LNumber(p.Y))
	return 2
}

// set_door(x, y, open) -> bool
func (e *Engine) luaSetDoor(L *lua.LState) int {
	x := L.CheckInt(1)
	y := L.CheckInt(2)
	open := L.ToBool(3)
	ok := e.host != nil && e.host.SetDoor(x, y, open)
	L.Push(lua.LBool(ok))
	return 1
}

// player() -> number
func (e *Engine) luaPlayer(L *lua.LState) int {
	n := 0
	if e.host != nil {
		n = e.host.Player()
	}
	L.Push(lua.LNumber(n))
	return 1
}

// log(msg)
func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}
