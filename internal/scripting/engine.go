package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jakecoffman/cp"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ScriptDirs are loaded in this order from the scripts root.
var ScriptDirs = []string{"core", "levels"}

// Host is the game side of the script API. Scripts run on the frame loop, so
// implementations need no locking.
type Host interface {
	// TransitionTo fades to the level label and places the hero at the named
	// point ("" = hero start). It reports whether the transition started.
	TransitionTo(label, point, message string) bool
	// PlaySound plays one of names, chosen at random when there are several.
	PlaySound(names ...string) error
	NamedPoint(name string) (cp.Vector, bool)
	HeroPosition() (cp.Vector, bool)
	SetDoor(x, y int, open bool) bool
	Player() int
}

// HookContext is passed to level hooks as a table.
type HookContext struct {
	Label  string
	Player int
	Frame  int
}

// Engine wraps a single gopher-lua VM for level logic.
// Single-goroutine access only (frame loop). Reload swaps in a fresh VM.
type Engine struct {
	vm   *lua.LState
	root string
	host Host
	log  *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts below root.
func NewEngine(root string, host Host, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{root: root, host: host, log: log}
	vm, err := e.newVM()
	if err != nil {
		return nil, err
	}
	e.vm = vm
	return e, nil
}

// SetHost binds the game. Only affects calls made afterwards.
func (e *Engine) SetHost(h Host) { e.host = h }

func (e *Engine) Root() string { return e.root }

func (e *Engine) newVM() (*lua.LState, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("levels", vm.NewTable())
	e.registerAPI(vm)

	for _, sub := range ScriptDirs {
		p := filepath.Join(e.root, sub)
		if err := e.loadDir(vm, p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return vm, nil
}

// Reload rebuilds the VM from disk. On failure the running VM is kept.
func (e *Engine) Reload() error {
	vm, err := e.newVM()
	if err != nil {
		return err
	}
	old := e.vm
	e.vm = vm
	old.Close()
	e.log.Info("lua scripts reloaded", zap.String("root", e.root))
	return nil
}

// loadDir loads all .lua files in a directory.
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

// DoString runs a chunk in the current VM.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// HasLevel reports whether scripts registered a table for label.
func (e *Engine) HasLevel(label string) bool {
	_, ok := e.levelTable(label)
	return ok
}

func (e *Engine) levelTable(label string) (*lua.LTable, bool) {
	if e.vm == nil {
		return nil, false
	}
	levels, ok := e.vm.GetGlobal("levels").(*lua.LTable)
	if !ok {
		return nil, false
	}
	t, ok := levels.RawGetString(label).(*lua.LTable)
	return t, ok
}

// CallLevelHook calls levels[label][hook](ctx). found is false when the level
// or hook is not scripted. ret is the truthiness of the first return value.
func (e *Engine) CallLevelHook(label, hook string, ctx HookContext) (ret, found bool, err error) {
	t, ok := e.levelTable(label)
	if !ok {
		return false, false, nil
	}
	fn, ok := t.RawGetString(hook).(*lua.LFunction)
	if !ok {
		return false, false, nil
	}

	arg := e.vm.NewTable()
	arg.RawSetString("label", lua.LString(ctx.Label))
	arg.RawSetString("player", lua.LNumber(ctx.Player))
	arg.RawSetString("frame", lua.LNumber(ctx.Frame))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, arg); err != nil {
		return false, true, fmt.Errorf("lua %s.%s: %w", label, hook, err)
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return lua.LVAsBool(result), true, nil
}

// Close shuts down the Lua VM. Later calls are no-ops.
func (e *Engine) Close() {
	if e.vm == nil {
		return
	}
	e.vm.Close()
	e.vm = nil
}
