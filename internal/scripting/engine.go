package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for NPC behavior hooks.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory. Scripts register global hook functions; missing hooks are not
// an error.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	for _, sub := range []string{"core", "npc", "item", "world"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
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
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// TalkContext is the data handed to the npc_on_talk hook.
type TalkContext struct {
	NpcTemplateID string
	NpcName       string
	Username      string
	UserLevel     int
	UserClass     string
}

// OnNpcTalk runs the npc_on_talk hook. Returns the NPC's reply and whether
// a script handled the talk at all.
func (e *Engine) OnNpcTalk(ctx TalkContext) (string, bool) {
	fn := e.vm.GetGlobal("npc_on_talk")
	if fn == lua.LNil {
		return "", false
	}

	t := e.vm.NewTable()
	t.RawSetString("npc_id", lua.LString(ctx.NpcTemplateID))
	t.RawSetString("npc_name", lua.LString(ctx.NpcName))
	t.RawSetString("player", lua.LString(ctx.Username))
	t.RawSetString("level", lua.LNumber(ctx.UserLevel))
	t.RawSetString("class", lua.LString(ctx.UserClass))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua npc_on_talk error", zap.Error(err))
		return "", false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	if result == lua.LNil {
		return "", false
	}
	return lua.LVAsString(result), true
}

// DeathContext is the data handed to the npc_on_death hook.
type DeathContext struct {
	NpcTemplateID string
	NpcName       string
	RoomID        string
	KillerName    string
	KillerLevel   int
}

// OnNpcDeath runs the npc_on_death hook. Returns extra loot item template
// IDs the script wants dropped on top of the static loot table.
func (e *Engine) OnNpcDeath(ctx DeathContext) []string {
	fn := e.vm.GetGlobal("npc_on_death")
	if fn == lua.LNil {
		return nil
	}

	t := e.vm.NewTable()
	t.RawSetString("npc_id", lua.LString(ctx.NpcTemplateID))
	t.RawSetString("npc_name", lua.LString(ctx.NpcName))
	t.RawSetString("room", lua.LString(ctx.RoomID))
	t.RawSetString("killer", lua.LString(ctx.KillerName))
	t.RawSetString("killer_level", lua.LNumber(ctx.KillerLevel))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua npc_on_death error", zap.Error(err))
		return nil
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return nil
	}
	var loot []string
	rt.ForEach(func(_, v lua.LValue) {
		if s := lua.LVAsString(v); s != "" {
			loot = append(loot, s)
		}
	})
	return loot
}

// OnItemUse runs the item_on_use hook for scripted consumables. Returns the
// message shown to the user and whether a script consumed the use.
func (e *Engine) OnItemUse(itemTemplateID, username string) (string, bool) {
	fn := e.vm.GetGlobal("item_on_use")
	if fn == lua.LNil {
		return "", false
	}

	t := e.vm.NewTable()
	t.RawSetString("item_id", lua.LString(itemTemplateID))
	t.RawSetString("player", lua.LString(username))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua item_on_use error", zap.Error(err))
		return "", false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	if result == lua.LNil {
		return "", false
	}
	return lua.LVAsString(result), true
}
