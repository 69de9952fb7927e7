package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding the level placement-rule
// scripts. Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory tree (scripts/levels/*.lua). A missing directory is not an
// error: levels without scripts use identity rules.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	if err := e.loadDir(filepath.Join(scriptsDir, "levels")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load level scripts: %w", err)
	}
	return e, nil
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
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

// KindDensity is one placement kind's base density handed to the script.
type KindDensity struct {
	Kind    string
	Density float64
}

// SegmentContext is the data a rule script sees for one segment about to be
// populated.
type SegmentContext struct {
	X, Z  int32
	Ring  int // Chebyshev distance from the origin segment
	Biome string
	Kinds []KindDensity
}

// SegmentRules calls the Lua segment_rules function and returns per-kind
// density multipliers. A missing function, a script error or a malformed
// return all yield nil, meaning identity rules. Script trouble never stops
// generation.
func (e *Engine) SegmentRules(ctx SegmentContext) map[string]float64 {
	fn := e.vm.GetGlobal("segment_rules")
	if fn == lua.LNil {
		return nil
	}

	t := e.vm.NewTable()
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("z", lua.LNumber(ctx.Z))
	t.RawSetString("ring", lua.LNumber(ctx.Ring))
	t.RawSetString("biome", lua.LString(ctx.Biome))

	kinds := e.vm.NewTable()
	for _, k := range ctx.Kinds {
		kinds.RawSetString(k.Kind, lua.LNumber(k.Density))
	}
	t.RawSetString("kinds", kinds)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua segment_rules error", zap.Error(err))
		return nil
	}

	ret := e.vm.Get(-1)
	e.vm.Pop(1)

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		if ret != lua.LNil {
			e.log.Warn("lua segment_rules returned non-table", zap.String("type", ret.Type().String()))
		}
		return nil
	}

	mults := make(map[string]float64)
	tbl.ForEach(func(k, v lua.LValue) {
		ks, kok := k.(lua.LString)
		vn, vok := v.(lua.LNumber)
		if !kok || !vok {
			return
		}
		m := float64(vn)
		if m < 0 {
			m = 0
		}
		mults[string(ks)] = m
	})
	return mults
}
