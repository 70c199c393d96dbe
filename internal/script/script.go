// Package script loads multi-action lists from Lua files. A script
// runs in a sandboxed interpreter with only the base, table, string,
// and math libraries open, and must return an array of action tables:
//
//	return {
//		{ x = 100, y = 200 },
//		{ x = 100, y = 240, delay_ms = 50, action = "double" },
//		{ x = 0, y = 0, action = "key", key = "<enter>" },
//	}
//
// Fields other than x and y are optional and take the usual action
// defaults. Generated lists let one script stamp out grids or timed
// sequences that would be tedious to write into a profile by hand.
package script

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/clickstorm/internal/input/action"
)

// ErrScript marks scripts that fail to compile, raise at runtime, or
// return something other than an action list.
var ErrScript = errors.New("script error")

// Load runs the Lua file at path and converts its return value into
// an action list. Element errors name the 1-based script index.
func Load(path string) ([]action.Action, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	state := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer state.Close()
	openSandbox(state)

	fn, err := state.Load(bytes.NewReader(src), path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScript, err)
	}
	state.Push(fn)
	if err := state.PCall(0, 1, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScript, err)
	}

	ret := state.Get(-1)
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: script must return a table, got %s", ErrScript, ret.Type())
	}

	n := tbl.Len()
	items := make([]action.Action, 0, n)
	for i := 1; i <= n; i++ {
		entry, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("%w: action %d: not a table", ErrScript, i)
		}
		act, err := actionFromTable(entry)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		items = append(items, act)
	}
	return items, nil
}

// openSandbox opens the libraries scripts may use. Everything with
// filesystem, process, or network reach stays closed.
func openSandbox(state *lua.LState) {
	lua.OpenBase(state)
	lua.OpenTable(state)
	lua.OpenString(state)
	lua.OpenMath(state)
}

func actionFromTable(t *lua.LTable) (action.Action, error) {
	x, err := requireInt(t, "x")
	if err != nil {
		return action.Action{}, err
	}
	y, err := requireInt(t, "y")
	if err != nil {
		return action.Action{}, err
	}

	act := action.New(x, y)
	if v, ok, err := optInt(t, "delay_ms"); err != nil {
		return action.Action{}, err
	} else if ok {
		act.DelayMS = v
	}
	if v, ok, err := optString(t, "unit"); err != nil {
		return action.Action{}, err
	} else if ok {
		act.Unit = action.Unit(v)
	}
	if v, ok, err := optString(t, "action"); err != nil {
		return action.Action{}, err
	} else if ok {
		act.Kind = action.Kind(v)
	}
	if v, ok, err := optString(t, "key"); err != nil {
		return action.Action{}, err
	} else if ok {
		act.Key = v
	}

	if err := act.Validate(); err != nil {
		return action.Action{}, err
	}
	return act, nil
}

func requireInt(t *lua.LTable, field string) (int, error) {
	v, ok, err := optInt(t, field)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%s: %w", field, action.ErrMissingPosition)
	}
	return v, nil
}

func optInt(t *lua.LTable, field string) (int, bool, error) {
	v := t.RawGetString(field)
	if v == lua.LNil {
		return 0, false, nil
	}
	num, ok := v.(lua.LNumber)
	if !ok {
		return 0, false, fmt.Errorf("%s: expected number, got %s", field, v.Type())
	}
	return int(num), true, nil
}

func optString(t *lua.LTable, field string) (string, bool, error) {
	v := t.RawGetString(field)
	if v == lua.LNil {
		return "", false, nil
	}
	s, ok := v.(lua.LString)
	if !ok {
		return "", false, fmt.Errorf("%s: expected string, got %s", field, v.Type())
	}
	return string(s), true, nil
}
