package shell

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cjoudrey/gluahttp"
	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"

	"github.com/greedsolver/greed/game"
)

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("greed_shell")
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

// command wraps a shell command as a Lua function taking the rest of the
// command line as one string and returning the command's message.
func command(name string, fn func(*ShellController, *shellcmd) (*Response, error)) lua.LGFunction {
	return func(L *lua.LState) int {
		lv := L.OptString(1, "")
		sc := getShell(L)
		cmd, err := extractFields(strings.TrimSpace(name + " " + lv))
		if err != nil {
			log.Err(err).Msg("error-parsing-" + name)
			L.Push(lua.LString("ERROR: " + err.Error()))
			return 1
		}
		r, err := fn(sc, cmd)
		if err != nil {
			log.Err(err).Msg("error-executing-" + name)
			L.Push(lua.LString("ERROR: " + err.Error()))
			return 1
		}
		if r == nil {
			L.Push(lua.LString(""))
		} else {
			L.Push(lua.LString(r.message))
		}
		// return number of results pushed to stack.
		return 1
	}
}

// Lookup returns the number of dice and the win probability for
// greed_lookup(active, queued[, final]), or nil and a message on error.
func Lookup(L *lua.LState) int {
	sc := getShell(L)
	s := game.NewState(L.CheckInt(1), L.CheckInt(2), L.OptBool(3, false))
	if sc.table == nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(errNoTable.Error()))
		return 2
	}
	e, err := sc.table.LookupState(s)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LNumber(e.N))
	L.Push(lua.LNumber(e.Value))
	return 2
}

// Ruleset returns the shell's ruleset as a table {max=, sides=}.
func Ruleset(L *lua.LState) int {
	sc := getShell(L)
	t := L.NewTable()
	t.RawSetString("max", lua.LNumber(sc.rules.Max))
	t.RawSetString("sides", lua.LNumber(sc.rules.Sides))
	L.Push(t)
	return 1
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("need arguments for script")
	}
	filepath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()
	L.SetContext(sc.ctx)

	luajson.Preload(L)
	L.PreloadModule("http", gluahttp.NewHttpModule(&http.Client{}).Loader)

	lsc := L.NewUserData()
	lsc.Value = sc

	L.SetGlobal("greed_shell", lsc)
	L.SetGlobal("greed_set", L.NewFunction(command("set", (*ShellController).set)))
	L.SetGlobal("greed_solve", L.NewFunction(command("solve", (*ShellController).solve)))
	L.SetGlobal("greed_load", L.NewFunction(command("load", (*ShellController).load)))
	L.SetGlobal("greed_export", L.NewFunction(command("export", (*ShellController).export)))
	L.SetGlobal("greed_verify", L.NewFunction(command("verify", (*ShellController).verify)))
	L.SetGlobal("greed_autoplay", L.NewFunction(command("autoplay", (*ShellController).autoplay)))
	L.SetGlobal("greed_lookup", L.NewFunction(Lookup))
	L.SetGlobal("greed_ruleset", L.NewFunction(Ruleset))

	args := L.NewTable()
	for _, a := range cmd.args[1:] {
		args.Append(lua.LString(a))
	}
	L.SetGlobal("arg", args)

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Msg("there was a error")
		return nil, err
	}
	return nil, nil
}
