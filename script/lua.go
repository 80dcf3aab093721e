package script

// This file contains programs written in Lua.  The script sees the rig
// through a handful of globals, each effect global queues an action on a
// named segment or compound and returns it:
//
//	color(target, hex, ms [, once])
//	dark(target, ms [, once])
//	ladder(target, left, right, ms [, once])
//	goto_color(target, from, to, ms [, once])
//	fade(target, percent, ms [, once])
//	ease(target, hex, ms [, curve [, once]])
//	snake(target, base, head, ms [, reversed [, keep [, once]]])
//	wait(target, ms [, once])
//
// and the flow globals
//
//	wait_for(target [, action])  yields on the target until its current, or
//	                             the given, action has ended, returns ms
//	sleep(ms)                    runs the whole rig for ms
//	halt(target, halted)
//	clear(target)

import (
	"context"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/Shopify/go-lua"

	"github.com/TeamNorCal/ledaction"
	"github.com/TeamNorCal/ledaction/effect"
	"github.com/TeamNorCal/ledaction/model"
)

const actionMeta = "ledaction.Action"

// Lua is a program backed by a Lua chunk, every run executes the chunk in a
// fresh interpreter
type Lua struct {
	rig    *ledaction.Rig
	name   string
	source string
}

// LoadLua compiles src once so that syntax errors surface before the program
// is run
func LoadLua(rig *ledaction.Rig, name string, src string) (p *Lua, err errors.Error) {
	l := lua.NewState()
	if errGo := lua.LoadString(l, src); errGo != nil {
		return nil, errors.Wrap(errGo).With("script", name).With("stack", stack.Trace().TrimRuntime())
	}
	return &Lua{
		rig:    rig,
		name:   name,
		source: src,
	}, nil
}

func (p *Lua) Name() string {
	return p.name
}

func (p *Lua) Run(ctx context.Context, d *ledaction.Dispatcher) (errGo error) {
	l := lua.NewState()
	lua.OpenLibraries(l)

	env := &luaEnv{ctx: ctx, d: d, rig: p.rig}
	env.register(l)

	frames := d.Stats().Frames
	if errGo = lua.DoString(l, p.source); errGo != nil {
		// a cancelled context surfaces as a script error, report the cause
		if ctx.Err() != nil {
			errGo = ctx.Err()
		}
		return errors.Wrap(errGo).With("script", p.name).With("stack", stack.Trace().TrimRuntime())
	}
	if err := holdForever(ctx, d, env.queued, frames); err != nil {
		return err.With("script", p.name)
	}
	return nil
}

type luaEnv struct {
	ctx context.Context
	d   *ledaction.Dispatcher
	rig *ledaction.Rig

	queued []*step
}

func (env *luaEnv) register(l *lua.State) {
	lua.NewMetaTable(l, actionMeta)
	lua.SetFunctions(l, []lua.RegistryFunction{
		{Name: "__tostring", Function: func(l *lua.State) int {
			a := checkAction(l, 1)
			l.PushString(a.String())
			return 1
		}},
	}, 0)
	l.Pop(1)

	l.Register("color", env.color)
	l.Register("dark", env.dark)
	l.Register("ladder", env.ladder)
	l.Register("goto_color", env.gotoColor)
	l.Register("fade", env.fade)
	l.Register("ease", env.ease)
	l.Register("snake", env.snake)
	l.Register("wait", env.wait)
	l.Register("wait_for", env.waitFor)
	l.Register("sleep", env.sleep)
	l.Register("halt", env.halt)
	l.Register("clear", env.clear)
}

func checkAction(l *lua.State, idx int) *ledaction.Action {
	a, _ := lua.CheckUserData(l, idx, actionMeta).(*ledaction.Action)
	if a == nil {
		lua.ArgumentError(l, idx, "action expected")
	}
	return a
}

func (env *luaEnv) target(l *lua.State, idx int) ledaction.Node {
	name := lua.CheckString(l, idx)
	n := env.rig.Node(name)
	if n == nil {
		lua.Errorf(l, "unknown target '%s'", name)
	}
	return n
}

func checkColor(l *lua.State, idx int) model.Color {
	hex := lua.CheckString(l, idx)
	c, err := model.ParseHex(hex)
	if err != nil {
		lua.Errorf(l, "bad color '%s'", hex)
	}
	return c
}

func checkDuration(l *lua.State, idx int) time.Duration {
	ms := lua.CheckInteger(l, idx)
	if ms < 0 {
		lua.ArgumentError(l, idx, "negative duration")
	}
	return time.Duration(ms) * time.Millisecond
}

func optBool(l *lua.State, idx int) bool {
	if l.IsNoneOrNil(idx) {
		return false
	}
	return l.ToBoolean(idx)
}

// push queues e on n and hands the action back to the script
func (env *luaEnv) push(l *lua.State, n ledaction.Node, e ledaction.Effect, dur time.Duration, once bool) int {
	st := queue(env.d, n, e, stepOptions{duration: dur, singleShot: once})
	env.queued = append(env.queued, st)
	l.PushUserData(st.action)
	lua.SetMetaTableNamed(l, actionMeta)
	return 1
}

func (env *luaEnv) color(l *lua.State) int {
	n := env.target(l, 1)
	return env.push(l, n, &effect.Color{Color: checkColor(l, 2)}, checkDuration(l, 3), optBool(l, 4))
}

func (env *luaEnv) dark(l *lua.State) int {
	n := env.target(l, 1)
	return env.push(l, n, effect.Dark(), checkDuration(l, 2), optBool(l, 3))
}

func (env *luaEnv) ladder(l *lua.State) int {
	n := env.target(l, 1)
	e := &effect.ColorLadder{Left: checkColor(l, 2), Right: checkColor(l, 3)}
	return env.push(l, n, e, checkDuration(l, 4), optBool(l, 5))
}

func (env *luaEnv) gotoColor(l *lua.State) int {
	n := env.target(l, 1)
	e := &effect.GotoColor{From: checkColor(l, 2), To: checkColor(l, 3)}
	return env.push(l, n, e, checkDuration(l, 4), optBool(l, 5))
}

func (env *luaEnv) fade(l *lua.State) int {
	n := env.target(l, 1)
	e := effect.NewFade(lua.CheckInteger(l, 2))
	return env.push(l, n, e, checkDuration(l, 3), optBool(l, 4))
}

func (env *luaEnv) ease(l *lua.State) int {
	n := env.target(l, 1)
	to := checkColor(l, 2)
	dur := checkDuration(l, 3)
	e, err := effect.NewEaseInOut(to, lua.OptString(l, 4, ""))
	if err != nil {
		lua.Errorf(l, "%s", err.Error())
	}
	return env.push(l, n, e, dur, optBool(l, 5))
}

func (env *luaEnv) snake(l *lua.State) int {
	n := env.target(l, 1)
	e := &effect.Snake{
		Base:     checkColor(l, 2),
		Head:     checkColor(l, 3),
		Reversed: optBool(l, 5),
		Keep:     optBool(l, 6),
	}
	return env.push(l, n, e, checkDuration(l, 4), optBool(l, 7))
}

func (env *luaEnv) wait(l *lua.State) int {
	n := env.target(l, 1)
	return env.push(l, n, effect.Wait{}, checkDuration(l, 2), optBool(l, 3))
}

func (env *luaEnv) waitFor(l *lua.State) int {
	n := env.target(l, 1)
	var elapsed time.Duration
	if l.IsNoneOrNil(2) {
		elapsed = n.YieldUntilAction()
	} else {
		elapsed = n.YieldUntil(checkAction(l, 2))
	}
	if env.ctx.Err() != nil {
		lua.Errorf(l, "%s", env.ctx.Err().Error())
	}
	l.PushInteger(int(elapsed / time.Millisecond))
	return 1
}

func (env *luaEnv) sleep(l *lua.State) int {
	if err := env.d.Wait(env.ctx, checkDuration(l, 1)); err != nil {
		lua.Errorf(l, "%s", err.Error())
	}
	return 0
}

func (env *luaEnv) halt(l *lua.State) int {
	n := env.target(l, 1)
	n.SetHalted(optBool(l, 2))
	return 0
}

func (env *luaEnv) clear(l *lua.State) int {
	env.target(l, 1).Actions().Clear()
	return 0
}
