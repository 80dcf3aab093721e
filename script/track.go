// Package script turns step lists from layout files and Lua sources into
// programs the dispatcher can run
package script

import (
	"context"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/ledaction"
)

// tracked wraps an effect and remembers that the End event went past
type tracked struct {
	ledaction.Effect
	ended bool
}

func (t *tracked) OnEvent(a *ledaction.Action, n ledaction.Node, ev ledaction.Event) {
	t.Effect.OnEvent(a, n, ev)
	if ev == ledaction.End {
		t.ended = true
	}
}

func (t *tracked) String() string {
	if s, ok := t.Effect.(interface{ String() string }); ok {
		return s.String()
	}
	return "effect"
}

// waitEnded runs whole frames until none of the steps is playing
func waitEnded(ctx context.Context, d *ledaction.Dispatcher, pending []*step) (err errors.Error) {
	for {
		waiting := false
		for _, s := range pending {
			if s.playing() {
				waiting = true
				break
			}
		}
		if !waiting {
			return nil
		}
		if errGo := ctx.Err(); errGo != nil {
			return errors.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
		}
		d.Tick()
		d.Yield()
	}
}

// holdForever keeps a run that queued only actions without an end on screen.
// When the run drew no frame since frames was sampled and one of the steps is
// a forever action showing on its node, frames run until ctx is done
func holdForever(ctx context.Context, d *ledaction.Dispatcher, steps []*step, frames uint64) (err errors.Error) {
	if d.Stats().Frames != frames {
		return nil
	}
	for {
		showing := false
		for _, s := range steps {
			if s.showingForever() {
				showing = true
				break
			}
		}
		if !showing {
			return nil
		}
		if errGo := ctx.Err(); errGo != nil {
			return errors.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
		}
		d.Tick()
		d.Yield()
	}
}

func containsAction(n ledaction.Node, a *ledaction.Action) bool {
	acts := n.Actions()
	for i := 0; i < acts.Len(); i++ {
		if acts.At(i) == a {
			return true
		}
	}
	return false
}

// step is one queued action and where it went
type step struct {
	node   ledaction.Node
	action *ledaction.Action
	effect *tracked
}

// playing is true while the action is still expected to end.  Removed
// actions, halted nodes and actions stuck behind a forever action are not
func (s *step) playing() bool {
	if s.effect.ended || s.node.Halted() || !containsAction(s.node, s.action) {
		return false
	}
	cur := s.node.Actions().Current()
	if cur != s.action && cur.Duration() == 0 {
		return false
	}
	return true
}

func (s *step) showingForever() bool {
	if s.action.Duration() != 0 || s.node.Halted() || !containsAction(s.node, s.action) {
		return false
	}
	return s.node.Actions().Current() == s.action
}

// queue builds the action for effect and appends it to n
func queue(d *ledaction.Dispatcher, n ledaction.Node, effect ledaction.Effect, s stepOptions) (st *step) {
	st = &step{
		node:   n,
		effect: &tracked{Effect: effect},
	}
	st.action = d.NewAction(st.effect, s.duration)
	if s.name != "" {
		st.action.Named(s.name)
	}
	st.action.SetSingleShot(s.singleShot)
	n.AddAction(st.action)
	return st
}
