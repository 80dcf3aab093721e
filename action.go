package ledaction

// This file contains the timed animation step.  An Action turns the progress
// of the clock into Start, Tick and End events that are delivered to the
// Effect it carries, the effect in turn paints pixels through the node that
// owns the action

import (
	"fmt"
	"time"
)

// DefaultInterval is the time between Tick events, 50ms gives 20Hz
const DefaultInterval = 50 * time.Millisecond

// Event is one of the three lifecycle events of an Action
type Event int

const (
	Start Event = iota
	Tick
	End
)

func (ev Event) String() string {
	switch ev {
	case Start:
		return "start"
	case Tick:
		return "tick"
	case End:
		return "end"
	}
	return fmt.Sprintf("event(%d)", int(ev))
}

// Effect receives the lifecycle events of the Action it was attached to.
// n is the node owning the action, effects paint through n.At and must call
// n.Dirty once they changed pixels
type Effect interface {
	OnEvent(a *Action, n Node, ev Event)
}

// EffectFunc adapts a plain function to the Effect interface
type EffectFunc func(a *Action, n Node, ev Event)

func (f EffectFunc) OnEvent(a *Action, n Node, ev Event) {
	f(a, n, ev)
}

// Action is a single timed animation step.  A duration of 0 runs forever,
// it never ends and so never lets its container move on until removed.
//
// An action belongs to at most one container at a time
type Action struct {
	effect     Effect
	name       string
	duration   time.Duration
	interval   time.Duration
	singleShot bool

	running   bool
	startTime time.Duration
	endTime   time.Duration
	nextTick  time.Duration
	now       time.Duration

	// set once the owning container has been asked to drop the action while
	// it was delivering an event
	detached bool
}

// NewAction creates an action playing effect for duration
func NewAction(effect Effect, duration time.Duration) *Action {
	if duration < 0 {
		duration = 0
	}
	return &Action{
		effect:   effect,
		duration: duration,
		interval: DefaultInterval,
	}
}

// Named attaches a label used in log output
func (a *Action) Named(name string) *Action {
	a.name = name
	return a
}

// Once marks the action as single shot and returns it
func (a *Action) Once() *Action {
	a.singleShot = true
	return a
}

func (a *Action) String() string {
	if a.name != "" {
		return a.name
	}
	if s, ok := a.effect.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("action(%v)", a.duration)
}

func (a *Action) Effect() Effect {
	return a.effect
}

// Duration is the run time of the action, 0 means forever
func (a *Action) Duration() time.Duration {
	return a.duration
}

func (a *Action) Interval() time.Duration {
	return a.interval
}

// SetInterval changes the time between Tick events.  Effects may call it
// from their Start handler, the new interval applies from the next tick on
func (a *Action) SetInterval(interval time.Duration) {
	if interval < 0 {
		interval = 0
	}
	a.interval = interval
	if a.running {
		a.nextTick = a.now + interval
	}
}

func (a *Action) SingleShot() bool {
	return a.singleShot
}

func (a *Action) SetSingleShot(singleShot bool) {
	a.singleShot = singleShot
}

// IsRunning is true between the Start and End events
func (a *Action) IsRunning() bool {
	return a.running
}

// IsFinished reports whether a running, finite action has used up its time
func (a *Action) IsFinished() bool {
	return a.running && a.duration > 0 && a.now >= a.endTime
}

// Reset returns the action to idle, the next advance fires Start again
func (a *Action) Reset() {
	a.running = false
	a.startTime = 0
	a.endTime = 0
	a.nextTick = 0
}

// StartTime is the clock value the action started at
func (a *Action) StartTime() time.Duration {
	return a.startTime
}

// Elapsed is the time since Start as of the latest advance
func (a *Action) Elapsed() time.Duration {
	if !a.running {
		return 0
	}
	return a.now - a.startTime
}

// TotalTicks is the number of Tick intervals that fit into the duration,
// 0 for forever actions or a zero interval
func (a *Action) TotalTicks() int {
	if a.interval <= 0 {
		return 0
	}
	return int(a.duration / a.interval)
}

// TickIndex is the index of the current tick interval since Start
func (a *Action) TickIndex() int {
	if a.interval <= 0 {
		return 0
	}
	return int(a.Elapsed() / a.interval)
}

// Progress is the elapsed share of the duration in [0,1], always 0 for
// forever actions
func (a *Action) Progress() float64 {
	if a.duration <= 0 {
		return 0
	}
	p := float64(a.Elapsed()) / float64(a.duration)
	if p > 1 {
		return 1
	}
	return p
}

func (a *Action) fire(n Node, ev Event) {
	if a.effect != nil {
		a.effect.OnEvent(a, n, ev)
	}
}

// advance is called once per frame by the container while the action is
// current.  Once the action asked to be removed from inside an event nothing
// else is touched, the container drops it when advance returns
func (a *Action) advance(n Node, now time.Duration) {
	a.now = now

	if !a.running {
		a.running = true
		a.startTime = now
		a.endTime = now + a.duration
		a.nextTick = now + a.interval
		logger.Debug("action started", "action", a.String(), "duration", a.duration)
		a.fire(n, Start)
		if a.detached {
			return
		}
	} else if now >= a.nextTick {
		a.nextTick = now + a.interval
		a.fire(n, Tick)
		if a.detached {
			return
		}
	}

	if !a.IsFinished() {
		return
	}

	a.fire(n, End)
	if a.detached {
		return
	}
	logger.Debug("action ended", "action", a.String(), "single_shot", a.singleShot)
	a.Reset()

	if a.singleShot {
		n.Actions().Remove(a)
		return
	}
	n.Actions().Next()
}
