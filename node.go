package ledaction

// This file contains the behavior shared by segments and compounds, the two
// kinds of node in the addressing tree.  Every node owns a list of actions,
// advances the current one when ticked and exposes its pixels as a flat,
// zero based range

import (
	"fmt"
	"time"

	"github.com/TeamNorCal/ledaction/model"
)

// Kind tags the two node variants
type Kind int

const (
	KindSegment Kind = iota
	KindCompound
)

func (k Kind) String() string {
	switch k {
	case KindSegment:
		return "segment"
	case KindCompound:
		return "compound"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Node is implemented by *Segment and *Compound only
type Node interface {
	Kind() Kind
	Name() string

	// At resolves a flat pixel index, nil when i is out of range
	At(i int) *model.Color
	// Size is recomputed on every call as the tree may change between calls
	Size() int
	// Dirty marks every driver below this node as needing a flush
	Dirty()
	// Tick advances the current action once, a compound then ticks its
	// children
	Tick()

	Actions() *Actions
	AddAction(a *Action)
	RemoveAction(a *Action)

	Halted() bool
	SetHalted(halt bool)

	// Parent is the compound ticking this node, nil for independent roots
	Parent() *Compound
	Dispatcher() *Dispatcher

	YieldUntilAction() time.Duration
	YieldUntilActions(count int) time.Duration
	YieldUntil(target *Action) time.Duration

	// Close detaches the node from its parent, drops its actions and
	// unregisters it from the dispatcher
	Close()

	base() *node
}

type node struct {
	kind    Kind
	name    string
	halted  bool
	closed  bool
	actions Actions
	parent  *Compound
	d       *Dispatcher

	// the Segment or Compound embedding this node
	self Node
}

func (n *node) init(d *Dispatcher, kind Kind, name string, self Node) {
	n.kind = kind
	n.name = name
	n.self = self
	n.d = d
	d.Register(self)
}

func (n *node) base() *node {
	return n
}

func (n *node) Kind() Kind {
	return n.kind
}

func (n *node) Name() string {
	return n.name
}

func (n *node) Actions() *Actions {
	return &n.actions
}

func (n *node) AddAction(a *Action) {
	n.actions.Add(a)
}

func (n *node) RemoveAction(a *Action) {
	n.actions.Remove(a)
}

func (n *node) Halted() bool {
	return n.halted
}

// SetHalted freezes the node, a halted node keeps its actions but does not
// advance them
func (n *node) SetHalted(halt bool) {
	n.halted = halt
}

func (n *node) Parent() *Compound {
	return n.parent
}

func (n *node) Dispatcher() *Dispatcher {
	return n.d
}

func (n *node) advance() {
	if n.halted || n.closed {
		return
	}
	n.actions.advance(n.self)
}

// YieldUntilAction keeps handing control to the host and ticking this node
// until the current action is no longer running.  It returns at once when
// the node is halted, has no action or the action runs forever.  The elapsed
// time is returned
func (n *node) YieldUntilAction() time.Duration {
	a := n.actions.Current()
	if !n.waitable(a) {
		return 0
	}
	started := n.d.Now()
	n.waitFor(a)
	return n.d.Now() - started
}

// YieldUntilActions waits for count actions in a row to finish
func (n *node) YieldUntilActions(count int) time.Duration {
	started := n.d.Now()
	for ; count > 0; count-- {
		a := n.actions.Current()
		if !n.waitable(a) {
			break
		}
		n.waitFor(a)
	}
	return n.d.Now() - started
}

// YieldUntil waits until target has become the current action and finished.
// Actions ahead of it in the list run to completion first
func (n *node) YieldUntil(target *Action) time.Duration {
	if n.actions.indexOf(target) < 0 {
		return 0
	}
	started := n.d.Now()
	for {
		a := n.actions.Current()
		if !n.waitable(a) {
			break
		}
		n.waitFor(a)
		if a == target || n.actions.indexOf(target) < 0 {
			break
		}
	}
	return n.d.Now() - started
}

func (n *node) waitable(a *Action) bool {
	return !n.halted && !n.closed && a != nil && a.Duration() > 0
}

func (n *node) waitFor(a *Action) {
	if !a.IsRunning() {
		n.step()
	}
	for a.IsRunning() && !n.halted && !n.closed {
		n.d.Yield()
		n.step()
	}
}

// step ticks this node alone and pushes whatever it painted
func (n *node) step() {
	n.self.Tick()
	n.d.Flush()
}

func (n *node) close() {
	if n.closed {
		return
	}
	if n.parent != nil {
		n.parent.removeChild(n.self)
	}
	n.actions.Clear()
	n.d.Unregister(n.self)
	n.closed = true
}
