package ledaction

// This file contains the dispatcher that drives the addressing tree once per
// frame.  Every node registers with it when created, the dispatcher ticks the
// nodes that have no parent in registration order and then flushes each
// driver that was marked dirty during the frame exactly once.
//
// All of the dispatcher state is owned by the goroutine ticking it, nothing
// here is locked

import (
	"context"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/petermattis/goid"
)

const (
	// DefaultMaxChannels bounds the dirty set, it matches the number of
	// outputs on a fadecandy board
	DefaultMaxChannels = 8

	// Forever repeats a program until its context is cancelled
	Forever = -1
)

var (
	ErrProgramRunning = errors.New("a program is already running")
)

// Program is a scripted sequence of steps driven through the dispatcher
type Program interface {
	Run(ctx context.Context, d *Dispatcher) (err error)
}

// ProgramFunc adapts a function to the Program interface
type ProgramFunc func(ctx context.Context, d *Dispatcher) (err error)

func (f ProgramFunc) Run(ctx context.Context, d *Dispatcher) (err error) {
	return f(ctx, d)
}

// Stats are counters accumulated since the dispatcher was created
type Stats struct {
	Frames  uint64 // full Tick passes
	Flushes uint64 // driver Flush calls
	Failed  uint64 // driver Flush calls that returned an error
	Dropped uint64 // drivers that did not fit into the dirty set
	Nodes   int
	Roots   int
}

// Option configures a Dispatcher
type Option func(d *Dispatcher)

func WithClock(clock Clock) Option {
	return func(d *Dispatcher) {
		if clock != nil {
			d.clock = clock
		}
	}
}

func WithYield(yield Yield) Option {
	return func(d *Dispatcher) {
		if yield != nil {
			d.yield = yield
		}
	}
}

// WithUpdateInterval sets the Tick interval of actions made by NewAction
func WithUpdateInterval(interval time.Duration) Option {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.updateInterval = interval
		}
	}
}

// WithMaxChannels sets how many distinct drivers can be dirty in one frame
func WithMaxChannels(max int) Option {
	return func(d *Dispatcher) {
		if max > 0 {
			d.maxChannels = max
		}
	}
}

// WithErrors sets a channel that receives driver failures.  Sends never
// block, failures that do not fit are only logged
func WithErrors(errorC chan<- errors.Error) Option {
	return func(d *Dispatcher) {
		d.errorC = errorC
	}
}

type Dispatcher struct {
	clock          Clock
	yield          Yield
	maxChannels    int
	updateInterval time.Duration
	errorC         chan<- errors.Error

	nodes []Node
	dirty []Driver

	programRunning bool

	owner       int64
	ownerWarned bool
	dropWarned  bool

	stats Stats
}

// NewDispatcher creates a dispatcher using the system clock and a 1ms sleep
// as the yield point unless options say otherwise
func NewDispatcher(opts ...Option) (d *Dispatcher) {
	d = &Dispatcher{
		clock:          SystemClock(),
		yield:          SleepYield(time.Millisecond),
		maxChannels:    DefaultMaxChannels,
		updateInterval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.dirty = make([]Driver, 0, d.maxChannels)
	return d
}

// Now is the dispatcher clock reading
func (d *Dispatcher) Now() time.Duration {
	return d.clock.Now()
}

// Yield hands control back to the host
func (d *Dispatcher) Yield() {
	d.yield()
}

// NewAction creates an action using the dispatcher update interval
func (d *Dispatcher) NewAction(effect Effect, duration time.Duration) (a *Action) {
	a = NewAction(effect, duration)
	a.SetInterval(d.updateInterval)
	return a
}

// Register adds n to the registry, nodes already present are ignored
func (d *Dispatcher) Register(n Node) {
	if n == nil || d.indexOf(n) >= 0 {
		return
	}
	d.nodes = append(d.nodes, n)
}

// Unregister removes n from the registry, unknown nodes are ignored
func (d *Dispatcher) Unregister(n Node) {
	idx := d.indexOf(n)
	if idx < 0 {
		return
	}
	d.nodes = append(d.nodes[:idx], d.nodes[idx+1:]...)
}

func (d *Dispatcher) indexOf(n Node) int {
	for i, itm := range d.nodes {
		if itm == n {
			return i
		}
	}
	return -1
}

// Nodes returns every registered node in registration order
func (d *Dispatcher) Nodes() []Node {
	return append([]Node{}, d.nodes...)
}

// Roots returns the registered nodes the dispatcher ticks itself, those
// without a parent compound
func (d *Dispatcher) Roots() (roots []Node) {
	roots = []Node{}
	for _, n := range d.nodes {
		if n.Parent() == nil {
			roots = append(roots, n)
		}
	}
	return roots
}

// Tick runs one frame, every root is advanced once and the dirty drivers are
// flushed afterwards
func (d *Dispatcher) Tick() {
	d.checkOwner()

	// nodes can come and go while effects run, the parent is checked again
	// just before each node is ticked
	for _, n := range d.Nodes() {
		if n.Parent() != nil || d.indexOf(n) < 0 {
			continue
		}
		n.Tick()
	}
	d.Flush()
	d.stats.Frames++
}

// MarkDirty queues drv for the next flush.  A driver is only queued once
// per frame
func (d *Dispatcher) MarkDirty(drv Driver) {
	if drv == nil || d.IsDirty(drv) {
		return
	}
	if len(d.dirty) >= d.maxChannels {
		d.stats.Dropped++
		if !d.dropWarned {
			d.dropWarned = true
			logger.Warn("dirty set full, driver dropped", "max_channels", d.maxChannels)
		}
		return
	}
	d.dirty = append(d.dirty, drv)
}

func (d *Dispatcher) IsDirty(drv Driver) bool {
	for _, itm := range d.dirty {
		if itm == drv {
			return true
		}
	}
	return false
}

// Flush pushes every dirty driver and empties the dirty set
func (d *Dispatcher) Flush() {
	if len(d.dirty) == 0 {
		return
	}
	for i, drv := range d.dirty {
		d.dirty[i] = nil
		d.stats.Flushes++
		if errGo := drv.Flush(); errGo != nil {
			d.stats.Failed++
			d.report(errors.Wrap(errGo).With("stack", stack.Trace().TrimRuntime()))
		}
	}
	d.dirty = d.dirty[:0]
	d.dropWarned = false
}

func (d *Dispatcher) report(err errors.Error) {
	logger.Warn("driver flush failed", "error", err.Error())
	if d.errorC == nil {
		return
	}
	select {
	case d.errorC <- err:
	default:
	}
}

// ClearAllActions removes the actions of every root and of everything below
// it
func (d *Dispatcher) ClearAllActions() {
	for _, n := range d.Roots() {
		clearActions(n)
	}
}

func clearActions(n Node) {
	n.Actions().Clear()
	c, ok := n.(*Compound)
	if !ok {
		return
	}
	for _, s := range c.Segments() {
		clearActions(s)
	}
	for _, sub := range c.Compounds() {
		clearActions(sub)
	}
}

// RunProgram runs p the given number of times.  Forever, or any other
// negative count, repeats it until ctx is done and zero runs do nothing.
// Actions are cleared after every run.  A program started while another one
// is running is refused with ErrProgramRunning
func (d *Dispatcher) RunProgram(ctx context.Context, p Program, runs int) (err errors.Error) {
	if p == nil || runs == 0 {
		return nil
	}
	if d.programRunning {
		return ErrProgramRunning
	}
	d.programRunning = true
	defer func() {
		d.programRunning = false
	}()

	for run := 0; runs < 0 || run < runs; run++ {
		if errGo := ctx.Err(); errGo != nil {
			return errors.Wrap(errGo).With("run", run).With("stack", stack.Trace().TrimRuntime())
		}
		errGo := p.Run(ctx, d)
		d.ClearAllActions()
		if errGo != nil {
			return errors.Wrap(errGo).With("run", run).With("stack", stack.Trace().TrimRuntime())
		}
		d.Yield()
	}
	return nil
}

// IsProgramRunning is true while RunProgram is active
func (d *Dispatcher) IsProgramRunning() bool {
	return d.programRunning
}

// Wait keeps running frames for dur, yielding between them.  Programs use it
// to let every root animate while they pause
func (d *Dispatcher) Wait(ctx context.Context, dur time.Duration) (err errors.Error) {
	until := d.Now() + dur
	for d.Now() < until {
		if errGo := ctx.Err(); errGo != nil {
			return errors.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
		}
		d.Tick()
		d.Yield()
	}
	return nil
}

// Run is the host frame loop.  It ticks at most once per frame interval and
// yields in between until ctx is done
func (d *Dispatcher) Run(ctx context.Context, frame time.Duration) {
	next := d.Now()
	for ctx.Err() == nil {
		if now := d.Now(); now >= next {
			d.Tick()
			next = now + frame
		}
		d.Yield()
	}
}

func (d *Dispatcher) Stats() (stats Stats) {
	stats = d.stats
	stats.Nodes = len(d.nodes)
	stats.Roots = len(d.Roots())
	return stats
}

// checkOwner binds the dispatcher to the first goroutine that ticks it and
// complains once if another goroutine ticks it later
func (d *Dispatcher) checkOwner() {
	id := goid.Get()
	if d.owner == 0 {
		d.owner = id
		return
	}
	if id != d.owner && !d.ownerWarned {
		d.ownerWarned = true
		logger.Warn("dispatcher ticked from a second goroutine", "owner", d.owner, "goroutine", id)
	}
}
