package ledaction

import (
	"context"
	"testing"
	"time"

	"github.com/karlmutch/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TeamNorCal/ledaction/model"
)

func TestDispatcher(t *testing.T) {
	t.Run("shared drivers are flushed once per frame", func(t *testing.T) {
		d, _ := newTestDispatcher()
		drv := NewMemDriver("drv", 10)
		other := NewMemDriver("other", 10)
		one := NewSegment(d, "one", Part{Driver: drv, Count: 5})
		two := NewSegment(d, "two", Part{Driver: drv, First: 5, Count: 5}, Part{Driver: other, Count: 2})
		one.AddAction(NewAction(&filler{color: model.Red}, 0))
		two.AddAction(NewAction(&filler{color: model.Blue}, 0))

		d.Tick()
		assert.Equal(t, 1, drv.Flushes())
		assert.Equal(t, 1, other.Flushes())
		assert.Equal(t, model.Red, drv.Pixels()[4])
		assert.Equal(t, model.Blue, drv.Pixels()[5])

		// nothing painted, nothing flushed
		d.Tick()
		assert.Equal(t, 1, drv.Flushes())

		stats := d.Stats()
		assert.Equal(t, uint64(2), stats.Frames)
		assert.Equal(t, uint64(2), stats.Flushes)
		assert.Equal(t, 2, stats.Roots)
	})

	t.Run("roots are ticked in registration order", func(t *testing.T) {
		d, _ := newTestDispatcher()
		log := []string{}
		for _, name := range []string{"a", "b", "c"} {
			NewSegment(d, name).AddAction(NewAction(&recorder{name: name, log: &log}, 0))
		}
		d.Tick()
		assert.Equal(t, []string{"a:start", "b:start", "c:start"}, log)
	})

	t.Run("unknown nodes are ignored", func(t *testing.T) {
		d, _ := newTestDispatcher()
		other, _ := newTestDispatcher()
		seg := NewSegment(other, "seg")

		d.Unregister(seg)
		d.Register(nil)
		assert.Len(t, d.Nodes(), 0)

		other.Register(seg)
		assert.Len(t, other.Nodes(), 1)
		d.MarkDirty(nil)
		assert.Equal(t, uint64(0), d.Stats().Dropped)
	})

	t.Run("nodes closed during a frame are skipped", func(t *testing.T) {
		d, _ := newTestDispatcher()
		log := []string{}
		var victim *Segment
		killer := NewSegment(d, "killer")
		killer.AddAction(NewAction(EffectFunc(func(a *Action, n Node, ev Event) {
			victim.Close()
		}), 0))
		victim = NewSegment(d, "victim")
		victim.AddAction(NewAction(&recorder{name: "victim", log: &log}, 0))

		d.Tick()
		assert.Empty(t, log)
		assert.Len(t, d.Nodes(), 1)
	})

	t.Run("dirty set is bounded", func(t *testing.T) {
		d, _ := newTestDispatcher(WithMaxChannels(1))
		one := NewMemDriver("one", 1)
		two := NewMemDriver("two", 1)

		d.MarkDirty(one)
		d.MarkDirty(two)
		d.MarkDirty(one)
		d.Flush()

		assert.Equal(t, 1, one.Flushes())
		assert.Equal(t, 0, two.Flushes())
		assert.Equal(t, uint64(1), d.Stats().Dropped)
	})

	t.Run("flush failures are reported without blocking", func(t *testing.T) {
		errorC := make(chan errors.Error, 1)
		d, _ := newTestDispatcher(WithErrors(errorC))
		broken := &brokenDriver{MemDriver: NewMemDriver("broken", 1)}

		d.MarkDirty(broken)
		d.Flush()
		d.MarkDirty(broken)
		d.Flush()

		require.Len(t, errorC, 1)
		err := <-errorC
		assert.Contains(t, err.Error(), "cable unplugged")
		assert.Equal(t, uint64(2), d.Stats().Failed)
		assert.Equal(t, 2, broken.Flushes())
	})

	t.Run("clear all actions reaches nested nodes", func(t *testing.T) {
		d, _ := newTestDispatcher()
		seg := NewSegment(d, "seg")
		inner := NewSegment(d, "inner")
		sub := NewCompound(d, "sub")
		top := NewCompound(d, "top")
		sub.AddSegment(inner)
		top.AddCompound(sub)

		for _, n := range []Node{seg, inner, sub, top} {
			n.AddAction(NewAction(nil, 0))
			n.AddAction(NewAction(nil, time.Second))
		}

		d.ClearAllActions()
		for _, n := range []Node{seg, inner, sub, top} {
			assert.Equal(t, 0, n.Actions().Len(), n.Name())
		}
	})

	t.Run("programs run the requested number of times", func(t *testing.T) {
		d, _ := newTestDispatcher()
		seg := NewSegment(d, "seg")

		runs := 0
		p := ProgramFunc(func(ctx context.Context, d *Dispatcher) error {
			runs++
			assert.Equal(t, 0, seg.Actions().Len(), "actions are cleared between runs")
			seg.AddAction(NewAction(nil, 0))
			return nil
		})

		require.NoError(t, d.RunProgram(context.Background(), p, 3))
		assert.Equal(t, 3, runs)
		assert.Equal(t, 0, seg.Actions().Len())

		require.NoError(t, d.RunProgram(context.Background(), p, 0))
		assert.Equal(t, 3, runs)
		assert.False(t, d.IsProgramRunning())
	})

	t.Run("nested programs are refused", func(t *testing.T) {
		d, _ := newTestDispatcher()

		var nested errors.Error
		p := ProgramFunc(func(ctx context.Context, d *Dispatcher) error {
			assert.True(t, d.IsProgramRunning())
			nested = d.RunProgram(ctx, ProgramFunc(func(context.Context, *Dispatcher) error {
				t.Fatal("nested program ran")
				return nil
			}), 1)
			return nil
		})

		require.NoError(t, d.RunProgram(context.Background(), p, 1))
		assert.True(t, nested == ErrProgramRunning)
	})

	t.Run("forever programs stop with their context", func(t *testing.T) {
		d, _ := newTestDispatcher()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		runs := 0
		p := ProgramFunc(func(ctx context.Context, d *Dispatcher) error {
			runs++
			if runs == 5 {
				cancel()
			}
			return nil
		})

		err := d.RunProgram(ctx, p, Forever)
		require.Error(t, err)
		assert.Equal(t, context.Canceled, errors.Cause(err))
		assert.Equal(t, 5, runs)
	})

	t.Run("program failures end the runs", func(t *testing.T) {
		d, _ := newTestDispatcher()
		seg := NewSegment(d, "seg")

		runs := 0
		err := d.RunProgram(context.Background(), ProgramFunc(func(ctx context.Context, d *Dispatcher) error {
			runs++
			seg.AddAction(NewAction(nil, 0))
			return errors.New("bad step")
		}), 3)
		require.Error(t, err)
		assert.Equal(t, 1, runs)
		assert.Equal(t, 0, seg.Actions().Len())
	})

	t.Run("wait keeps every root animating", func(t *testing.T) {
		d, clock := newTestDispatcher()
		log := []string{}
		for _, name := range []string{"a", "b"} {
			NewSegment(d, name).AddAction(NewAction(&recorder{name: name, log: &log}, 30*time.Millisecond).Once())
		}

		require.NoError(t, d.Wait(context.Background(), 100*time.Millisecond))
		assert.Equal(t, 100*time.Millisecond, clock.Now())
		assert.Equal(t, []string{"a:start", "b:start", "a:end", "b:end"}, log)
	})

	t.Run("run paces frames", func(t *testing.T) {
		clock := &ManualClock{}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		yields := 0
		d := NewDispatcher(WithClock(clock), WithYield(func() {
			yields++
			clock.Advance(testStep)
			if yields == 100 {
				cancel()
			}
		}))

		d.Run(ctx, 50*time.Millisecond)
		assert.Equal(t, uint64(20), d.Stats().Frames)
	})

	t.Run("new actions use the update interval", func(t *testing.T) {
		d, _ := newTestDispatcher(WithUpdateInterval(20 * time.Millisecond))
		assert.Equal(t, 20*time.Millisecond, d.NewAction(nil, time.Second).Interval())
	})
}
