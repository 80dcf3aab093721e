package ledaction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompound(t *testing.T) {
	t.Run("segments are concatenated", func(t *testing.T) {
		d, _ := newTestDispatcher()
		drv := NewMemDriver("drv", 10)
		first := NewSegment(d, "first", Part{Driver: drv, Count: 4})
		second := NewSegment(d, "second", Part{Driver: drv, First: 4, Count: 6})

		c := NewCompound(d, "both")
		c.AddSegment(first)
		c.AddSegment(second)

		assert.Equal(t, 10, c.Size())
		assert.True(t, c.At(7) == second.At(3))
		assert.True(t, c.At(7) == drv.Pixel(7))
		assert.Nil(t, c.At(10))
		assert.Nil(t, c.At(-1))
	})

	t.Run("segments come before nested compounds", func(t *testing.T) {
		d, _ := newTestDispatcher()
		drv := NewMemDriver("drv", 10)
		inner := NewCompound(d, "inner")
		inner.AddSegment(NewSegment(d, "a", Part{Driver: drv, Count: 2}))

		outer := NewCompound(d, "outer")
		outer.AddCompound(inner)
		outer.AddSegment(NewSegment(d, "b", Part{Driver: drv, First: 5, Count: 3}))

		assert.Equal(t, 5, outer.Size())
		assert.True(t, outer.At(0) == drv.Pixel(5))
		assert.True(t, outer.At(3) == drv.Pixel(0))
	})

	t.Run("children are ticked by their parent only", func(t *testing.T) {
		d, clock := newTestDispatcher()
		seg := NewSegment(d, "seg")
		c := NewCompound(d, "c")

		log := []string{}
		a := NewAction(&recorder{name: "seg", log: &log}, 0)
		a.SetInterval(0)
		seg.AddAction(a)

		c.AddSegment(seg)
		assert.Equal(t, []Node{c}, d.Roots())
		assert.Equal(t, c, seg.Parent())

		for i := 0; i != 3; i++ {
			d.Tick()
			clock.Advance(testStep)
		}
		assert.Len(t, log, 3)

		c.RemoveSegment(seg)
		assert.Nil(t, seg.Parent())
		assert.Len(t, d.Roots(), 2)

		d.Tick()
		assert.Len(t, log, 4)
	})

	t.Run("compound ticks its own action first", func(t *testing.T) {
		d, _ := newTestDispatcher()
		log := []string{}
		seg := NewSegment(d, "seg")
		seg.AddAction(NewAction(&recorder{name: "seg", log: &log}, 0))
		sub := NewCompound(d, "sub")
		sub.AddAction(NewAction(&recorder{name: "sub", log: &log}, 0))
		c := NewCompound(d, "c")
		c.AddAction(NewAction(&recorder{name: "c", log: &log}, 0))
		c.AddCompound(sub)
		c.AddSegment(seg)

		d.Tick()
		assert.Equal(t, []string{"c:start", "seg:start", "sub:start"}, log)
	})

	t.Run("halting a compound freezes its children", func(t *testing.T) {
		d, _ := newTestDispatcher()
		log := []string{}
		seg := NewSegment(d, "seg")
		seg.AddAction(NewAction(&recorder{name: "seg", log: &log}, 0))
		c := NewCompound(d, "c")
		c.AddSegment(seg)

		c.SetHalted(true)
		d.Tick()
		assert.Empty(t, log)

		c.SetHalted(false)
		d.Tick()
		assert.Equal(t, []string{"seg:start"}, log)
	})

	t.Run("adding a child moves it between parents", func(t *testing.T) {
		d, _ := newTestDispatcher()
		seg := NewSegment(d, "seg")
		one := NewCompound(d, "one")
		two := NewCompound(d, "two")

		one.AddSegment(seg)
		two.AddSegment(seg)
		assert.Len(t, one.Segments(), 0)
		assert.Equal(t, []*Segment{seg}, two.Segments())
		assert.Equal(t, two, seg.Parent())

		one.AddCompound(two)
		assert.Equal(t, one, two.Parent())
		assert.Equal(t, two, one.CompoundAt(0))
		assert.Nil(t, one.CompoundAt(1))
		assert.Equal(t, seg, two.SegmentAt(0))
		assert.Nil(t, two.SegmentAt(-1))
	})

	t.Run("loops are refused", func(t *testing.T) {
		d, _ := newTestDispatcher()
		top := NewCompound(d, "top")
		mid := NewCompound(d, "mid")
		low := NewCompound(d, "low")
		top.AddCompound(mid)
		mid.AddCompound(low)

		top.AddCompound(top)
		low.AddCompound(top)
		low.AddCompound(mid)

		assert.Nil(t, top.Parent())
		assert.Len(t, low.Compounds(), 0)
		assert.Equal(t, []Node{top}, d.Roots())
	})

	t.Run("removal by index restores independence", func(t *testing.T) {
		d, _ := newTestDispatcher()
		c := NewCompound(d, "c")
		sub := NewCompound(d, "sub")
		seg := NewSegment(d, "seg")
		c.AddCompound(sub)
		c.AddSegment(seg)

		c.RemoveCompoundAt(0)
		c.RemoveSegmentAt(0)
		c.RemoveSegmentAt(5)
		assert.Nil(t, sub.Parent())
		assert.Nil(t, seg.Parent())
		assert.Len(t, d.Roots(), 3)
	})

	t.Run("closing hands children back", func(t *testing.T) {
		d, _ := newTestDispatcher()
		c := NewCompound(d, "c")
		seg := NewSegment(d, "seg")
		sub := NewCompound(d, "sub")
		c.AddSegment(seg)
		c.AddCompound(sub)
		c.AddAction(NewAction(nil, time.Second))

		c.Close()
		assert.Nil(t, seg.Parent())
		assert.Nil(t, sub.Parent())
		assert.Equal(t, []Node{seg, sub}, d.Roots())

		// a closed compound takes no new children
		c.AddSegment(seg)
		assert.Nil(t, seg.Parent())
	})

	t.Run("closing a child detaches it", func(t *testing.T) {
		d, _ := newTestDispatcher()
		drv := NewMemDriver("drv", 4)
		c := NewCompound(d, "c")
		seg := NewSegment(d, "seg", Part{Driver: drv, Count: 4})
		c.AddSegment(seg)

		seg.Close()
		assert.Equal(t, 0, c.Size())
		assert.Len(t, c.Segments(), 0)
	})
}
