package ledaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegment(t *testing.T) {
	t.Run("parts are concatenated", func(t *testing.T) {
		d, _ := newTestDispatcher()
		drv := NewMemDriver("drv", 30)
		seg := NewSegment(d, "seg",
			Part{Driver: drv, First: 0, Count: 5},
			Part{Driver: drv, First: 10, Count: 3},
			Part{Driver: drv, First: 20, Count: 7},
		)

		assert.Equal(t, 15, seg.Size())
		assert.True(t, seg.At(6) == drv.Pixel(11), "offset 1 of the second part")
		assert.True(t, seg.At(0) == drv.Pixel(0))
		assert.True(t, seg.At(14) == drv.Pixel(26))
		assert.Nil(t, seg.At(15))
		assert.Nil(t, seg.At(20))
		assert.Nil(t, seg.At(-1))
	})

	t.Run("parts beyond the driver resolve to nothing", func(t *testing.T) {
		d, _ := newTestDispatcher()
		drv := NewMemDriver("drv", 4)
		seg := NewSegment(d, "seg", Part{Driver: drv, First: 2, Count: 4})

		assert.Equal(t, 4, seg.Size())
		assert.NotNil(t, seg.At(1))
		assert.Nil(t, seg.At(2))
	})

	t.Run("size follows part changes", func(t *testing.T) {
		d, _ := newTestDispatcher()
		drv := NewMemDriver("drv", 10)
		seg := NewSegment(d, "seg", Part{Driver: drv, Count: 2})
		seg.AddPart(Part{Driver: drv, First: 5, Count: 5})
		assert.Equal(t, 7, seg.Size())

		seg.RemovePartAt(0)
		seg.RemovePartAt(3)
		assert.Equal(t, 5, seg.Size())

		p, isPresent := seg.PartAt(0)
		assert.True(t, isPresent)
		assert.Equal(t, 5, p.First)
		_, isPresent = seg.PartAt(1)
		assert.False(t, isPresent)
		assert.Len(t, seg.Parts(), 1)
	})

	t.Run("dirty marks every driver once", func(t *testing.T) {
		d, _ := newTestDispatcher()
		one := NewMemDriver("one", 10)
		two := NewMemDriver("two", 10)
		seg := NewSegment(d, "seg",
			Part{Driver: one, Count: 2},
			Part{Driver: two, Count: 2},
			Part{Driver: one, First: 5, Count: 2},
		)

		seg.Dirty()
		assert.True(t, d.IsDirty(one))
		assert.True(t, d.IsDirty(two))

		d.Flush()
		assert.Equal(t, 1, one.Flushes())
		assert.Equal(t, 1, two.Flushes())
		assert.False(t, d.IsDirty(one))
	})

	t.Run("close unregisters", func(t *testing.T) {
		d, _ := newTestDispatcher()
		seg := NewSegment(d, "seg")
		seg.AddAction(NewAction(nil, 0))
		assert.Len(t, d.Roots(), 1)

		seg.Close()
		seg.Close()
		assert.Len(t, d.Nodes(), 0)
		assert.Equal(t, 0, seg.Actions().Len())
		assert.Equal(t, KindSegment, seg.Kind())
	})
}
