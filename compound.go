package ledaction

// This file contains the interior node of the addressing tree.  A compound
// concatenates segments and nested compounds into one flat pixel range,
// segments first in insertion order followed by compounds in insertion order.
//
// A child added to a compound is ticked by that compound and no longer by the
// dispatcher, removing it hands it back to the dispatcher

import (
	"github.com/TeamNorCal/ledaction/model"
)

// Compound groups segments and other compounds
type Compound struct {
	node
	segments  []*Segment
	compounds []*Compound
}

// NewCompound creates an empty compound and registers it with d as an
// independent root
func NewCompound(d *Dispatcher, name string) (c *Compound) {
	c = &Compound{}
	c.init(d, KindCompound, name, c)
	return c
}

// AddSegment appends s, a segment held by another compound is moved here
func (c *Compound) AddSegment(s *Segment) {
	if s == nil || s.parent == c || s.closed || c.closed {
		return
	}
	if s.parent != nil {
		s.parent.RemoveSegment(s)
	}
	s.parent = c
	c.segments = append(c.segments, s)
}

// RemoveSegment detaches s, the dispatcher ticks it again from the next frame
func (c *Compound) RemoveSegment(s *Segment) {
	for i, itm := range c.segments {
		if itm == s {
			c.RemoveSegmentAt(i)
			return
		}
	}
}

func (c *Compound) RemoveSegmentAt(idx int) {
	if idx < 0 || idx >= len(c.segments) {
		return
	}
	s := c.segments[idx]
	c.segments = append(c.segments[:idx], c.segments[idx+1:]...)
	s.parent = nil
}

func (c *Compound) SegmentAt(idx int) *Segment {
	if idx < 0 || idx >= len(c.segments) {
		return nil
	}
	return c.segments[idx]
}

func (c *Compound) Segments() []*Segment {
	return append([]*Segment{}, c.segments...)
}

// AddCompound appends sub.  Adding a compound to itself or to one of its own
// descendants would create a loop and is refused
func (c *Compound) AddCompound(sub *Compound) {
	if sub == nil || sub.parent == c || sub.closed || c.closed {
		return
	}
	for p := c; p != nil; p = p.parent {
		if p == sub {
			logger.Warn("compound loop refused", "compound", c.name, "child", sub.name)
			return
		}
	}
	if sub.parent != nil {
		sub.parent.RemoveCompound(sub)
	}
	sub.parent = c
	c.compounds = append(c.compounds, sub)
}

func (c *Compound) RemoveCompound(sub *Compound) {
	for i, itm := range c.compounds {
		if itm == sub {
			c.RemoveCompoundAt(i)
			return
		}
	}
}

func (c *Compound) RemoveCompoundAt(idx int) {
	if idx < 0 || idx >= len(c.compounds) {
		return
	}
	sub := c.compounds[idx]
	c.compounds = append(c.compounds[:idx], c.compounds[idx+1:]...)
	sub.parent = nil
}

func (c *Compound) CompoundAt(idx int) *Compound {
	if idx < 0 || idx >= len(c.compounds) {
		return nil
	}
	return c.compounds[idx]
}

func (c *Compound) Compounds() []*Compound {
	return append([]*Compound{}, c.compounds...)
}

func (c *Compound) removeChild(n Node) {
	switch child := n.(type) {
	case *Segment:
		c.RemoveSegment(child)
	case *Compound:
		c.RemoveCompound(child)
	}
}

// At walks the segments then the compounds, i is rebased onto each child in
// turn
func (c *Compound) At(i int) *model.Color {
	if i < 0 {
		return nil
	}
	led := 0
	for _, s := range c.segments {
		size := s.Size()
		if led+size > i {
			return s.At(i - led)
		}
		led += size
	}
	for _, sub := range c.compounds {
		size := sub.Size()
		if led+size > i {
			return sub.At(i - led)
		}
		led += size
	}
	return nil
}

func (c *Compound) Size() (size int) {
	for _, s := range c.segments {
		size += s.Size()
	}
	for _, sub := range c.compounds {
		size += sub.Size()
	}
	return size
}

func (c *Compound) Dirty() {
	for _, s := range c.segments {
		s.Dirty()
	}
	for _, sub := range c.compounds {
		sub.Dirty()
	}
}

// Tick advances the compound's own action and then every child.  A halted
// compound freezes its whole subtree
func (c *Compound) Tick() {
	if c.halted || c.closed {
		return
	}
	c.advance()

	// effects may rearrange the tree, walk a snapshot
	for _, s := range c.Segments() {
		if s.parent == c {
			s.Tick()
		}
	}
	for _, sub := range c.Compounds() {
		if sub.parent == c {
			sub.Tick()
		}
	}
}

// Close hands the children back to the dispatcher before the compound goes
func (c *Compound) Close() {
	if c.closed {
		return
	}
	for len(c.segments) > 0 {
		c.RemoveSegmentAt(0)
	}
	for len(c.compounds) > 0 {
		c.RemoveCompoundAt(0)
	}
	c.close()
}
