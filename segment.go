package ledaction

// This file contains the leaf of the addressing tree.  A segment is a run of
// pixels stitched together from one or more parts, each part a window onto
// a driver buffer.  Parts may come from different drivers so one segment can
// span several physical outputs

import (
	"github.com/TeamNorCal/ledaction/model"
)

// Part is Count pixels of Driver starting at pixel First
type Part struct {
	Driver Driver
	First  int
	Count  int
}

// Size is the number of pixels the part contributes
func (p Part) Size() int {
	if p.Count < 0 {
		return 0
	}
	return p.Count
}

// At returns pixel i of the part, nil when i lies outside the part or the
// driver is shorter than the part claims
func (p Part) At(i int) *model.Color {
	if p.Driver == nil || i < 0 || i >= p.Size() {
		return nil
	}
	return p.Driver.Pixel(p.First + i)
}

// Segment is a leaf node built from parts placed end to end
type Segment struct {
	node
	parts []Part
}

// NewSegment creates a segment and registers it with d as an independent
// root
func NewSegment(d *Dispatcher, name string, parts ...Part) (s *Segment) {
	s = &Segment{
		parts: append([]Part{}, parts...),
	}
	s.init(d, KindSegment, name, s)
	return s
}

// AddPart appends a part at the end of the segment
func (s *Segment) AddPart(p Part) {
	s.parts = append(s.parts, p)
}

func (s *Segment) RemovePartAt(idx int) {
	if idx < 0 || idx >= len(s.parts) {
		return
	}
	s.parts = append(s.parts[:idx], s.parts[idx+1:]...)
}

func (s *Segment) PartAt(idx int) (p Part, isPresent bool) {
	if idx < 0 || idx >= len(s.parts) {
		return p, false
	}
	return s.parts[idx], true
}

func (s *Segment) Parts() []Part {
	return append([]Part{}, s.parts...)
}

func (s *Segment) At(i int) *model.Color {
	if i < 0 {
		return nil
	}
	led := 0
	for _, p := range s.parts {
		if led+p.Size() > i {
			return p.At(i - led)
		}
		led += p.Size()
	}
	return nil
}

func (s *Segment) Size() (size int) {
	for _, p := range s.parts {
		size += p.Size()
	}
	return size
}

// Dirty marks the drivers behind every part, duplicates are folded by the
// dispatcher
func (s *Segment) Dirty() {
	for _, p := range s.parts {
		s.d.MarkDirty(p.Driver)
	}
}

func (s *Segment) Tick() {
	s.advance()
}

func (s *Segment) Close() {
	s.close()
}
