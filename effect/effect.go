// Package effect holds the stock animations that can be attached to actions.
// Each effect value carries the state of one running action and must not be
// shared between actions
package effect

import (
	"github.com/TeamNorCal/ledaction"
	"github.com/TeamNorCal/ledaction/model"
)

// fill paints every pixel of n with c and marks n dirty
func fill(n ledaction.Node, c model.Color) {
	for i, sz := 0, n.Size(); i < sz; i++ {
		if px := n.At(i); px != nil {
			*px = c
		}
	}
	n.Dirty()
}

// snapshot copies the current pixels of n, missing pixels read as black
func snapshot(n ledaction.Node) (pixels []model.Color) {
	pixels = make([]model.Color, n.Size())
	for i := range pixels {
		if px := n.At(i); px != nil {
			pixels[i] = *px
		}
	}
	return pixels
}

// paint writes color(i) into every pixel of n that still exists and marks n
// dirty
func paint(n ledaction.Node, size int, color func(i int) model.Color) {
	for i := 0; i < size; i++ {
		if px := n.At(i); px != nil {
			*px = color(i)
		}
	}
	n.Dirty()
}

// Wait paints nothing, it only holds its container for its duration
type Wait struct{}

func (Wait) OnEvent(a *ledaction.Action, n ledaction.Node, ev ledaction.Event) {}

func (Wait) String() string {
	return "wait"
}
