package effect

// Solid fills, gradients and plain color transitions

import (
	"fmt"

	"github.com/TeamNorCal/ledaction"
	"github.com/TeamNorCal/ledaction/model"
)

// Color sets every pixel once when the action starts
type Color struct {
	Color model.Color
}

func (e *Color) OnEvent(a *ledaction.Action, n ledaction.Node, ev ledaction.Event) {
	if ev == ledaction.Start {
		fill(n, e.Color)
	}
}

func (e *Color) String() string {
	return fmt.Sprintf("color %s", e.Color)
}

// Dark turns every pixel off
func Dark() *Color {
	return &Color{Color: model.Black}
}

// ColorLadder spreads a gradient from Left on the first pixel to Right on
// the last one when the action starts.  Colors are blended in Lab space so
// the steps look even
type ColorLadder struct {
	Left  model.Color
	Right model.Color
}

func (e *ColorLadder) OnEvent(a *ledaction.Action, n ledaction.Node, ev ledaction.Event) {
	if ev != ledaction.Start {
		return
	}
	size := n.Size()
	if size == 1 {
		fill(n, e.Left)
		return
	}
	paint(n, size, func(i int) model.Color {
		return e.Left.Blend(e.Right, float64(i)/float64(size-1))
	})
}

func (e *ColorLadder) String() string {
	return fmt.Sprintf("ladder %s..%s", e.Left, e.Right)
}

// GotoColor moves all pixels from one color to another over the duration of
// the action, linearly per channel
type GotoColor struct {
	From model.Color
	To   model.Color
}

func (e *GotoColor) OnEvent(a *ledaction.Action, n ledaction.Node, ev ledaction.Event) {
	switch ev {
	case ledaction.Start:
		fill(n, e.From)
	case ledaction.Tick:
		fill(n, e.From.Lerp(e.To, a.Progress()))
	case ledaction.End:
		fill(n, e.To)
	}
}

func (e *GotoColor) String() string {
	return fmt.Sprintf("goto %s..%s", e.From, e.To)
}
