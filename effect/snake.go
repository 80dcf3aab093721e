package effect

import (
	"fmt"
	"time"

	"github.com/TeamNorCal/ledaction"
	"github.com/TeamNorCal/ledaction/model"
)

// Snake runs a single Head colored pixel from one end of the range to the
// other over the duration of the action, the rest shows Base.  With Keep the
// pixels the head has passed keep its color.  Reversed runs from the last
// pixel to the first
type Snake struct {
	Base     model.Color
	Head     model.Color
	Reversed bool
	Keep     bool

	idx int
}

func (e *Snake) OnEvent(a *ledaction.Action, n ledaction.Node, ev ledaction.Event) {
	size := n.Size()
	if size == 0 {
		return
	}
	last := size - 1

	switch ev {
	case ledaction.Start:
		// one step per pixel, a single pixel is shown for the whole duration.
		// Forever actions keep their interval
		switch {
		case a.Duration() == 0:
		case last > 0:
			a.SetInterval(a.Duration() / time.Duration(last))
		default:
			a.SetInterval(a.Duration())
		}
		e.idx = e.first(last)
	case ledaction.Tick:
		if e.idx == e.final(last) {
			return
		}
		if e.Reversed {
			e.idx--
		} else {
			e.idx++
		}
	case ledaction.End:
		e.idx = e.final(last)
	}
	if e.idx > last {
		e.idx = last
	}

	paint(n, size, func(i int) model.Color {
		if i == e.idx || (e.Keep && e.passed(i)) {
			return e.Head
		}
		return e.Base
	})
}

func (e *Snake) first(last int) int {
	if e.Reversed {
		return last
	}
	return 0
}

func (e *Snake) final(last int) int {
	if e.Reversed {
		return 0
	}
	return last
}

func (e *Snake) passed(i int) bool {
	if e.Reversed {
		return i > e.idx
	}
	return i < e.idx
}

func (e *Snake) String() string {
	return fmt.Sprintf("snake %s over %s", e.Head, e.Base)
}
