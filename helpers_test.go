package ledaction

import (
	"fmt"
	"time"

	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/ledaction/model"
)

const testStep = 10 * time.Millisecond

// newTestDispatcher uses a manual clock that moves testStep every time the
// engine yields
func newTestDispatcher(opts ...Option) (d *Dispatcher, clock *ManualClock) {
	clock = &ManualClock{}
	base := []Option{
		WithClock(clock),
		WithYield(func() { clock.Advance(testStep) }),
	}
	return NewDispatcher(append(base, opts...)...), clock
}

// recorder logs every event it sees as "name:event"
type recorder struct {
	name string
	log  *[]string
}

func (r *recorder) OnEvent(a *Action, n Node, ev Event) {
	*r.log = append(*r.log, fmt.Sprintf("%s:%s", r.name, ev))
}

// filler paints its node with a color on Start
type filler struct {
	color model.Color
}

func (f *filler) OnEvent(a *Action, n Node, ev Event) {
	if ev != Start {
		return
	}
	for i := 0; i < n.Size(); i++ {
		*n.At(i) = f.color
	}
	n.Dirty()
}

type brokenDriver struct {
	*MemDriver
}

func (b *brokenDriver) Flush() error {
	b.MemDriver.Flush()
	return errors.New("cable unplugged")
}
