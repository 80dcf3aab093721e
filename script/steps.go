package script

import (
	"context"
	"fmt"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/ledaction"
	"github.com/TeamNorCal/ledaction/effect"
	"github.com/TeamNorCal/ledaction/model"
)

type stepOptions struct {
	name       string
	duration   time.Duration
	singleShot bool
}

// Steps is a program made of layout steps.  Each run queues the steps on
// their targets in order, a step flagged wait holds the program until its
// action has ended while the whole rig keeps animating.  The run ends once
// every finite step has played.  A run made only of forever steps stays on
// screen until it is cancelled
type Steps struct {
	rig   *ledaction.Rig
	steps []model.StepSpec
}

// FromSteps checks that every step names a known target and a buildable
// effect
func FromSteps(rig *ledaction.Rig, steps []model.StepSpec) (p *Steps, err errors.Error) {
	for i, s := range steps {
		if rig.Node(s.Target) == nil {
			return nil, errors.New("unknown step target").With("step", i).With("target", s.Target).With("stack", stack.Trace().TrimRuntime())
		}
		if _, err = effect.Build(s); err != nil {
			return nil, err.With("step", i)
		}
	}
	return &Steps{
		rig:   rig,
		steps: append([]model.StepSpec{}, steps...),
	}, nil
}

func (p *Steps) Len() int {
	return len(p.steps)
}

func (p *Steps) Run(ctx context.Context, d *ledaction.Dispatcher) (errGo error) {
	frames := d.Stats().Frames
	queued := make([]*step, 0, len(p.steps))
	forever := []*step{}
	for i, s := range p.steps {
		if errGo = ctx.Err(); errGo != nil {
			return errors.Wrap(errGo).With("step", i).With("stack", stack.Trace().TrimRuntime())
		}
		e, err := effect.Build(s)
		if err != nil {
			return err.With("step", i)
		}
		st := queue(d, p.rig.Node(s.Target), e, stepOptions{
			name:       fmt.Sprintf("step %d %s", i, s.Effect),
			duration:   s.Duration,
			singleShot: s.SingleShot,
		})
		if s.Duration > 0 {
			queued = append(queued, st)
		} else {
			forever = append(forever, st)
		}
		if s.Wait && s.Duration > 0 {
			if err = waitEnded(ctx, d, []*step{st}); err != nil {
				return err.With("step", i)
			}
		}
	}
	if err := waitEnded(ctx, d, queued); err != nil {
		return err
	}
	return holdForever(ctx, d, forever, frames)
}
