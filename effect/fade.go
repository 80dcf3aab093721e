package effect

// Transitions that start from whatever the pixels show when the action
// starts

import (
	"fmt"
	"sort"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/tanema/gween/ease"

	"github.com/TeamNorCal/ledaction"
	"github.com/TeamNorCal/ledaction/model"
)

// Fade dims the pixels from their current brightness down, or up, to
// Brightness percent of it by the end of the action
type Fade struct {
	Brightness int

	from []model.Color
}

func NewFade(brightness int) *Fade {
	if brightness < 0 {
		brightness = 0
	}
	if brightness > 100 {
		brightness = 100
	}
	return &Fade{Brightness: brightness}
}

func (e *Fade) OnEvent(a *ledaction.Action, n ledaction.Node, ev ledaction.Event) {
	switch ev {
	case ledaction.Start:
		e.from = snapshot(n)
		return
	case ledaction.Tick:
		e.scale(n, a.Progress())
	case ledaction.End:
		e.scale(n, 1)
	}
}

func (e *Fade) scale(n ledaction.Node, progress float64) {
	level := 1 - (1-float64(e.Brightness)/100)*progress
	paint(n, len(e.from), func(i int) model.Color {
		return e.from[i].Scale(level)
	})
}

func (e *Fade) String() string {
	return fmt.Sprintf("fade to %d%%", e.Brightness)
}

var (
	curves = map[string]ease.TweenFunc{
		"linear":       ease.Linear,
		"in-quad":      ease.InQuad,
		"out-quad":     ease.OutQuad,
		"in-out-quad":  ease.InOutQuad,
		"in-cubic":     ease.InCubic,
		"out-cubic":    ease.OutCubic,
		"in-out-cubic": ease.InOutCubic,
		"in-out-quart": ease.InOutQuart,
		"in-out-sine":  ease.InOutSine,
		"in-out-expo":  ease.InOutExpo,
		"in-out-circ":  ease.InOutCirc,
		"out-bounce":   ease.OutBounce,
	}
)

// DefaultCurve is the easing used when none is named
const DefaultCurve = "in-out-quad"

// Curves lists the easing curve names EaseInOut accepts
func Curves() (names []string) {
	for name := range curves {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EaseInOut moves every pixel from its color at the start of the action to
// To following an easing curve
type EaseInOut struct {
	To    model.Color
	Curve string

	curve ease.TweenFunc
	from  []model.Color
}

// NewEaseInOut looks up the named curve, an empty name selects DefaultCurve
func NewEaseInOut(to model.Color, curve string) (e *EaseInOut, err errors.Error) {
	if curve == "" {
		curve = DefaultCurve
	}
	fn, isPresent := curves[curve]
	if !isPresent {
		return nil, errors.New("unknown easing curve").With("curve", curve).With("stack", stack.Trace().TrimRuntime())
	}
	return &EaseInOut{
		To:    to,
		Curve: curve,
		curve: fn,
	}, nil
}

func (e *EaseInOut) OnEvent(a *ledaction.Action, n ledaction.Node, ev ledaction.Event) {
	switch ev {
	case ledaction.Start:
		e.from = snapshot(n)
	case ledaction.Tick:
		fn := e.curve
		if fn == nil {
			fn = ease.Linear
		}
		t := float64(fn(float32(a.Progress()), 0, 1, 1))
		paint(n, len(e.from), func(i int) model.Color {
			return e.from[i].Lerp(e.To, t)
		})
	case ledaction.End:
		fill(n, e.To)
	}
}

func (e *EaseInOut) String() string {
	return fmt.Sprintf("ease %s to %s", e.Curve, e.To)
}
