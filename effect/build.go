package effect

// Build turns the effect names used in layout programs and scripts into
// effect values

import (
	"strings"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/ledaction"
	"github.com/TeamNorCal/ledaction/model"
)

// Names of the effects Build understands
const (
	NameWait   = "wait"
	NameColor  = "color"
	NameDark   = "dark"
	NameLadder = "ladder"
	NameGoto   = "goto"
	NameFade   = "fade"
	NameEase   = "ease"
	NameSnake  = "snake"
)

// Build creates the effect a step names, colors are given as hex strings
func Build(step model.StepSpec) (e ledaction.Effect, err errors.Error) {
	colors, err := parseColors(step.Colors)
	if err != nil {
		return nil, err.With("effect", step.Effect)
	}

	need := func(count int) errors.Error {
		if len(colors) < count {
			return errors.New("effect needs more colors").With("effect", step.Effect).
				With("needed", count).With("given", len(colors)).With("stack", stack.Trace().TrimRuntime())
		}
		return nil
	}

	switch strings.ToLower(step.Effect) {
	case NameWait:
		return Wait{}, nil
	case NameColor:
		if err = need(1); err != nil {
			return nil, err
		}
		return &Color{Color: colors[0]}, nil
	case NameDark:
		return Dark(), nil
	case NameLadder:
		if err = need(2); err != nil {
			return nil, err
		}
		return &ColorLadder{Left: colors[0], Right: colors[1]}, nil
	case NameGoto:
		if err = need(2); err != nil {
			return nil, err
		}
		return &GotoColor{From: colors[0], To: colors[1]}, nil
	case NameFade:
		return NewFade(step.Brightness), nil
	case NameEase:
		if err = need(1); err != nil {
			return nil, err
		}
		ease, err := NewEaseInOut(colors[0], step.Ease)
		if err != nil {
			return nil, err
		}
		return ease, nil
	case NameSnake:
		if err = need(2); err != nil {
			return nil, err
		}
		return &Snake{Base: colors[0], Head: colors[1], Reversed: step.Reversed, Keep: step.KeepColor}, nil
	}
	return nil, errors.New("unknown effect").With("effect", step.Effect).With("stack", stack.Trace().TrimRuntime())
}

func parseColors(hexes []string) (colors []model.Color, err errors.Error) {
	colors = make([]model.Color, 0, len(hexes))
	for _, hex := range hexes {
		c, err := model.ParseHex(hex)
		if err != nil {
			return nil, err
		}
		colors = append(colors, c)
	}
	return colors, nil
}
