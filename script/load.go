package script

import (
	"os"
	"path"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/ledaction"
	"github.com/TeamNorCal/ledaction/model"
)

// Load picks the Lua script in file when one was named, otherwise the step
// list of the layout.  No program at all is not an error, the rig then runs
// whatever actions are added to it
func Load(rig *ledaction.Rig, layout *model.Layout, file string) (p ledaction.Program, err errors.Error) {
	if file != "" {
		src, errGo := os.ReadFile(file)
		if errGo != nil {
			return nil, errors.Wrap(errGo).With("file", file).With("stack", stack.Trace().TrimRuntime())
		}
		lp, err := LoadLua(rig, path.Base(file), string(src))
		if err != nil {
			return nil, err
		}
		return lp, nil
	}
	if layout == nil || len(layout.Program) == 0 {
		return nil, nil
	}
	steps, err := FromSteps(rig, layout.Program)
	if err != nil {
		return nil, err
	}
	return steps, nil
}
