package model

// This module defines implementation neutral descriptions of the physical
// LED installation, how it is carved into segments and compounds, and an
// optional list of animation steps to play on it

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"gopkg.in/yaml.v3"
)

const (
	DriverMemory = "memory"
	DriverOPC    = "opc"
	DriverSPI    = "spidev"
)

// DriverSpec describes one physical output, a single data pin in the
// LED controller sense
type DriverSpec struct {
	Name    string `yaml:"name" json:"name"`
	Kind    string `yaml:"kind" json:"kind"` // memory, opc or spidev
	Pixels  int    `yaml:"pixels" json:"pixels"`
	Server  string `yaml:"server,omitempty" json:"server,omitempty"`   // opc host:port
	Channel uint8  `yaml:"channel,omitempty" json:"channel,omitempty"` // opc channel
	Device  string `yaml:"device,omitempty" json:"device,omitempty"`   // /dev/spidevX.Y
	SpeedHz int    `yaml:"speed_hz,omitempty" json:"speed_hz,omitempty"`
}

// PartSpec selects Count pixels of a driver starting at First
type PartSpec struct {
	Driver string `yaml:"driver" json:"driver"`
	First  int    `yaml:"first" json:"first"`
	Count  int    `yaml:"count" json:"count"`
}

type SegmentSpec struct {
	Name  string     `yaml:"name" json:"name"`
	Parts []PartSpec `yaml:"parts" json:"parts"`
}

type CompoundSpec struct {
	Name      string   `yaml:"name" json:"name"`
	Segments  []string `yaml:"segments,omitempty" json:"segments,omitempty"`
	Compounds []string `yaml:"compounds,omitempty" json:"compounds,omitempty"`
}

// StepSpec is a single program step, an effect queued on a named segment or
// compound. Which of the optional fields matter depends on the effect.
type StepSpec struct {
	Target     string        `yaml:"target" json:"target"`
	Effect     string        `yaml:"effect" json:"effect"`
	Duration   time.Duration `yaml:"duration" json:"duration"`
	Colors     []string      `yaml:"colors,omitempty" json:"colors,omitempty"`
	Brightness int           `yaml:"brightness,omitempty" json:"brightness,omitempty"` // fade, percent
	Ease       string        `yaml:"ease,omitempty" json:"ease,omitempty"`
	Reversed   bool          `yaml:"reversed,omitempty" json:"reversed,omitempty"`
	KeepColor  bool          `yaml:"keep_color,omitempty" json:"keep_color,omitempty"`
	SingleShot bool          `yaml:"single_shot,omitempty" json:"single_shot,omitempty"`
	Wait       bool          `yaml:"wait,omitempty" json:"wait,omitempty"`
}

type Layout struct {
	Drivers   []DriverSpec   `yaml:"drivers" json:"drivers"`
	Segments  []SegmentSpec  `yaml:"segments" json:"segments"`
	Compounds []CompoundSpec `yaml:"compounds,omitempty" json:"compounds,omitempty"`
	Program   []StepSpec     `yaml:"program,omitempty" json:"program,omitempty"`
	Runs      int            `yaml:"runs,omitempty" json:"runs,omitempty"` // 0 or less repeats forever
}

// DefaultLayout is a single 30 pixel strip held in memory
func DefaultLayout() Layout {
	return Layout{
		Drivers: []DriverSpec{
			{Name: "strip", Kind: DriverMemory, Pixels: 30},
		},
		Segments: []SegmentSpec{
			{Name: "strip", Parts: []PartSpec{{Driver: "strip", First: 0, Count: 30}}},
		},
	}
}

// LoadLayout reads and validates a YAML layout file
func LoadLayout(fn string) (layout *Layout, err errors.Error) {
	data, errGo := os.ReadFile(fn)
	if errGo != nil {
		return nil, errors.Wrap(errGo).With("file", fn).With("stack", stack.Trace().TrimRuntime())
	}
	if layout, err = ParseLayout(data); err != nil {
		return nil, err.With("file", fn)
	}
	return layout, nil
}

// ParseLayout decodes YAML layout data and validates it
func ParseLayout(data []byte) (layout *Layout, err errors.Error) {
	layout = &Layout{}
	if errGo := yaml.Unmarshal(data, layout); errGo != nil {
		return nil, errors.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}
	if err = layout.Validate(); err != nil {
		return nil, err
	}
	return layout, nil
}

// Validate checks names are unique, references resolve, parts fit inside
// their drivers and that compounds do not contain themselves
func (l *Layout) Validate() (err errors.Error) {
	drivers := map[string]DriverSpec{}
	for _, d := range l.Drivers {
		if _, isPresent := drivers[d.Name]; isPresent || d.Name == "" {
			return errors.New("driver name missing or duplicated").With("driver", d.Name).With("stack", stack.Trace().TrimRuntime())
		}
		if d.Pixels <= 0 {
			return errors.New("driver has no pixels").With("driver", d.Name).With("stack", stack.Trace().TrimRuntime())
		}
		// kinds are open ended, the rig rejects the ones nobody registered
		if d.Kind == "" {
			return errors.New("driver kind missing").With("driver", d.Name).With("stack", stack.Trace().TrimRuntime())
		}
		if d.Kind == DriverOPC && d.Server == "" {
			return errors.New("opc driver needs a server").With("driver", d.Name).With("stack", stack.Trace().TrimRuntime())
		}
		if d.Kind == DriverSPI && d.Device == "" {
			return errors.New("spidev driver needs a device").With("driver", d.Name).With("stack", stack.Trace().TrimRuntime())
		}
		drivers[d.Name] = d
	}

	names := map[string]bool{}
	for _, s := range l.Segments {
		if names[s.Name] || s.Name == "" {
			return errors.New("segment name missing or duplicated").With("segment", s.Name).With("stack", stack.Trace().TrimRuntime())
		}
		names[s.Name] = true
		for i, p := range s.Parts {
			d, isPresent := drivers[p.Driver]
			if !isPresent {
				return errors.New("unknown driver").With("segment", s.Name).With("driver", p.Driver).With("stack", stack.Trace().TrimRuntime())
			}
			if p.First < 0 || p.Count <= 0 || p.First+p.Count > d.Pixels {
				return errors.New("part outside of driver range").With("segment", s.Name).With("part", i).
					With("first", p.First).With("count", p.Count).With("pixels", d.Pixels).With("stack", stack.Trace().TrimRuntime())
			}
		}
	}

	compounds := map[string]CompoundSpec{}
	for _, c := range l.Compounds {
		if names[c.Name] || c.Name == "" {
			return errors.New("compound name missing or duplicated").With("compound", c.Name).With("stack", stack.Trace().TrimRuntime())
		}
		names[c.Name] = true
		compounds[c.Name] = c
	}
	for _, c := range l.Compounds {
		for _, seg := range c.Segments {
			if _, isPresent := compounds[seg]; isPresent || !names[seg] {
				return errors.New("unknown segment").With("compound", c.Name).With("segment", seg).With("stack", stack.Trace().TrimRuntime())
			}
		}
		for _, sub := range c.Compounds {
			if _, isPresent := compounds[sub]; !isPresent {
				return errors.New("unknown compound").With("compound", c.Name).With("child", sub).With("stack", stack.Trace().TrimRuntime())
			}
		}
		if containsCompound(compounds, c.Name, c.Name, map[string]bool{}) {
			return errors.New("compound contains itself").With("compound", c.Name).With("stack", stack.Trace().TrimRuntime())
		}
	}

	for i, step := range l.Program {
		if !names[step.Target] {
			return errors.New("unknown step target").With("step", i).With("target", step.Target).With("stack", stack.Trace().TrimRuntime())
		}
		if step.Duration < 0 {
			return errors.New("negative step duration").With("step", i).With("stack", stack.Trace().TrimRuntime())
		}
	}
	return nil
}

func containsCompound(compounds map[string]CompoundSpec, from string, target string, seen map[string]bool) bool {
	if seen[from] {
		return false
	}
	seen[from] = true
	for _, sub := range compounds[from].Compounds {
		if sub == target || containsCompound(compounds, sub, target, seen) {
			return true
		}
	}
	return false
}

// DriverNamed returns the spec for the named driver
func (l *Layout) DriverNamed(name string) (spec DriverSpec, isPresent bool) {
	for _, d := range l.Drivers {
		if d.Name == name {
			return d, true
		}
	}
	return spec, false
}

func (s StepSpec) String() string {
	return fmt.Sprintf("%s on %s for %v", s.Effect, s.Target, s.Duration)
}

// DeepCopy deepcopies a layout using json marshaling
func (l *Layout) DeepCopy() (cpy *Layout) {
	cpy = &Layout{}

	byt, _ := json.Marshal(l)
	json.Unmarshal(byt, cpy)
	return cpy
}
