package ledaction

// This file contains the wiring that turns a layout description into live
// drivers, segments and compounds registered with a dispatcher.  Drivers are
// created through factories looked up by the kind named in the layout so
// additional hardware can be plugged in without touching the rig

import (
	"io"
	"sort"
	"sync"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/ledaction/model"
)

// DriverFactory builds the driver described by spec for r
type DriverFactory func(r *Rig, spec model.DriverSpec) (drv Driver, err errors.Error)

var (
	driverKinds = map[string]DriverFactory{
		model.DriverMemory: memoryDriver,
		model.DriverOPC:    opcDriver,
		model.DriverSPI:    spiDriver,
	}
	kindsLock sync.Mutex
)

// RegisterDriverKind makes kind usable in layouts, an existing factory for
// the same kind is replaced
func RegisterDriverKind(kind string, factory DriverFactory) {
	kindsLock.Lock()
	defer kindsLock.Unlock()
	if factory == nil {
		delete(driverKinds, kind)
		return
	}
	driverKinds[kind] = factory
}

// DriverKinds lists the registered kinds in name order
func DriverKinds() (kinds []string) {
	kindsLock.Lock()
	defer kindsLock.Unlock()
	for k := range driverKinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func driverFactory(kind string) (factory DriverFactory, isPresent bool) {
	kindsLock.Lock()
	defer kindsLock.Unlock()
	factory, isPresent = driverKinds[kind]
	return factory, isPresent
}

func memoryDriver(r *Rig, spec model.DriverSpec) (drv Driver, err errors.Error) {
	return NewMemDriver(spec.Name, spec.Pixels), nil
}

// opcDriver shares one connection between all channels of the same server
func opcDriver(r *Rig, spec model.DriverSpec) (drv Driver, err errors.Error) {
	fc, isPresent := r.servers[spec.Server]
	if !isPresent {
		fc = NewFadeCandy(spec.Server)
		// dialed by its sender once the first frame is waiting
		r.servers[spec.Server] = fc
	}
	return fc.Strip(spec.Channel, spec.Pixels), nil
}

func spiDriver(r *Rig, spec model.DriverSpec) (drv Driver, err errors.Error) {
	s, err := OpenSPIStrip(spec.Device, spec.Pixels, spec.SpeedHz)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Rig is a layout brought to life
type Rig struct {
	d      *Dispatcher
	layout *model.Layout

	drivers   map[string]Driver
	segments  map[string]*Segment
	compounds map[string]*Compound
	servers   map[string]*FadeCandy
}

// NewRig validates layout and builds it on d.  Nodes are registered in layout
// order, segments first
func NewRig(d *Dispatcher, layout *model.Layout) (r *Rig, err errors.Error) {
	if layout == nil {
		return nil, errors.New("layout missing").With("stack", stack.Trace().TrimRuntime())
	}
	if err = layout.Validate(); err != nil {
		return nil, err
	}

	r = &Rig{
		d:         d,
		layout:    layout.DeepCopy(),
		drivers:   map[string]Driver{},
		segments:  map[string]*Segment{},
		compounds: map[string]*Compound{},
		servers:   map[string]*FadeCandy{},
	}

	for _, spec := range r.layout.Drivers {
		factory, isPresent := driverFactory(spec.Kind)
		if !isPresent {
			r.Close()
			return nil, errors.New("unknown driver kind").With("driver", spec.Name).With("kind", spec.Kind).With("stack", stack.Trace().TrimRuntime())
		}
		drv, err := factory(r, spec)
		if err != nil {
			r.Close()
			return nil, err.With("driver", spec.Name)
		}
		r.drivers[spec.Name] = drv
	}

	for _, spec := range r.layout.Segments {
		s := NewSegment(d, spec.Name)
		for _, p := range spec.Parts {
			s.AddPart(Part{Driver: r.drivers[p.Driver], First: p.First, Count: p.Count})
		}
		r.segments[spec.Name] = s
	}

	for _, spec := range r.layout.Compounds {
		r.compounds[spec.Name] = NewCompound(d, spec.Name)
	}
	for _, spec := range r.layout.Compounds {
		c := r.compounds[spec.Name]
		for _, name := range spec.Segments {
			c.AddSegment(r.segments[name])
		}
		for _, name := range spec.Compounds {
			c.AddCompound(r.compounds[name])
		}
	}

	logger.Debug("rig built", "drivers", len(r.drivers), "segments", len(r.segments), "compounds", len(r.compounds))
	return r, nil
}

func (r *Rig) Dispatcher() *Dispatcher {
	return r.d
}

// Layout returns a copy of the layout the rig was built from
func (r *Rig) Layout() *model.Layout {
	return r.layout.DeepCopy()
}

func (r *Rig) Driver(name string) Driver {
	return r.drivers[name]
}

// Drivers returns the drivers in layout order
func (r *Rig) Drivers() (drivers []Driver) {
	drivers = make([]Driver, 0, len(r.layout.Drivers))
	for _, spec := range r.layout.Drivers {
		if drv, isPresent := r.drivers[spec.Name]; isPresent {
			drivers = append(drivers, drv)
		}
	}
	return drivers
}

func (r *Rig) Segment(name string) *Segment {
	return r.segments[name]
}

func (r *Rig) Compound(name string) *Compound {
	return r.compounds[name]
}

// Node finds a segment or compound by name, nil when neither exists
func (r *Rig) Node(name string) Node {
	if s, isPresent := r.segments[name]; isPresent {
		return s
	}
	if c, isPresent := r.compounds[name]; isPresent {
		return c
	}
	return nil
}

// Close unregisters every node and releases drivers holding devices
func (r *Rig) Close() {
	for _, c := range r.compounds {
		c.Close()
	}
	for _, s := range r.segments {
		s.Close()
	}
	for name, drv := range r.drivers {
		closer, ok := drv.(io.Closer)
		if !ok {
			continue
		}
		if errGo := closer.Close(); errGo != nil {
			logger.Warn("driver close failed", "driver", name, "error", errGo.Error())
		}
	}
	for _, fc := range r.servers {
		fc.Close()
	}
	r.compounds = map[string]*Compound{}
	r.segments = map[string]*Segment{}
	r.servers = map[string]*FadeCandy{}
}
