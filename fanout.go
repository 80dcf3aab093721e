package ledaction

// This file contains a broadcaster for flushed frames.  Drivers, or hooks on
// them, push copies of their pixel buffers into it and every subscriber gets
// its own copy, slow subscribers are dropped rather than stalling the frame
// loop

import (
	"sync"
	"time"

	"github.com/TeamNorCal/ledaction/model"
)

// Frame is the content of one driver as of one flush
type Frame struct {
	Driver string        `json:"driver"`
	Pixels []model.Color `json:"pixels"`
}

type subs struct {
	subs []chan *Frame
	sync.Mutex
}

// StartFanOut starts the broadcaster.  Frames sent to inC are relayed to
// every channel sent to subC.  Subscribers that do not take a frame within
// the timeout are closed and forgotten
func StartFanOut(timeout time.Duration, quitC <-chan struct{}) (inC chan *Frame, subC chan chan *Frame) {

	inC = make(chan *Frame, 1)
	subC = make(chan chan *Frame, 1)

	listeners := &subs{
		subs: []chan *Frame{},
	}

	go func(quitC <-chan struct{}) {
		defer func() {
			listeners.Lock()
			for _, ch := range listeners.subs {
				close(ch)
			}
			listeners.subs = nil
			listeners.Unlock()
			logger.Debug("fanout stopped")
		}()
		for {
			select {
			case <-quitC:
				return
			case sub := <-subC:
				if nil != sub {
					listeners.Lock()
					listeners.subs = append(listeners.subs, sub)
					listeners.Unlock()
					logger.Debug("subscription added")
				}
			case frame := <-inC:
				if frame == nil {
					continue
				}
				// filtering without allocating, see
				// https://github.com/golang/go/wiki/SliceTricks#filtering-without-allocating
				listeners.Lock()
				kept := listeners.subs[:0]
				for _, ch := range listeners.subs {
					select {
					case ch <- frame:
						kept = append(kept, ch)
					case <-time.After(timeout):
						close(ch)
						logger.Debug("subscription dropped, failed to send", "driver", frame.Driver)
					}
				}
				listeners.subs = kept
				listeners.Unlock()
			}
		}
	}(quitC)

	return inC, subC
}

// PublishFlushes hooks every memory driver in drivers so that each flush is
// offered to inC.  Frames are dropped when the broadcaster is busy so the
// frame loop never waits on it
func PublishFlushes(drivers []Driver, inC chan<- *Frame) {
	for _, drv := range drivers {
		mem, ok := drv.(*MemDriver)
		if !ok {
			continue
		}
		mem.Lock()
		mem.OnFlush = func(name string, pixels []model.Color) {
			select {
			case inC <- &Frame{Driver: name, Pixels: pixels}:
			default:
			}
		}
		mem.Unlock()
	}
}
