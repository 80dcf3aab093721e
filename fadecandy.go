package ledaction

// This file contains the drivers for strips attached to fadecandy boards, or
// anything else that speaks the open pixel control protocol, over TCP.  One
// FadeCandy holds the connection to a server and hands out one OPCStrip per
// channel.  Frames that did not change since the last flush are skipped
// using a hash of the pixel buffer.
//
// Dialing and writing are done by a goroutine owned by the FadeCandy, a flush
// only leaves the newest message of its channel for that goroutine so a slow
// or missing server never holds up the frame loop

import (
	"bytes"
	"sync"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/cnf/structhash"

	"github.com/kellydunn/go-opc"

	"github.com/TeamNorCal/ledaction/model"
)

const (
	// opc messages carry at most 0xFFFF data bytes
	maxOPCPixels = 0xFFFF / 3

	reconnectBackoff = time.Second
)

// FadeCandy is a connection to an OPC server such as fcserver
type FadeCandy struct {
	server string

	// io serializes use of the client between Connect and the sender
	io     sync.Mutex
	client *opc.Client

	connected bool
	lastTry   time.Time
	pending   map[uint8]*opc.Message
	order     []uint8

	wakeC     chan struct{}
	quitC     chan struct{}
	closeOnce sync.Once
	sync.Mutex
}

// NewFadeCandy prepares a connection to server, host:port, and starts its
// sender.  The connection is opened by Connect or by the sender once the
// first frame is waiting
func NewFadeCandy(server string) (fc *FadeCandy) {
	fc = &FadeCandy{
		server:  server,
		client:  opc.NewClient(),
		pending: map[uint8]*opc.Message{},
		wakeC:   make(chan struct{}, 1),
		quitC:   make(chan struct{}),
	}
	go fc.run()
	return fc
}

func (fc *FadeCandy) Server() string {
	return fc.server
}

// Connect dials the server and waits for the outcome
func (fc *FadeCandy) Connect() (err errors.Error) {
	fc.Lock()
	fc.lastTry = time.Now()
	fc.Unlock()

	fc.io.Lock()
	errGo := fc.client.Connect("tcp", fc.server)
	fc.io.Unlock()

	fc.Lock()
	defer fc.Unlock()
	if errGo != nil {
		fc.connected = false
		return errors.Wrap(errGo).With("url", fc.server).With("stack", stack.Trace().TrimRuntime())
	}
	fc.connected = true
	fc.wake()
	logger.Info("fadecandy connected", "url", fc.server)
	return nil
}

// Connected is true while the last dial or send succeeded
func (fc *FadeCandy) Connected() bool {
	fc.Lock()
	defer fc.Unlock()
	return fc.connected
}

// Close stops the sender, messages not yet written are dropped
func (fc *FadeCandy) Close() (errGo error) {
	fc.closeOnce.Do(func() {
		close(fc.quitC)
	})
	return nil
}

func (fc *FadeCandy) wake() {
	select {
	case fc.wakeC <- struct{}{}:
	default:
	}
}

// health is nil while connected
func (fc *FadeCandy) health() (err errors.Error) {
	if fc.connected {
		return nil
	}
	return errors.New("fadecandy not connected").With("url", fc.server).With("stack", stack.Trace().TrimRuntime())
}

// queue replaces whatever the channel had waiting with m
func (fc *FadeCandy) queue(channel uint8, m *opc.Message) (err errors.Error) {
	fc.Lock()
	defer fc.Unlock()

	if _, isPresent := fc.pending[channel]; !isPresent {
		fc.order = append(fc.order, channel)
	}
	fc.pending[channel] = m
	fc.wake()

	return fc.health()
}

// take pops the oldest waiting message, nil when there is none
func (fc *FadeCandy) take() (channel uint8, m *opc.Message) {
	fc.Lock()
	defer fc.Unlock()

	if len(fc.order) == 0 {
		return 0, nil
	}
	channel = fc.order[0]
	fc.order = fc.order[1:]
	m = fc.pending[channel]
	delete(fc.pending, channel)
	return channel, m
}

// putBack requeues m after a failed send unless a newer frame arrived
func (fc *FadeCandy) putBack(channel uint8, m *opc.Message) {
	fc.Lock()
	defer fc.Unlock()

	if _, isPresent := fc.pending[channel]; isPresent {
		return
	}
	fc.order = append([]uint8{channel}, fc.order...)
	fc.pending[channel] = m
}

func (fc *FadeCandy) run() {
	for {
		select {
		case <-fc.quitC:
			return
		case <-fc.wakeC:
		case <-time.After(reconnectBackoff):
		}
		fc.pump()
	}
}

// pump dials when needed and writes every waiting message
func (fc *FadeCandy) pump() {
	fc.Lock()
	connected := fc.connected
	idle := len(fc.order) == 0
	// Dont hammer a server that is down
	backingOff := time.Since(fc.lastTry) < reconnectBackoff
	fc.Unlock()

	if !connected {
		if idle || backingOff {
			return
		}
		if err := fc.Connect(); err != nil {
			logger.Warn("fadecandy not reachable", "url", fc.server, "error", err.Error())
			return
		}
	}

	for {
		channel, m := fc.take()
		if m == nil {
			return
		}
		fc.io.Lock()
		errGo := fc.client.Send(m)
		fc.io.Unlock()

		if errGo != nil {
			fc.putBack(channel, m)
			fc.Lock()
			fc.connected = false
			fc.Unlock()
			logger.Warn("fadecandy send failed", "url", fc.server, "channel", channel, "error", errGo.Error())
			return
		}
	}
}

// Strip creates the driver for pixels LEDs wired to channel
func (fc *FadeCandy) Strip(channel uint8, pixels int) *OPCStrip {
	if pixels < 0 {
		pixels = 0
	}
	if pixels > maxOPCPixels {
		pixels = maxOPCPixels
	}
	return &OPCStrip{
		fc:      fc,
		channel: channel,
		buf:     make([]model.Color, pixels),
		last:    []byte{},
	}
}

// OPCStrip is one channel of a FadeCandy
type OPCStrip struct {
	fc      *FadeCandy
	channel uint8
	buf     []model.Color
	last    []byte
}

func (s *OPCStrip) Channel() uint8 {
	return s.channel
}

func (s *OPCStrip) Len() int {
	return len(s.buf)
}

func (s *OPCStrip) Pixel(i int) *model.Color {
	if i < 0 || i >= len(s.buf) {
		return nil
	}
	return &s.buf[i]
}

// Flush hands the buffer to the sender unless it is identical to the last
// one handed over.  It never waits on the network, a missing connection is
// reported while the frame stays queued for when the server is back
func (s *OPCStrip) Flush() (errGo error) {
	hash := structhash.Md5(s.buf, 1)
	if bytes.Equal(s.last, hash) {
		s.fc.Lock()
		err := s.fc.health()
		s.fc.Unlock()
		if err != nil {
			return err.With("channel", s.channel)
		}
		return nil
	}

	m := opc.NewMessage(s.channel)
	m.SetLength(uint16(len(s.buf) * 3))
	for i, c := range s.buf {
		m.SetPixelColor(i, c.R, c.G, c.B)
	}

	s.last = hash
	if err := s.fc.queue(s.channel, m); err != nil {
		return err.With("channel", s.channel)
	}
	return nil
}
