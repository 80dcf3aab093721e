package ledaction

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TeamNorCal/ledaction/model"
)

// opcServer accepts one client and hands every message body it reads to msgC
func opcServer(t *testing.T) (addr string, msgC chan []byte) {
	ln, errGo := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, errGo)
	t.Cleanup(func() { ln.Close() })

	msgC = make(chan []byte, 8)
	go func() {
		defer close(msgC)
		conn, errGo := ln.Accept()
		if errGo != nil {
			return
		}
		defer conn.Close()
		for {
			header := make([]byte, 4)
			if _, errGo = io.ReadFull(conn, header); errGo != nil {
				return
			}
			body := make([]byte, int(header[2])<<8|int(header[3]))
			if _, errGo = io.ReadFull(conn, body); errGo != nil {
				return
			}
			msgC <- append(header, body...)
		}
	}()
	return ln.Addr().String(), msgC
}

func TestFadeCandy(t *testing.T) {
	t.Run("frames reach the server", func(t *testing.T) {
		addr, msgC := opcServer(t)
		fc := NewFadeCandy(addr)
		t.Cleanup(func() { fc.Close() })
		require.NoError(t, fc.Connect())
		assert.True(t, fc.Connected())

		strip := fc.Strip(2, 3)
		assert.Equal(t, uint8(2), strip.Channel())
		assert.Equal(t, 3, strip.Len())
		assert.Nil(t, strip.Pixel(3))

		*strip.Pixel(0) = model.Red
		*strip.Pixel(2) = model.RGB(0x010203)
		require.NoError(t, strip.Flush())

		msg := <-msgC
		assert.Equal(t, []byte{2, 0, 0, 9, 0xFF, 0, 0, 0, 0, 0, 1, 2, 3}, msg)
	})

	t.Run("unchanged frames are skipped", func(t *testing.T) {
		addr, msgC := opcServer(t)
		fc := NewFadeCandy(addr)
		t.Cleanup(func() { fc.Close() })
		require.NoError(t, fc.Connect())

		strip := fc.Strip(0, 1)
		*strip.Pixel(0) = model.Green
		require.NoError(t, strip.Flush())
		assert.Equal(t, []byte{0, 0, 0, 3, 0, 0xFF, 0}, <-msgC)

		require.NoError(t, strip.Flush())
		*strip.Pixel(0) = model.Blue
		require.NoError(t, strip.Flush())
		assert.Equal(t, []byte{0, 0, 0, 3, 0, 0, 0xFF}, <-msgC)
	})

	t.Run("missing servers are reported", func(t *testing.T) {
		ln, errGo := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, errGo)
		addr := ln.Addr().String()
		ln.Close()

		fc := NewFadeCandy(addr)
		t.Cleanup(func() { fc.Close() })
		assert.Equal(t, addr, fc.Server())
		assert.Error(t, fc.Connect())
		assert.False(t, fc.Connected())

		strip := fc.Strip(0, 4)
		assert.Error(t, strip.Flush())
		assert.Error(t, strip.Flush())
	})

	t.Run("flushes leave dialing to the sender", func(t *testing.T) {
		addr, msgC := opcServer(t)
		fc := NewFadeCandy(addr)
		t.Cleanup(func() { fc.Close() })

		strip := fc.Strip(1, 1)
		*strip.Pixel(0) = model.Red

		start := time.Now()
		assert.Error(t, strip.Flush(), "nothing is connected yet")
		assert.Less(t, time.Since(start), 100*time.Millisecond)

		// the queued frame goes out once the sender has dialed
		select {
		case msg := <-msgC:
			assert.Equal(t, []byte{1, 0, 0, 3, 0xFF, 0, 0}, msg)
		case <-time.After(5 * time.Second):
			require.Fail(t, "frame never reached the server")
		}
		assert.True(t, fc.Connected())
		assert.NoError(t, strip.Flush())
	})
}

type fakeBus struct {
	writes [][]byte
	closed bool
}

func (b *fakeBus) Write(p []byte) (int, error) {
	b.writes = append(b.writes, append([]byte{}, p...))
	return len(p), nil
}

func (b *fakeBus) Close() error {
	b.closed = true
	return nil
}

func TestAPA102(t *testing.T) {
	t.Run("encoding", func(t *testing.T) {
		frame := EncodeAPA102(nil, []model.Color{{R: 1, G: 2, B: 3}, model.White}, 0x10)
		assert.Equal(t, []byte{
			0, 0, 0, 0,
			0xF0, 3, 2, 1,
			0xF0, 0xFF, 0xFF, 0xFF,
			0xFF, 0xFF, 0xFF, 0xFF,
		}, frame)

		long := EncodeAPA102(nil, make([]model.Color, 100), apa102MaxBrightness)
		assert.Len(t, long, 4+100*4+7)
	})

	t.Run("strip", func(t *testing.T) {
		bus := &fakeBus{}
		strip := newSPIStrip("/dev/spidev0.0", bus, 2)
		assert.Equal(t, "/dev/spidev0.0", strip.Device())
		assert.Equal(t, 2, strip.Len())
		assert.Nil(t, strip.Pixel(-1))

		strip.SetBrightness(0xFF)
		*strip.Pixel(1) = model.Red
		require.NoError(t, strip.Flush())
		require.Len(t, bus.writes, 1)
		assert.Equal(t, []byte{0xFF, 0, 0, 0xFF}, bus.writes[0][8:12])

		require.NoError(t, strip.Close())
		assert.True(t, bus.closed)
	})
}
