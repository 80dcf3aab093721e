package main

// The simulator plays a layout and its program on in memory drivers and
// streams every flushed frame to browsers over a websocket, so animations can
// be worked on without any LED hardware attached

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/karlmutch/errors"

	"github.com/gorilla/websocket"

	logxi "github.com/mgutz/logxi/v1"

	"github.com/TeamNorCal/ledaction"
	"github.com/TeamNorCal/ledaction/model"
	"github.com/TeamNorCal/ledaction/script"

	"github.com/karlmutch/envflag"
)

var (
	listen     = flag.String("listen", ":8080", "Address to bind to")
	layoutFile = flag.String("layout", "", "YAML layout to simulate, a single 30 pixel strip when empty")
	scriptFile = flag.String("script", "", "Lua program to play instead of the program found in the layout")
	remote     = flag.Bool("remote", false, "Enable remote reloading of the layout and program using POST /reload")
	scale      = flag.Float64("scale", 1, "factor by which to accelerate the relative rate of the clock")
	verbose    = flag.Bool("v", false, "When enabled will print internal logging for this tool")

	// create Logger interface
	logW = logxi.NewLogger(logxi.NewConcurrentWriter(os.Stdout), "ledaction-simulator")

	// This channel forces an immediate reload of the layout and program
	forcedLoad = make(chan bool, 1)

	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}
)

// scaledClock runs the system clock faster, or slower, by a constant factor
type scaledClock struct {
	origin time.Time
	scale  float64
}

func (c *scaledClock) Now() time.Duration {
	return time.Duration(float64(time.Since(c.origin)) * c.scale)
}

// frameJSON is what browsers receive, one hex string per pixel
type frameJSON struct {
	Driver string   `json:"driver"`
	Pixels []string `json:"pixels"`
}

func main() {

	if !flag.Parsed() {
		envflag.Parse()
	}

	if *verbose {
		logW.SetLevel(logxi.LevelDebug)
		ledaction.SetVerbose(true)
	}

	if *scale <= 0 {
		logW.Fatal("scale must be positive", "scale", *scale)
		os.Exit(-1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	quitC := make(chan struct{})
	defer close(quitC)

	inC, subC := ledaction.StartFanOut(250*time.Millisecond, quitC)

	go runEngine(ctx, inC)

	mux := http.NewServeMux()
	mux.HandleFunc("/", serveIndex)
	mux.HandleFunc("/frames", func(w http.ResponseWriter, r *http.Request) {
		serveFrames(w, r, subC)
	})
	mux.HandleFunc("/reload", serveReload)

	srv := &http.Server{Addr: *listen, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	logW.Info("simulator listening", "address", *listen)
	if errGo := srv.ListenAndServe(); errGo != nil && errGo != http.ErrServerClosed {
		logW.Warn(errGo.Error())
	}
}

// memoryLayout loads the layout and swaps every driver for an in memory one
// of the same size
func memoryLayout() (layout *model.Layout, err errors.Error) {
	if *layoutFile == "" {
		l := model.DefaultLayout()
		return &l, nil
	}
	if layout, err = model.LoadLayout(*layoutFile); err != nil {
		return nil, err
	}
	layout = layout.DeepCopy()
	for i := range layout.Drivers {
		layout.Drivers[i].Kind = model.DriverMemory
	}
	return layout, nil
}

// runEngine owns the dispatcher, it rebuilds everything on every reload
func runEngine(ctx context.Context, inC chan<- *ledaction.Frame) {

	settings, err := ledaction.LoadSettings()
	if err != nil {
		logW.Warn("settings could not be loaded, using defaults", "error", err.Error())
		settings, _ = ledaction.SettingsFrom(map[string]string{})
	}
	clock := &scaledClock{origin: time.Now(), scale: *scale}

	for {
		if err := play(ctx, settings, clock, inC); err != nil {
			logW.Warn(err.Error())
			// wait for the user to fix things and ask for a reload
			select {
			case <-forcedLoad:
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			return
		}
		logW.Debug("reloading")
	}
}

func play(ctx context.Context, settings ledaction.Settings, clock ledaction.Clock, inC chan<- *ledaction.Frame) (err errors.Error) {

	layout, err := memoryLayout()
	if err != nil {
		return err
	}

	d := ledaction.NewDispatcher(append(settings.Options(), ledaction.WithClock(clock))...)
	rig, err := ledaction.NewRig(d, layout)
	if err != nil {
		return err
	}
	defer rig.Close()

	ledaction.PublishFlushes(rig.Drivers(), inC)

	program, err := script.Load(rig, layout, *scriptFile)
	if err != nil {
		return err
	}

	playCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-forcedLoad:
			cancel()
		case <-playCtx.Done():
		}
	}()

	if program == nil {
		d.Run(playCtx, settings.FrameInterval)
		return nil
	}
	if err = d.RunProgram(playCtx, program, ledaction.Forever); err != nil && playCtx.Err() == nil {
		return err
	}
	return nil
}

func serveReload(w http.ResponseWriter, r *http.Request) {

	if !*remote {
		http.Error(w, "remote reloading is not enabled", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "reload must be requested using POST", http.StatusMethodNotAllowed)
		return
	}

	select {
	case forcedLoad <- true:
	case <-time.After(3 * time.Second):
		http.Error(w, "reload could not be applied immediately", http.StatusInternalServerError)
	}
}

func serveFrames(w http.ResponseWriter, r *http.Request, subC chan<- chan *ledaction.Frame) {

	conn, errGo := upgrader.Upgrade(w, r, nil)
	if errGo != nil {
		logW.Warn("websocket upgrade failed", "error", errGo.Error())
		return
	}
	defer conn.Close()

	framesC := make(chan *ledaction.Frame, 16)
	subC <- framesC

	logW.Debug(fmt.Sprintf("browser %s connected", r.RemoteAddr))

	for frame := range framesC {
		out := frameJSON{
			Driver: frame.Driver,
			Pixels: make([]string, len(frame.Pixels)),
		}
		for i, c := range frame.Pixels {
			out.Pixels[i] = c.Hex()
		}
		conn.SetWriteDeadline(time.Now().Add(time.Second))
		if errGo = conn.WriteJSON(out); errGo != nil {
			logW.Debug(fmt.Sprintf("browser %s gone", r.RemoteAddr), "error", errGo.Error())
			// the fanout drops this subscription once it stops being read
			return
		}
	}
}

func serveIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<title>ledaction simulator</title>
<style>
body { background: #111; color: #ccc; font-family: monospace; }
.strip { display: flex; flex-wrap: wrap; margin: 8px 0; }
.px { width: 14px; height: 14px; margin: 1px; border-radius: 7px; background: #000; }
</style>
</head>
<body>
<div id="strips"></div>
<script>
const strips = {};
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/frames");
ws.onmessage = (ev) => {
  const frame = JSON.parse(ev.data);
  let strip = strips[frame.driver];
  if (!strip) {
    const label = document.createElement("div");
    label.textContent = frame.driver;
    const row = document.createElement("div");
    row.className = "strip";
    document.getElementById("strips").append(label, row);
    strip = strips[frame.driver] = { row: row, px: [] };
  }
  while (strip.px.length < frame.pixels.length) {
    const px = document.createElement("div");
    px.className = "px";
    strip.row.append(px);
    strip.px.push(px);
  }
  frame.pixels.forEach((c, i) => { strip.px[i].style.background = c; });
};
</script>
</body>
</html>
`
