package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/karlmutch/errors"

	logxi "github.com/mgutz/logxi/v1"

	"github.com/TeamNorCal/ledaction"
	"github.com/TeamNorCal/ledaction/model"
	"github.com/TeamNorCal/ledaction/script"
	"github.com/TeamNorCal/ledaction/version"

	"github.com/karlmutch/envflag" // Forked copy of https://github.com/GoBike/envflag
)

var (
	logger = logxi.New("ledaction")

	verbose    = flag.Bool("v", false, "When enabled will print internal logging for this tool")
	layoutFile = flag.String("layout", "", "YAML file describing drivers, segments, compounds and an optional program, a single 30 pixel memory strip when empty")
	scriptFile = flag.String("script", "", "Lua program to play, it replaces the program found in the layout")
	runs       = flag.Int("runs", 0, "Number of times the program is played, 0 uses the layout value and a negative value repeats forever")
	statsEvery = flag.Duration("stats", 10*time.Second, "Interval between statistics reports, 0 disables them")
)

func usage() {
	fmt.Fprintln(os.Stderr, path.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "usage: ", os.Args[0], "[options]       LED animation engine      ", version.GitHash, "    ", version.BuildTime)
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "ledaction plays timed animations on LED strips attached to fadecandy boards, OPC servers or SPI buses")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Options:")
	fmt.Fprintln(os.Stderr, "")
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Environment Variables:")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "options can also be extracted from environment variables by changing dashes '-' to underscores and using upper case.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "engine tuning is read from LEDACTION_FRAME_INTERVAL, LEDACTION_UPDATE_INTERVAL, LEDACTION_MAX_CHANNELS and LEDACTION_YIELD_SLEEP")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "log levels are handled by the LOGXI env variables, these are documented at https://github.com/mgutz/logxi")
}

func init() {
	flag.Usage = usage
}

func main() {

	// Parse the CLI flags
	if !flag.Parsed() {
		envflag.Parse()
	}

	if *verbose {
		logger.SetLevel(logxi.LevelDebug)
		ledaction.SetVerbose(true)
	}

	logger.Debug(fmt.Sprintf("%s built at %s, against commit id %s", os.Args[0], version.BuildTime, version.GitHash))

	if err := run(); err != nil {
		logger.Error(err.Error())
		os.Exit(-1)
	}
}

func run() (err errors.Error) {

	settings, err := ledaction.LoadSettings()
	if err != nil {
		return err
	}

	layout, err := loadLayout(*layoutFile)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	quitC := make(chan struct{})
	defer close(quitC)

	errorC := make(chan errors.Error, 8)
	msgC := make(chan string, 8)
	statsC := make(chan ledaction.Stats, 1)

	runTUI(msgC, errorC, quitC)
	go runMonitoring(statsC, quitC)

	// Stats are only read on the goroutine ticking the dispatcher, the yield
	// point hands them to the monitor
	var d *ledaction.Dispatcher
	yield := statsYield(settings.YieldSleep, *statsEvery, func() ledaction.Stats { return d.Stats() }, statsC)
	d = ledaction.NewDispatcher(append(settings.Options(),
		ledaction.WithErrors(errorC),
		ledaction.WithYield(yield),
	)...)

	rig, err := ledaction.NewRig(d, layout)
	if err != nil {
		return err
	}
	defer rig.Close()

	program, err := script.Load(rig, layout, *scriptFile)
	if err != nil {
		return err
	}

	if program == nil {
		msgC <- fmt.Sprintf("running %d nodes on %d drivers\n", len(d.Nodes()), len(rig.Drivers()))
		d.Run(ctx, settings.FrameInterval)
		logger.Info("stopped", "frames", d.Stats().Frames)
		return nil
	}

	count := *runs
	if count == 0 {
		count = layout.Runs
	}
	if count == 0 {
		count = ledaction.Forever
	}
	msgC <- fmt.Sprintf("playing program %d time(s)\n", count)

	if err = d.RunProgram(ctx, program, count); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("program done", "frames", d.Stats().Frames)
	return nil
}

func loadLayout(fn string) (layout *model.Layout, err errors.Error) {
	if fn == "" {
		layout := model.DefaultLayout()
		return &layout, nil
	}
	return model.LoadLayout(fn)
}
