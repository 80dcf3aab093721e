package main

import (
	"fmt"
	"time"

	"github.com/TeamNorCal/ledaction"
)

// This file implements a monitor that receives the engine statistics from
// the yield point and logs them

// statsYield sleeps for the yield interval and, every report interval, hands
// a stats snapshot to statsC without blocking the engine
func statsYield(sleep time.Duration, every time.Duration, stats func() ledaction.Stats, statsC chan<- ledaction.Stats) ledaction.Yield {
	pause := ledaction.SleepYield(sleep)
	if every <= 0 {
		return pause
	}
	next := time.Now().Add(every)
	return func() {
		pause()
		if time.Now().Before(next) {
			return
		}
		next = time.Now().Add(every)
		select {
		case statsC <- stats():
		default:
		}
	}
}

func runMonitoring(statsC <-chan ledaction.Stats, quitC <-chan struct{}) {

	last := ledaction.Stats{}
	lastAt := time.Now()

	for {
		select {
		case stats := <-statsC:
			elapsed := time.Since(lastAt).Seconds()
			fps := 0.0
			if elapsed > 0 {
				fps = float64(stats.Frames-last.Frames) / elapsed
			}
			logger.Info(fmt.Sprintf("%.1f frames/s", fps), "frames", stats.Frames, "flushes", stats.Flushes,
				"failed", stats.Failed, "dropped", stats.Dropped, "nodes", stats.Nodes, "roots", stats.Roots)
			last = stats
			lastAt = time.Now()
		case <-quitC:
			return
		}
	}
}
