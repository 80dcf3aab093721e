package ledaction

import (
	logxi "github.com/mgutz/logxi/v1"
)

var (
	logger = logxi.New("ledaction")
)

// SetVerbose switches the engine logger to debug output
func SetVerbose(verbose bool) {
	if verbose {
		logger.SetLevel(logxi.LevelDebug)
		return
	}
	logger.SetLevel(logxi.LevelWarn)
}
