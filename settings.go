package ledaction

// This file contains the engine tuning knobs, they are read from LEDACTION_
// prefixed environment variables so a deployed rig can be adjusted without a
// rebuild

import (
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/caarlos0/env/v11"
)

type Settings struct {
	// FrameInterval is the pause between frames in the host loop
	FrameInterval time.Duration `env:"FRAME_INTERVAL" envDefault:"20ms"`
	// UpdateInterval is the Tick interval given to new actions
	UpdateInterval time.Duration `env:"UPDATE_INTERVAL" envDefault:"50ms"`
	// MaxChannels bounds the number of drivers flushed per frame
	MaxChannels int `env:"MAX_CHANNELS" envDefault:"8"`
	// YieldSleep is how long the yield point gives the host
	YieldSleep time.Duration `env:"YIELD_SLEEP" envDefault:"1ms"`
}

// LoadSettings reads the settings from the process environment
func LoadSettings() (s Settings, err errors.Error) {
	return loadSettings(env.Options{Prefix: "LEDACTION_"})
}

// SettingsFrom reads the settings from vars rather than the process
// environment, the keys carry the LEDACTION_ prefix
func SettingsFrom(vars map[string]string) (s Settings, err errors.Error) {
	return loadSettings(env.Options{Prefix: "LEDACTION_", Environment: vars})
}

func loadSettings(opts env.Options) (s Settings, err errors.Error) {
	if errGo := env.ParseWithOptions(&s, opts); errGo != nil {
		return s, errors.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}
	if s.MaxChannels <= 0 {
		return s, errors.New("max channels must be positive").With("max_channels", s.MaxChannels).With("stack", stack.Trace().TrimRuntime())
	}
	if s.UpdateInterval < 0 || s.FrameInterval < 0 || s.YieldSleep < 0 {
		return s, errors.New("intervals must not be negative").With("stack", stack.Trace().TrimRuntime())
	}
	return s, nil
}

// Options turns the settings into dispatcher options
func (s Settings) Options() []Option {
	return []Option{
		WithMaxChannels(s.MaxChannels),
		WithUpdateInterval(s.UpdateInterval),
		WithYield(SleepYield(s.YieldSleep)),
	}
}
