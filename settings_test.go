package ledaction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s, err := SettingsFrom(map[string]string{})
		require.NoError(t, err)
		assert.Equal(t, 20*time.Millisecond, s.FrameInterval)
		assert.Equal(t, DefaultInterval, s.UpdateInterval)
		assert.Equal(t, DefaultMaxChannels, s.MaxChannels)
		assert.Equal(t, time.Millisecond, s.YieldSleep)
	})

	t.Run("overrides", func(t *testing.T) {
		s, err := SettingsFrom(map[string]string{
			"LEDACTION_UPDATE_INTERVAL": "25ms",
			"LEDACTION_MAX_CHANNELS":    "16",
			"MAX_CHANNELS":              "2",
		})
		require.NoError(t, err)
		assert.Equal(t, 25*time.Millisecond, s.UpdateInterval)
		assert.Equal(t, 16, s.MaxChannels)

		d := NewDispatcher(s.Options()...)
		assert.Equal(t, 25*time.Millisecond, d.NewAction(nil, 0).Interval())
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := SettingsFrom(map[string]string{"LEDACTION_MAX_CHANNELS": "0"})
		assert.Error(t, err)

		_, err = SettingsFrom(map[string]string{"LEDACTION_FRAME_INTERVAL": "-5ms"})
		assert.Error(t, err)

		_, err = SettingsFrom(map[string]string{"LEDACTION_YIELD_SLEEP": "soon"})
		assert.Error(t, err)
	})
}
