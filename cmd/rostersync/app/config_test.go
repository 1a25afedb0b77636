package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5, config.MaxAttempts)
	assert.Equal(t, 200, config.MinIntervalMS)
	assert.Equal(t, 30, config.RetentionDays)
	assert.Equal(t, 50, config.RadiusMeters)
	assert.Equal(t, "out", config.OutDir)
	assert.Equal(t, "info", config.LogLevel)
}

func TestUpdateFromFlags(t *testing.T) {
	config := &Config{LogLevel: "info"}

	config.UpdateFromFlags(true, false, true, "")
	assert.True(t, config.Verbose)
	assert.False(t, config.Quiet)
	assert.True(t, config.NoColor)
	assert.Equal(t, "info", config.LogLevel, "empty flag keeps configured level")

	config.UpdateFromFlags(false, true, false, "error")
	assert.Equal(t, "error", config.LogLevel)
	assert.True(t, config.Quiet)
}
