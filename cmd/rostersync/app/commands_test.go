package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyCommandCarriesDeleteControls(t *testing.T) {
	a := &App{config: &Config{RetentionDays: 30, RadiusMeters: 50}}
	cmd := a.NewDailyCommand()

	for _, name := range []string{"confirm-delete", "retention-days", "marker", "apply"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}

	retention := cmd.Flags().Lookup("retention-days")
	require.NotNil(t, retention)
	assert.Equal(t, "30", retention.DefValue)
}

func TestFullAndDailyDefaultToDryRun(t *testing.T) {
	a := &App{config: &Config{}}
	full := a.NewFullCommand().Flags().Lookup("apply")
	daily := a.NewDailyCommand().Flags().Lookup("apply")
	require.NotNil(t, full)
	require.NotNil(t, daily)
	assert.Equal(t, "false", full.DefValue)
	assert.Equal(t, "false", daily.DefValue)
}
