package app

import (
	"fmt"
	"os"

	"github.com/fleetops/rostersync/pkg/logging"
)

// ConfigureLogging sets up the process-wide logger from the application
// configuration. Log level precedence (highest to lowest):
//  1. -v/--verbose flag (debug)
//  2. -q/--quiet flag (warn)
//  3. --log-level flag or LOG_LEVEL environment variable
//  4. info
func ConfigureLogging(config *Config) {
	logging.Configure(&logging.Config{
		Level:   determineLogLevel(config),
		Format:  config.LogFormat,
		Output:  config.LogOutput,
		NoColor: config.NoColor,
	})
}

func determineLogLevel(config *Config) string {
	if config.Verbose && config.Quiet {
		fmt.Fprintln(os.Stderr, "Warning: both --verbose and --quiet specified, using --quiet")
		return "warn"
	}
	if config.Verbose {
		return "debug"
	}
	if config.Quiet {
		return "warn"
	}
	if config.LogLevel != "" {
		return config.LogLevel
	}
	return "info"
}
