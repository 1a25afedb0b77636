// Package app provides the application context and dependency wiring for
// the rostersync CLI: configuration, logging, and the remote API client.
package app

import (
	"os"
	"sync"
	"time"

	"github.com/fleetops/rostersync/pkg/samsara"
)

// App represents the rostersync application with its dependencies.
type App struct {
	version string
	commit  string
	date    string

	config *Config

	mu     sync.Mutex
	client *samsara.Client
}

// New creates a new App instance with the given version information.
func New(version, commit, date string) (*App, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		config:  config,
	}
	ConfigureLogging(config)
	return app, nil
}

// Version returns the version string.
func (a *App) Version() string { return a.version }

// Config returns the loaded configuration.
func (a *App) Config() *Config { return a.config }

// Client returns the remote API client, creating it on first use so
// commands that never touch the network don't require a token.
func (a *App) Client() (*samsara.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		return a.client, nil
	}

	opts := []samsara.Option{
		samsara.WithMaxAttempts(a.config.MaxAttempts),
		samsara.WithMinInterval(time.Duration(a.config.MinIntervalMS) * time.Millisecond),
	}
	if a.config.BaseURL != "" {
		opts = append(opts, samsara.WithBaseURL(a.config.BaseURL))
	}
	if a.config.PageLimit > 0 {
		opts = append(opts, samsara.WithPageLimit(a.config.PageLimit))
	}

	client, err := samsara.New(a.config.APIToken, opts...)
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

// ExitOnError prints an error and exits with status 1. Meant for main.go
// top-level error handling only.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
