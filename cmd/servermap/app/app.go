// Package app provides the application context and dependency management for
// the servermap CLI. It centralizes configuration, logging, and lazily built
// dependencies such as the storage layer and the registry sources.
package app

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/servermap/servermap/internal/sources/github"
	"github.com/servermap/servermap/internal/sources/glama"
	"github.com/servermap/servermap/internal/sources/mcpmarket"
	"github.com/servermap/servermap/internal/sources/mcpso"
	"github.com/servermap/servermap/internal/storage"
	"github.com/servermap/servermap/pkg/errors"
	"github.com/servermap/servermap/pkg/sources"
)

// App represents the servermap application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Storage (lazy-initialized, singleton)
	mu    sync.Mutex
	store *storage.Storage
}

// New creates a new App instance with the given version information.
func New(version, commit, date string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Storage returns the storage layer, creating it lazily if needed.
func (a *App) Storage() (*storage.Storage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store != nil {
		return a.store, nil
	}

	store, err := storage.New(a.config.DataDir)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

// Sources builds the registry source set from configuration. Sources whose
// credentials are missing are skipped with a warning rather than failing the
// whole crawl.
func (a *App) Sources() *sources.Sources {
	set := sources.New()

	if a.config.GitHubToken != "" {
		gh, err := github.New(a.config.GitHubToken)
		if err != nil {
			a.logger.Warn().Err(err).Msg("GitHub source unavailable")
		} else {
			set.Set(gh)
		}
	} else {
		a.logger.Warn().Msg("GITHUB_TOKEN not set, skipping GitHub crawl")
	}

	set.Set(mcpso.New())
	set.Set(glama.New())
	set.Set(mcpmarket.New())

	return set
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}
