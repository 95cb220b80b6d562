// Package app provides the application context and dependency management
// for the a2c CLI. It centralizes configuration, logging, and the wiring
// of the publisher from flags, environment, and config files.
package app

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	a2c "github.com/slink-ws/asciidoc2confluence"
	"github.com/slink-ws/asciidoc2confluence/internal/confluence"
	"github.com/slink-ws/asciidoc2confluence/internal/wiki/memory"
	"github.com/slink-ws/asciidoc2confluence/pkg/convert"
	"github.com/slink-ws/asciidoc2confluence/pkg/document"
	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
	"github.com/slink-ws/asciidoc2confluence/pkg/result"
	"github.com/slink-ws/asciidoc2confluence/pkg/wiki"
)

// App represents the a2c application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	fs     afero.Fs
	stdout io.Writer

	// store replaces the store derived from the configuration (tests).
	store wiki.Store
}

// New creates a new App instance with the given version information.
// Configuration is loaded from the environment and config files and can be
// replaced using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		fs:      afero.NewOsFs(),
		stdout:  os.Stdout,
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

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Store returns the wiki store selected by the configuration. A nil store
// means the run only previews documents.
func (a *App) Store() wiki.Store {
	if a.store != nil {
		return a.store
	}
	switch {
	case a.config.Dry:
		var opts []memory.Option
		if a.config.URL != "" {
			opts = append(opts, memory.WithBaseURL(a.config.URL))
		}
		return memory.New(opts...)
	case a.config.URL != "":
		return confluence.New(confluence.Config{
			URL:      a.config.URL,
			User:     a.config.User,
			Password: a.config.Pass,
			Token:    a.config.Token,
			Retries:  a.config.Retries,
			Timeout:  a.config.Timeout,
		})
	default:
		return nil
	}
}

// Publisher builds a publisher from the current configuration.
func (a *App) Publisher() (*a2c.Publisher, error) {
	pipeline := a.config.Convert.Pipeline()
	factory, err := convert.NewFactory(pipeline)
	if err != nil {
		return nil, errors.NewConfigError("convert", "invalid pipeline", err)
	}

	opts := []a2c.Option{
		a2c.WithFs(a.fs),
		a2c.WithConverters(factory),
		a2c.WithLogger(a.logger),
		a2c.WithInput(absolute(a.config.Input)),
		a2c.WithDir(absolute(a.config.Dir)),
		a2c.WithClean(a.config.Clean...),
		a2c.WithForce(a.config.Force),
		a2c.WithSpace(a.config.Space),
		a2c.WithMarkers(a.config.Markers),
		a2c.WithProtectedLabels(a.config.ProtectedLabels...),
		a2c.WithParallelism(a.config.Parallel),
		a2c.WithPreviewOutput(a.stdout),
	}
	if store := a.Store(); store != nil {
		opts = append(opts, a2c.WithStore(store))
	}
	if a.config.Debug {
		opts = append(opts, a2c.WithDebug(a.stdout))
	}

	p, err := a2c.New(opts...)
	if err != nil {
		return nil, err
	}

	if a.config.Dry {
		out := a.stdout
		p.OnDocument(func(doc *document.Document, res result.Result) {
			fmt.Fprintf(out, "plan: %s [%s] %s -> %s\n", doc.Path, doc.Space, doc.Title, res)
		})
		p.OnClean(func(space string, deleted int, err error) {
			fmt.Fprintf(out, "plan: clean %s removed %d\n", space, deleted)
		})
	}
	return p, nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return errors.NewValidationError("config", nil, "cannot be nil")
		}
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

// WithFs sets the filesystem documents are read from.
func WithFs(fs afero.Fs) Option {
	return func(a *App) error {
		a.fs = fs
		return nil
	}
}

// WithStore sets a custom wiki store (useful for testing).
func WithStore(store wiki.Store) Option {
	return func(a *App) error {
		a.store = store
		return nil
	}
}

// WithOutput sets where reports and previews are written.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.stdout = w
		return nil
	}
}
