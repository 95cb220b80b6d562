package asciidoc2confluence

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/slink-ws/asciidoc2confluence/pkg/convert"
	"github.com/slink-ws/asciidoc2confluence/pkg/document"
	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
	"github.com/slink-ws/asciidoc2confluence/pkg/wiki"
)

// Option is a function that configures a Publisher
type Option func(*config) error

// WithStore sets the remote page store. Without a publishing store the run
// previews converted markup instead.
func WithStore(store wiki.Store) Option {
	return func(c *config) error {
		c.store = store
		return nil
	}
}

// WithConverters sets the converter factory
func WithConverters(factory convert.Factory) Option {
	return func(c *config) error {
		if factory == nil {
			return &errors.ValidationError{Field: "converters", Message: "cannot be nil"}
		}
		c.converters = factory
		return nil
	}
}

// WithFs sets the filesystem documents are read from
func WithFs(fs afero.Fs) Option {
	return func(c *config) error {
		if fs == nil {
			return &errors.ValidationError{Field: "fs", Message: "cannot be nil"}
		}
		c.fs = fs
		return nil
	}
}

// WithInput publishes a single file or directory without a stale sweep
func WithInput(path string) Option {
	return func(c *config) error {
		c.input = path
		return nil
	}
}

// WithDir publishes a directory tree and sweeps stale pages afterwards
func WithDir(dir string) Option {
	return func(c *config) error {
		c.dir = dir
		return nil
	}
}

// WithClean deletes every page of the given spaces before publishing
func WithClean(spaces ...string) Option {
	return func(c *config) error {
		for _, s := range spaces {
			if s != "" {
				c.clean = append(c.clean, s)
			}
		}
		return nil
	}
}

// WithForce makes clean delete protected pages too
func WithForce(force bool) Option {
	return func(c *config) error {
		c.force = force
		return nil
	}
}

// WithSpace overrides the space of every document
func WithSpace(space string) Option {
	return func(c *config) error {
		c.overrides.Space = space
		return nil
	}
}

// WithMarkers sets the in-document directive markers
func WithMarkers(markers document.Markers) Option {
	return func(c *config) error {
		c.markers = markers
		return nil
	}
}

// WithProtectedLabels exempts labelled pages from the sweep and a non-forced clean
func WithProtectedLabels(labels ...string) Option {
	return func(c *config) error {
		c.protected = append(c.protected, labels...)
		return nil
	}
}

// WithParallelism bounds concurrent document processing
func WithParallelism(n int) Option {
	return func(c *config) error {
		if n < 0 {
			return &errors.ValidationError{Field: "parallelism", Value: n, Message: "cannot be negative"}
		}
		c.parallelism = n
		return nil
	}
}

// WithDebug dumps the body of failed publishes and updates to w
func WithDebug(w io.Writer) Option {
	return func(c *config) error {
		c.debug = w
		return nil
	}
}

// WithPreviewOutput sets where previewed markup is written
func WithPreviewOutput(w io.Writer) Option {
	return func(c *config) error {
		c.preview = w
		return nil
	}
}

// WithLogger sets the base logger for the run
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}
