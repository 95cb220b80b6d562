// Package convert turns document sources into wiki storage markup. A
// converter runs the configured pre transforms on the source, renders it
// with the backend for its format, then runs the post transforms on the
// markup.
package convert

import (
	"context"
	"fmt"
	"time"

	"github.com/slink-ws/asciidoc2confluence/pkg/constants"
	"github.com/slink-ws/asciidoc2confluence/pkg/document"
	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
)

// Converter renders one document into storage markup.
type Converter interface {
	Convert(ctx context.Context, doc *document.Document) (string, error)
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(ctx context.Context, doc *document.Document) (string, error)

// Convert implements Converter.
func (f ConverterFunc) Convert(ctx context.Context, doc *document.Document) (string, error) {
	return f(ctx, doc)
}

// Factory returns a fresh converter bound to a space. Converters share no
// mutable state, so each document gets its own.
type Factory func(space string) Converter

// Backend renders source text of one format.
type Backend interface {
	Render(ctx context.Context, env Env, source []byte) (string, error)
}

// Config selects backends and transforms.
type Config struct {
	// Asciidoctor is the converter binary for AsciiDoc sources.
	Asciidoctor string
	// BaseDir is passed to asciidoctor for resolving includes. Empty uses the
	// document's directory.
	BaseDir string
	// Timeout bounds a single external render.
	Timeout time.Duration
	// Pre and Post name the transforms applied before and after rendering.
	Pre  []string
	Post []string
	// DefaultLanguage is used for code blocks without a language.
	DefaultLanguage string
	// Markdown lists goldmark extension names. Empty selects the defaults.
	Markdown []string
}

// DefaultConfig returns the standard pipeline.
func DefaultConfig() Config {
	return Config{
		Asciidoctor:     constants.AsciidoctorBinary,
		Timeout:         constants.ConvertTimeout,
		Pre:             []string{"children", "pagetree"},
		Post:            []string{"notice", "toc", "latex", "links", "code"},
		DefaultLanguage: "text",
	}
}

// Pipeline is a resolved converter configuration.
type Pipeline struct {
	backends map[document.Format]Backend
	pre      []Transform
	post     []Transform
	language string
}

// NewPipeline resolves transform names and builds the backends. Unknown
// transform names are configuration errors.
func NewPipeline(cfg Config) (*Pipeline, error) {
	pre, err := resolve(StagePre, cfg.Pre)
	if err != nil {
		return nil, err
	}
	post, err := resolve(StagePost, cfg.Post)
	if err != nil {
		return nil, err
	}
	binary := cfg.Asciidoctor
	if binary == "" {
		binary = constants.AsciidoctorBinary
	}
	return &Pipeline{
		backends: map[document.Format]Backend{
			document.FormatAsciiDoc: &Asciidoctor{Binary: binary, BaseDir: cfg.BaseDir, Timeout: cfg.Timeout},
			document.FormatMarkdown: NewMarkdown(cfg.Markdown...),
		},
		pre:      pre,
		post:     post,
		language: cfg.DefaultLanguage,
	}, nil
}

// WithBackend replaces the backend for a format.
func (p *Pipeline) WithBackend(format document.Format, b Backend) *Pipeline {
	p.backends[format] = b
	return p
}

// Factory returns a Factory producing converters bound to a space.
func (p *Pipeline) Factory() Factory {
	return func(space string) Converter {
		return &converter{pipeline: p, space: space}
	}
}

// NewFactory is shorthand for NewPipeline followed by Factory.
func NewFactory(cfg Config) (Factory, error) {
	p, err := NewPipeline(cfg)
	if err != nil {
		return nil, err
	}
	return p.Factory(), nil
}

type converter struct {
	pipeline *Pipeline
	space    string
}

// Convert implements Converter.
func (c *converter) Convert(ctx context.Context, doc *document.Document) (string, error) {
	env := Env{
		Space:           c.space,
		Path:            doc.Path,
		Format:          doc.Format,
		DefaultLanguage: c.pipeline.language,
	}
	backend, ok := c.pipeline.backends[doc.Format]
	if !ok {
		return "", errors.NewValidationError("format", doc.Format, "no backend for format")
	}

	text := doc.Body
	for _, t := range c.pipeline.pre {
		var err error
		if text, err = t.Apply(env, text); err != nil {
			return "", fmt.Errorf("transform %s: %w", t.Name, err)
		}
	}

	markup, err := backend.Render(ctx, env, []byte(text))
	if err != nil {
		return "", err
	}

	for _, t := range c.pipeline.post {
		if markup, err = t.Apply(env, markup); err != nil {
			return "", fmt.Errorf("transform %s: %w", t.Name, err)
		}
	}
	return markup, nil
}
