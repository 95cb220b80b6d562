package asciidoc2confluence

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/slink-ws/asciidoc2confluence/pkg/convert"
	"github.com/slink-ws/asciidoc2confluence/pkg/document"
	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
	"github.com/slink-ws/asciidoc2confluence/pkg/logging"
	"github.com/slink-ws/asciidoc2confluence/pkg/reconciler"
	"github.com/slink-ws/asciidoc2confluence/pkg/report"
	"github.com/slink-ws/asciidoc2confluence/pkg/result"
	"github.com/slink-ws/asciidoc2confluence/pkg/tracker"
	"github.com/slink-ws/asciidoc2confluence/pkg/walker"
	"github.com/slink-ws/asciidoc2confluence/pkg/wiki"
)

// config holds the options of a Publisher
type config struct {
	store       wiki.Store
	converters  convert.Factory
	fs          afero.Fs
	input       string
	dir         string
	clean       []string
	force       bool
	overrides   document.Overrides
	markers     document.Markers
	protected   []string
	parallelism int
	debug       io.Writer
	preview     io.Writer
	logger      *zerolog.Logger
}

// Publisher runs one synchronization: clean, publish, sweep, report.
type Publisher struct {
	*hooks

	config  *config
	engine  *reconciler.Engine
	walker  *walker.Walker
	reader  *document.Reader
	tracker *tracker.Tracker
}

// New creates a Publisher with the given options
func New(opts ...Option) (*Publisher, error) {
	cfg := &config{
		fs:      afero.NewOsFs(),
		markers: document.DefaultMarkers(),
		preview: os.Stdout,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}
	if cfg.input != "" && cfg.dir != "" {
		return nil, &errors.ValidationError{Field: "input", Value: cfg.input, Message: "input and dir are mutually exclusive"}
	}
	if cfg.input == "" && cfg.dir == "" && len(cfg.clean) == 0 {
		return nil, &errors.ValidationError{Field: "input", Message: "one of input, dir or clean is required"}
	}
	if cfg.converters == nil {
		factory, err := convert.NewFactory(convert.DefaultConfig())
		if err != nil {
			return nil, err
		}
		cfg.converters = factory
	}

	engineOpts := []reconciler.Option{reconciler.WithProtectedLabels(cfg.protected...)}
	if cfg.debug != nil {
		engineOpts = append(engineOpts, reconciler.WithDebug(cfg.debug))
	}
	if cfg.logger != nil {
		engineOpts = append(engineOpts, reconciler.WithLogger(cfg.logger))
	}
	engine, err := reconciler.New(cfg.store, cfg.converters, engineOpts...)
	if err != nil {
		return nil, err
	}

	tr := tracker.New()
	return &Publisher{
		hooks:   newHooks(),
		config:  cfg,
		engine:  engine,
		walker:  walker.New(cfg.fs, walker.WithParallelism(cfg.parallelism)),
		reader:  document.NewReader(cfg.fs, document.WithMarkers(cfg.markers), document.WithOverrides(cfg.overrides), document.WithTracker(tr)),
		tracker: tr,
	}, nil
}

// Preview reports whether converted markup is printed instead of published.
func (p *Publisher) Preview() bool {
	return p.config.store == nil || !p.config.store.CanPublish()
}

// Run performs the synchronization. Per-document failures are counted in
// the report; an error is returned only when the run was interrupted.
func (p *Publisher) Run(ctx context.Context) (*report.Report, error) {
	if p.config.logger != nil && !logging.HasLogger(ctx) {
		ctx = logging.WithLogger(ctx, p.config.logger)
	}
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.FromContext(ctx)

	rep := report.New(runID)
	rep.Preview = p.Preview()
	if rep.Preview {
		logger.Info().Msg("No wiki configured, previewing converted markup")
	}

	if len(p.config.clean) > 0 && !rep.Preview {
		rep.Cleaned = make(map[string]int, len(p.config.clean))
		for _, space := range p.config.clean {
			n, err := p.engine.Clean(ctx, space, p.config.force)
			if err != nil {
				logger.Error().Err(err).Str("space", space).Msg("Clean-up incomplete")
			}
			rep.Cleaned[space] = n
			p.hooks.clean(space, n, err)
		}
	}
	rep.MarkCleaned()

	res := result.Empty
	if root := p.root(); root != "" {
		res = p.walker.Walk(ctx, root, p.process)
		if p.config.dir != "" && !rep.Preview && ctx.Err() == nil {
			docs := p.walker.Collect(ctx, p.config.dir, p.reader)
			swept := p.engine.Sweep(ctx, docs)
			p.hooks.sweep(swept)
			res = res.Merge(swept)
		}
	}

	rep.Finish(res, p.tracker.Duplicates())
	logger.Info().
		Stringer("result", res).
		Str("elapsed", report.FormatDuration(rep.TotalTime())).
		Msg("Run finished")
	if err := ctx.Err(); err != nil {
		return rep, err
	}
	return rep, nil
}

func (p *Publisher) root() string {
	if p.config.dir != "" {
		return p.config.dir
	}
	return p.config.input
}

// process handles one file found by the walker.
func (p *Publisher) process(ctx context.Context, path string) result.Result {
	doc, err := p.reader.Read(ctx, path, true)
	if err != nil {
		logging.FromContext(ctx).Error().Err(err).Str("path", path).Msg("Cannot read document")
		return result.Of(result.ReadFailure)
	}

	var res result.Result
	switch {
	case !p.Preview():
		res = p.engine.Reconcile(ctx, doc)
	case doc.Hidden:
		res = result.Of(result.SkipHidden)
	default:
		if err := p.engine.Preview(ctx, doc, p.config.preview); err != nil {
			logging.FromContext(ctx).Error().Err(err).Str("path", path).Msg("Conversion failed")
			res = result.Of(result.PublishFailure)
		}
	}
	p.hooks.document(doc, res)
	return res
}
