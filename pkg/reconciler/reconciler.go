// Package reconciler keeps a remote wiki space in line with local documents.
// For each document it resolves the matching remote page, decides on exactly
// one action, performs it, and reconciles the page labels. After a pass it
// can sweep pages that no longer exist locally.
package reconciler

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/slink-ws/asciidoc2confluence/pkg/convert"
	"github.com/slink-ws/asciidoc2confluence/pkg/document"
	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
	"github.com/slink-ws/asciidoc2confluence/pkg/logging"
	"github.com/slink-ws/asciidoc2confluence/pkg/result"
	"github.com/slink-ws/asciidoc2confluence/pkg/wiki"
)

// Engine reconciles documents against a store. It is safe for concurrent
// use; each document is handled entirely on the calling goroutine.
type Engine struct {
	store      wiki.Store
	converters convert.Factory
	protected  []string
	batchSize  int
	logger     *zerolog.Logger

	debugMu sync.Mutex
	debug   io.Writer
}

// New creates an Engine. A nil store is accepted and makes every publish fail.
func New(store wiki.Store, converters convert.Factory, opts ...Option) (*Engine, error) {
	if converters == nil {
		return nil, &errors.ValidationError{
			Field:   "converters",
			Message: "cannot be nil",
		}
	}
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Engine{
		store:      store,
		converters: converters,
		protected:  options.protected,
		batchSize:  options.batchSize,
		logger:     options.logger,
		debug:      options.debug,
	}, nil
}

// ProtectedLabels returns the labels exempting pages from deletion.
func (e *Engine) ProtectedLabels() []string {
	return append([]string(nil), e.protected...)
}

// context installs the engine logger unless the caller already supplied one.
func (e *Engine) context(ctx context.Context) context.Context {
	if e.logger != nil && !logging.HasLogger(ctx) {
		return logging.WithLogger(ctx, e.logger)
	}
	return ctx
}

// Reconcile handles one document and returns exactly one outcome.
// Failures are logged and reported in the result, never returned.
func (e *Engine) Reconcile(ctx context.Context, doc *document.Document) result.Result {
	ctx = e.context(ctx)
	if doc == nil {
		logging.FromContext(ctx).Error().Msg("Nil document passed to reconciler")
		return result.Of(result.PublishFailure)
	}
	ctx = logging.WithFields(ctx, map[string]any{
		"path":  doc.Path,
		"title": doc.Title,
		"space": doc.Space,
	})
	logger := logging.FromContext(ctx)

	if e.store == nil || !e.store.CanPublish() {
		logger.Error().Msg("Page store is not configured, cannot publish")
		return result.Of(result.PublishFailure)
	}
	if err := doc.Validate(); err != nil {
		logger.Error().Err(err).Msg("Document cannot be published, title and space are required")
		return result.Of(result.PublishFailure)
	}

	match := e.resolve(ctx, doc.Space, doc.LookupTitles()...)
	action := Decide(doc, match)
	logger.Debug().
		Str("action", action.String()).
		Str("page_id", match.ID).
		Msg("Resolved document")

	switch action {
	case ActionSkipHidden:
		logger.Info().Msg("Skipping hidden document with no remote page")
		return result.Of(result.SkipHidden)
	case ActionDelete:
		return e.remove(logging.WithField(ctx, "page_id", match.ID), match.ID)
	case ActionCreate:
		return e.create(ctx, doc)
	default:
		return e.update(logging.WithField(ctx, "page_id", match.ID), doc, match)
	}
}

// resolve looks titles up in order and returns the first hit. Lookup errors
// of any class count as a miss.
func (e *Engine) resolve(ctx context.Context, space string, titles ...string) Match {
	for _, title := range titles {
		id, err := e.store.FindPageID(ctx, space, title)
		if err != nil {
			logLookup(ctx, title, err)
			continue
		}
		if id != "" {
			return Match{ID: id, Title: title}
		}
	}
	return Match{}
}

// logLookup logs a failed lookup at a level matching the error class.
func logLookup(ctx context.Context, title string, err error) {
	logger := logging.FromContext(ctx)
	var event *zerolog.Event
	// 4xx lookups are joined with not found, so credentials are checked first.
	switch {
	case errors.IsUnauthorized(err):
		logger.Error().Err(err).Str("lookup", title).Msg("Wiki rejected the credentials, treating page as not found")
		return
	case errors.IsRateLimited(err), errors.IsTransport(err):
		event = logger.Warn()
	case errors.IsNotFound(err):
		event = logger.Debug()
	default:
		event = logger.Error()
	}
	event.Err(err).Str("lookup", title).Msg("Page lookup failed, treating as not found")
}

func (e *Engine) convert(ctx context.Context, doc *document.Document) (string, error) {
	return e.converters(doc.Space).Convert(ctx, doc)
}

func (e *Engine) create(ctx context.Context, doc *document.Document) result.Result {
	logger := logging.FromContext(ctx)

	body, err := e.convert(ctx, doc)
	if err != nil {
		logger.Error().Err(err).Msg("Conversion failed, page not published")
		return result.Of(result.PublishFailure)
	}

	page := wiki.NewPage{
		Space:  doc.Space,
		Title:  doc.Title,
		Status: wiki.StatusCurrent,
		Body:   body,
	}
	if doc.Parent != "" {
		if parent := e.resolve(ctx, doc.Space, doc.Parent); parent.Found() {
			page.ParentID = parent.ID
		} else {
			logger.Warn().Str("parent", doc.Parent).Msg("Parent page not found, publishing at space root")
		}
	}

	id, err := e.store.CreatePage(ctx, page)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to publish page")
		e.dump(doc, body)
		return result.Of(result.PublishFailure)
	}
	ctx = logging.WithField(ctx, "page_id", id)
	logger = logging.FromContext(ctx)

	if tags := labelNames(doc.Tags); len(tags) > 0 {
		if err := e.store.AddLabels(ctx, id, tags); err != nil {
			logger.Warn().Err(err).Strs("labels", tags).Msg("Failed to label published page")
		}
	}
	logger.Info().Str("url", e.store.PageURL(doc.Space, doc.Title)).Msg("Published page")
	return result.Of(result.PublishSuccess)
}

func (e *Engine) update(ctx context.Context, doc *document.Document, match Match) result.Result {
	logger := logging.FromContext(ctx)

	body, err := e.convert(ctx, doc)
	if err != nil {
		logger.Error().Err(err).Msg("Conversion failed, page not updated")
		return result.Of(result.UpdateFailure)
	}

	page, err := e.store.GetPage(ctx, match.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch page version")
		e.dump(doc, body)
		return result.Of(result.UpdateFailure)
	}

	err = e.store.UpdatePage(ctx, match.ID, wiki.PageUpdate{
		Title:   doc.Title,
		Version: page.Version + 1,
		Status:  wiki.StatusCurrent,
		Body:    body,
	})
	if err != nil {
		logger.Error().Err(err).Int("version", page.Version+1).Msg("Failed to update page")
		e.dump(doc, body)
		return result.Of(result.UpdateFailure)
	}

	if err := e.syncLabels(ctx, match.ID, doc.Tags); err != nil {
		logger.Warn().Err(err).Msg("Label reconciliation incomplete")
	}

	event := logger.Info().Str("url", e.store.PageURL(doc.Space, doc.Title)).Int("version", page.Version+1)
	if match.Title != doc.Title {
		event = event.Str("old_title", match.Title)
	}
	event.Msg("Updated page")
	return result.Of(result.UpdateSuccess)
}

// syncLabels makes the page labels equal to tags. Every failing step is
// collected; the first failure does not stop the others.
func (e *Engine) syncLabels(ctx context.Context, id string, tags []string) error {
	remote, err := e.store.GetLabels(ctx, id)
	if err != nil {
		return errors.WrapResource("get labels", "page", id, err)
	}
	remove, add := DiffLabels(remote, tags)

	var merr *multierror.Error
	if len(remove) > 0 {
		if err := e.store.RemoveLabels(ctx, id, remove); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	if len(add) > 0 {
		if err := e.store.AddLabels(ctx, id, add); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	logging.FromContext(ctx).Debug().
		Strs("removed", remove).
		Strs("added", add).
		Msg("Reconciled labels")
	return merr.ErrorOrNil()
}

// remove deletes a page and purges it from the trash. Only the delete
// decides the outcome.
func (e *Engine) remove(ctx context.Context, id string) result.Result {
	if e.deletePage(ctx, id) {
		return result.Of(result.DeleteSuccess)
	}
	return result.Of(result.DeleteFailure)
}

func (e *Engine) deletePage(ctx context.Context, id string) bool {
	logger := logging.FromContext(ctx)

	affected, err := e.store.DeletePage(ctx, id)
	if perr := e.store.PurgePage(ctx, id); perr != nil {
		logger.Debug().Err(perr).Msg("Trash purge failed")
	}
	switch {
	case err != nil:
		logger.Error().Err(err).Msg("Failed to delete page")
		return false
	case affected <= 0:
		logger.Error().Int("affected", affected).Msg("Delete affected no pages")
		return false
	}
	logger.Info().Msg("Deleted page")
	return true
}

// dump writes a converted body that could not be stored to the debug writer.
func (e *Engine) dump(doc *document.Document, body string) {
	if e.debug == nil {
		return
	}
	e.debugMu.Lock()
	defer e.debugMu.Unlock()
	fmt.Fprintf(e.debug, "----- %s (%s) -----\n%s\n", doc.Path, doc.Title, strings.TrimRight(body, "\n"))
}

// Preview converts doc and writes the markup to w instead of publishing it.
func (e *Engine) Preview(ctx context.Context, doc *document.Document, w io.Writer) error {
	ctx = logging.WithPath(e.context(ctx), doc.Path)
	body, err := e.convert(ctx, doc)
	if err != nil {
		return err
	}
	e.debugMu.Lock()
	defer e.debugMu.Unlock()
	_, err = fmt.Fprintf(w, "----- %s [%s] %s -----\n%s\n", doc.Path, doc.Space, doc.Title, strings.TrimRight(body, "\n"))
	return errors.WrapIO("write", doc.Path, err)
}
