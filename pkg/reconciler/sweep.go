package reconciler

import (
	"context"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/slink-ws/asciidoc2confluence/pkg/document"
	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
	"github.com/slink-ws/asciidoc2confluence/pkg/logging"
	"github.com/slink-ws/asciidoc2confluence/pkg/result"
	"github.com/slink-ws/asciidoc2confluence/pkg/wiki"
)

// Sweep deletes remote pages whose titles are absent from docs. Every space
// named by docs is listed in full; pages with a protected label are kept.
func (e *Engine) Sweep(ctx context.Context, docs []*document.Document) result.Result {
	ctx = logging.WithOperation(e.context(ctx), "sweep")
	if e.store == nil || !e.store.CanPublish() {
		return result.Empty
	}

	local := LocalTitles(docs)
	spaces := make([]string, 0, len(local))
	for space := range local {
		spaces = append(spaces, space)
	}
	sort.Strings(spaces)

	res := result.Empty
	for _, space := range spaces {
		res = res.Merge(e.sweepSpace(logging.WithSpace(ctx, space), space, local[space]))
	}
	return res
}

func (e *Engine) sweepSpace(ctx context.Context, space string, local map[string]struct{}) result.Result {
	logger := logging.FromContext(ctx)

	pages, err := wiki.ListAll(ctx, e.store, space, e.batchSize)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list remote pages, skipping stale sweep")
		return result.Empty
	}

	stale := Stale(pages, local, e.protected)
	if len(stale) == 0 {
		logger.Debug().Int("remote", len(pages)).Msg("No stale pages")
		return result.Empty
	}
	logger.Info().Strs("titles", stale).Msg("Pages to be removed")

	res := result.Empty
	for _, title := range stale {
		pctx := logging.WithTitle(ctx, title)
		match := e.resolve(pctx, space, title)
		if !match.Found() {
			logging.FromContext(pctx).Error().Msg("Stale page could not be resolved")
			res = res.Add(result.DeleteFailure)
			continue
		}
		res = res.Merge(e.remove(logging.WithField(pctx, "page_id", match.ID), match.ID))
	}
	return res
}

// LocalTitles groups the titles of publishable documents by space.
func LocalTitles(docs []*document.Document) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{})
	for _, doc := range docs {
		if !doc.CanPublish() {
			continue
		}
		titles, ok := out[doc.Space]
		if !ok {
			titles = make(map[string]struct{})
			out[doc.Space] = titles
		}
		titles[doc.Title] = struct{}{}
	}
	return out
}

// Stale returns the titles of pages that are not in local and carry none of
// the protected labels, in listing order without repeats.
func Stale(pages []wiki.Page, local map[string]struct{}, protected []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, p := range pages {
		if _, ok := local[p.Title]; ok {
			continue
		}
		if _, ok := seen[p.Title]; ok {
			continue
		}
		if p.HasAnyLabel(protected) {
			continue
		}
		seen[p.Title] = struct{}{}
		out = append(out, p.Title)
	}
	return out
}

// Clean deletes every page of space and returns how many were removed.
// Without force, pages with a protected label are left in place.
func (e *Engine) Clean(ctx context.Context, space string, force bool) (int, error) {
	ctx = logging.WithSpace(logging.WithOperation(e.context(ctx), "clean"), space)
	logger := logging.FromContext(ctx)

	if e.store == nil || !e.store.CanPublish() {
		return 0, errors.ErrNotConfigured
	}
	pages, err := wiki.ListAll(ctx, e.store, space, e.batchSize)
	if err != nil {
		return 0, errors.WrapResource("list", "space", space, err)
	}

	var (
		merr    *multierror.Error
		deleted int
	)
	for _, p := range pages {
		pctx := logging.WithFields(ctx, map[string]any{"page_id": p.ID, "title": p.Title})
		if !force && p.HasAnyLabel(e.protected) {
			logging.FromContext(pctx).Info().Strs("labels", p.Labels).Msg("Skipping protected page")
			continue
		}
		if e.deletePage(pctx, p.ID) {
			deleted++
			continue
		}
		merr = multierror.Append(merr, &errors.ResourceError{
			Operation: "delete",
			Resource:  "page",
			ID:        p.ID,
			Message:   p.Title,
		})
	}
	logger.Info().Int("deleted", deleted).Int("pages", len(pages)).Msg("Cleaned space")
	return deleted, merr.ErrorOrNil()
}
