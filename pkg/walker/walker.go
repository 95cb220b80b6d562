// Package walker visits the document files below a root directory. Sibling
// files and subdirectories are processed concurrently and their outcomes are
// folded into a single result.
package walker

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/slink-ws/asciidoc2confluence/pkg/constants"
	"github.com/slink-ws/asciidoc2confluence/pkg/document"
	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
	"github.com/slink-ws/asciidoc2confluence/pkg/logging"
	"github.com/slink-ws/asciidoc2confluence/pkg/result"
)

// FileFunc handles one document file and reports its outcome.
type FileFunc func(ctx context.Context, path string) result.Result

// Walker finds document files on a filesystem.
type Walker struct {
	fs       afero.Fs
	exts     map[string]struct{}
	parallel int64
}

// Option configures a Walker.
type Option func(*Walker)

// WithExtensions replaces the set of file extensions treated as documents.
func WithExtensions(exts ...string) Option {
	return func(w *Walker) {
		w.exts = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			w.exts[ext] = struct{}{}
		}
	}
}

// WithParallelism bounds how many file callbacks run at once.
func WithParallelism(n int) Option {
	return func(w *Walker) {
		if n > 0 {
			w.parallel = int64(n)
		}
	}
}

// New creates a Walker over fs.
func New(fs afero.Fs, opts ...Option) *Walker {
	w := &Walker{
		fs:       fs,
		parallel: constants.DefaultParallelism,
	}
	WithExtensions(constants.DocumentExtensions...)(w)
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Eligible reports whether path has a document extension.
func (w *Walker) Eligible(path string) bool {
	_, ok := w.exts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Walk calls fn for every document below root and merges the outcomes. A
// directory that cannot be listed contributes one DirFailure and its
// siblings carry on. A root naming a single file is handled directly.
func (w *Walker) Walk(ctx context.Context, root string, fn FileFunc) result.Result {
	info, err := w.fs.Stat(root)
	if err != nil {
		logging.FromContext(ctx).Error().Err(errors.WrapIO("stat", root, err)).Msg("Cannot access input")
		return result.Of(result.DirFailure)
	}
	if !info.IsDir() {
		if !w.Eligible(root) {
			logging.FromContext(ctx).Warn().Str("path", root).Msg("Input is not a document file, skipping")
			return result.Empty
		}
		return fn(ctx, root)
	}
	sem := semaphore.NewWeighted(w.parallel)
	return w.walkDir(ctx, sem, root, fn)
}

func (w *Walker) walkDir(ctx context.Context, sem *semaphore.Weighted, dir string, fn FileFunc) result.Result {
	logger := logging.FromContext(ctx)

	entries, err := afero.ReadDir(w.fs, dir)
	if err != nil {
		logger.Error().Err(errors.WrapIO("list", dir, err)).Str("path", dir).Msg("Cannot list directory")
		return result.Of(result.DirFailure)
	}

	results := make([]result.Result, len(entries))
	var g errgroup.Group
	for i, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		switch {
		case entry.IsDir():
			g.Go(func() error {
				results[i] = w.walkDir(ctx, sem, path, fn)
				return nil
			})
		case w.Eligible(path):
			g.Go(func() error {
				if err := sem.Acquire(ctx, 1); err != nil {
					return err
				}
				defer sem.Release(1)
				results[i] = fn(ctx, path)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		logger.Warn().Err(err).Str("path", dir).Msg("Directory walk interrupted")
	}
	return result.MergeAll(results...)
}

// Files lists the documents below root in lexical order. Unlistable
// directories are skipped and reported together in the returned error.
func (w *Walker) Files(root string) ([]string, error) {
	var (
		files []string
		merr  *multierror.Error
	)
	err := afero.Walk(w.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			merr = multierror.Append(merr, errors.WrapIO("list", path, err))
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() && w.Eligible(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil && !errors.Is(err, filepath.SkipDir) {
		merr = multierror.Append(merr, err)
	}
	sort.Strings(files)
	return files, merr.ErrorOrNil()
}

// Collect reads every document below root without tracking titles. It never
// touches the remote store and is used to build the local title set for the
// stale sweep. Unreadable files are left out.
func (w *Walker) Collect(ctx context.Context, root string, reader *document.Reader) []*document.Document {
	logger := logging.FromContext(ctx)

	files, err := w.Files(root)
	if err != nil {
		logger.Warn().Err(err).Str("path", root).Msg("Document listing incomplete")
	}

	docs := make([]*document.Document, 0, len(files))
	for _, path := range files {
		doc, err := reader.Read(ctx, path, false)
		if err != nil {
			logger.Debug().Err(err).Str("path", path).Msg("Skipping unreadable document")
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}
