package walker

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slink-ws/asciidoc2confluence/pkg/document"
	"github.com/slink-ws/asciidoc2confluence/pkg/result"
	"github.com/slink-ws/asciidoc2confluence/pkg/tracker"
)

// brokenFs fails to open the named directories.
type brokenFs struct {
	afero.Fs
	broken map[string]bool
}

func (b *brokenFs) Open(name string) (afero.File, error) {
	if b.broken[filepath.Clean(name)] {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return b.Fs.Open(name)
}

func tree(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, body := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(body), 0o644))
	}
	return fs
}

// TestWalk visits every document once and merges the outcomes.
func TestWalk(t *testing.T) {
	fs := tree(t, map[string]string{
		"/docs/a.adoc":            "",
		"/docs/B.ADOC":            "",
		"/docs/notes.txt":         "",
		"/docs/sub/c.md":          "",
		"/docs/sub/deeper/d.adoc": "",
		"/docs/sub/image.png":     "",
	})
	w := New(fs)

	var mu sync.Mutex
	var seen []string
	res := w.Walk(context.Background(), "/docs", func(_ context.Context, path string) result.Result {
		mu.Lock()
		seen = append(seen, path)
		mu.Unlock()
		return result.Of(result.PublishSuccess)
	})

	assert.Equal(t, 4, res.Count(result.PublishSuccess))
	assert.ElementsMatch(t, []string{"/docs/a.adoc", "/docs/B.ADOC", "/docs/sub/c.md", "/docs/sub/deeper/d.adoc"}, seen)
}

// TestWalk_SingleFile handles a root that is a file.
func TestWalk_SingleFile(t *testing.T) {
	fs := tree(t, map[string]string{"/docs/a.adoc": "", "/docs/a.txt": ""})
	w := New(fs)
	fn := func(context.Context, string) result.Result { return result.Of(result.UpdateSuccess) }

	assert.Equal(t, result.Of(result.UpdateSuccess), w.Walk(context.Background(), "/docs/a.adoc", fn))
	assert.True(t, w.Walk(context.Background(), "/docs/a.txt", fn).IsZero())
	assert.Equal(t, result.Of(result.DirFailure), w.Walk(context.Background(), "/missing", fn))
}

// TestWalk_DirFailure isolates an unlistable subtree.
func TestWalk_DirFailure(t *testing.T) {
	fs := &brokenFs{
		Fs: tree(t, map[string]string{
			"/docs/a.adoc":        "",
			"/docs/locked/b.adoc": "",
			"/docs/open/c.adoc":   "",
		}),
		broken: map[string]bool{"/docs/locked": true},
	}
	w := New(fs)

	res := w.Walk(context.Background(), "/docs", func(context.Context, string) result.Result {
		return result.Of(result.PublishSuccess)
	})
	assert.Equal(t, 2, res.Count(result.PublishSuccess))
	assert.Equal(t, 1, res.Count(result.DirFailure))

	files, err := w.Files("/docs")
	assert.Error(t, err)
	assert.Equal(t, []string{"/docs/a.adoc", "/docs/open/c.adoc"}, files)
}

// TestWalk_Parallelism bounds concurrent callbacks.
func TestWalk_Parallelism(t *testing.T) {
	files := map[string]string{}
	for _, dir := range []string{"/d", "/d/x", "/d/y"} {
		for _, name := range []string{"1.adoc", "2.adoc", "3.adoc", "4.adoc"} {
			files[dir+"/"+name] = ""
		}
	}
	w := New(tree(t, files), WithParallelism(2))

	var active, peak atomic.Int32
	res := w.Walk(context.Background(), "/d", func(context.Context, string) result.Result {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return result.Of(result.SkipHidden)
	})

	assert.Equal(t, 12, res.Count(result.SkipHidden))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

// TestWithExtensions normalizes extension names.
func TestWithExtensions(t *testing.T) {
	w := New(afero.NewMemMapFs(), WithExtensions("MD", ".txt", " "))
	assert.True(t, w.Eligible("a.md"))
	assert.True(t, w.Eligible("a.TXT"))
	assert.False(t, w.Eligible("a.adoc"))
}

// TestCollect reads documents without feeding the tracker.
func TestCollect(t *testing.T) {
	fs := tree(t, map[string]string{
		"/docs/a.adoc":     ":DOCUMENT-TITLE: a\n:DOCUMENT-SPACE: DOCS\n",
		"/docs/sub/b.adoc": ":DOCUMENT-TITLE: b\n:DOCUMENT-SPACE: DOCS\n",
	})
	tr := tracker.New()
	reader := document.NewReader(fs, document.WithTracker(tr))

	docs := New(fs).Collect(context.Background(), "/docs", reader)

	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].Title)
	assert.Equal(t, "b", docs[1].Title)
	assert.Empty(t, tr.Report())
	assert.Zero(t, tr.Count("a"))
}
