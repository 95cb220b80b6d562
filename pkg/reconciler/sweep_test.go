package reconciler

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slink-ws/asciidoc2confluence/internal/wiki/memory"
	"github.com/slink-ws/asciidoc2confluence/pkg/document"
	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
	"github.com/slink-ws/asciidoc2confluence/pkg/result"
	"github.com/slink-ws/asciidoc2confluence/pkg/wiki"
)

// TestSweep removes remote pages missing locally and keeps protected ones.
func TestSweep(t *testing.T) {
	store := memory.New()
	store.Seed(wiki.Page{Space: "DOCS", Title: "A", Version: 3})
	store.Seed(wiki.Page{Space: "DOCS", Title: "B"})
	store.Seed(wiki.Page{Space: "DOCS", Title: "Pinned", Labels: []string{"Keep_Me"}})
	store.Seed(wiki.Page{Space: "OTHER", Title: "Untouched"})
	e := newEngine(t, store, WithProtectedLabels("keep me"))

	res := e.Sweep(context.Background(), []*document.Document{doc("B")})

	assert.Equal(t, result.Of(result.DeleteSuccess), res)
	assert.Equal(t, []string{"B", "Pinned"}, store.Titles("DOCS"))
	assert.Equal(t, []string{"Untouched"}, store.Titles("OTHER"), "spaces without local documents are not swept")
}

// TestSweep_Paging lists a large space in fixed batches.
func TestSweep_Paging(t *testing.T) {
	store := memory.New()
	var docs []*document.Document
	for i := 0; i < 60; i++ {
		title := fmt.Sprintf("Page %02d", i)
		store.Seed(wiki.Page{Space: "DOCS", Title: title})
		docs = append(docs, doc(title))
	}
	e := newEngine(t, store)

	assert.True(t, e.Sweep(context.Background(), docs).IsZero())
	assert.Equal(t, []int{0, 25, 50, 75}, store.ListOffsets("DOCS"))
	assert.Zero(t, store.Mutations())
}

// TestSweep_Failures records delete failures and survives listing errors.
func TestSweep_Failures(t *testing.T) {
	t.Run("delete affects nothing", func(t *testing.T) {
		store := memory.New()
		store.Seed(wiki.Page{Space: "DOCS", Title: "Stale"})
		store.SetDeleteAffected(0)
		e := newEngine(t, store)

		assert.Equal(t, result.Of(result.DeleteFailure), e.Sweep(context.Background(), []*document.Document{doc("A")}))
	})

	t.Run("listing fails", func(t *testing.T) {
		store := memory.New()
		store.Seed(wiki.Page{Space: "DOCS", Title: "Stale"})
		store.Fail(memory.OpList, errors.NewAPIError("confluence", 503, "maintenance"))
		e := newEngine(t, store)

		assert.True(t, e.Sweep(context.Background(), []*document.Document{doc("A")}).IsZero())
		assert.Zero(t, store.Mutations())
	})

	t.Run("offline store", func(t *testing.T) {
		store := memory.New(memory.Offline())
		e := newEngine(t, store)
		assert.True(t, e.Sweep(context.Background(), []*document.Document{doc("A")}).IsZero())
		assert.Empty(t, store.Calls())
	})
}

// TestStale verifies the stale title computation.
func TestStale(t *testing.T) {
	pages := []wiki.Page{
		{Title: "A"},
		{Title: "B"},
		{Title: "A"},
		{Title: "C", Labels: []string{"protected"}},
		{Title: "D", Labels: []string{"other"}},
	}
	local := map[string]struct{}{"B": {}}

	assert.Equal(t, []string{"A", "D"}, Stale(pages, local, []string{"PROTECTED"}))
	assert.Equal(t, []string{"A", "C", "D"}, Stale(pages, local, nil))
}

// TestLocalTitles groups publishable documents by space.
func TestLocalTitles(t *testing.T) {
	other := doc("X")
	other.Space = "OTHER"
	incomplete := doc("Y")
	incomplete.Space = ""

	got := LocalTitles([]*document.Document{doc("A"), doc("B"), other, incomplete, nil})
	assert.Equal(t, map[string]map[string]struct{}{
		"DOCS":  {"A": {}, "B": {}},
		"OTHER": {"X": {}},
	}, got)
}

// TestClean deletes a whole space, sparing protected pages unless forced.
func TestClean(t *testing.T) {
	seed := func() *memory.Store {
		store := memory.New()
		store.Seed(wiki.Page{Space: "DOCS", Title: "A"})
		store.Seed(wiki.Page{Space: "DOCS", Title: "B"})
		store.Seed(wiki.Page{Space: "DOCS", Title: "Pinned", Labels: []string{"protected"}})
		return store
	}

	t.Run("without force", func(t *testing.T) {
		store := seed()
		e := newEngine(t, store, WithProtectedLabels("protected"))
		n, err := e.Clean(context.Background(), "DOCS", false)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, []string{"Pinned"}, store.Titles("DOCS"))
	})

	t.Run("with force", func(t *testing.T) {
		store := seed()
		e := newEngine(t, store, WithProtectedLabels("protected"))
		n, err := e.Clean(context.Background(), "DOCS", true)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Empty(t, store.Titles("DOCS"))
	})

	t.Run("delete failures are aggregated", func(t *testing.T) {
		store := seed()
		store.SetDeleteAffected(0)
		e := newEngine(t, store)
		n, err := e.Clean(context.Background(), "DOCS", true)
		assert.Zero(t, n)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "3 errors occurred")
	})

	t.Run("not configured", func(t *testing.T) {
		e := newEngine(t, memory.New(memory.Offline()))
		_, err := e.Clean(context.Background(), "DOCS", true)
		assert.ErrorIs(t, err, errors.ErrNotConfigured)
	})

	t.Run("listing fails", func(t *testing.T) {
		store := seed()
		store.Fail(memory.OpList, errors.NewAPIError("confluence", 500, "boom"))
		e := newEngine(t, store)
		_, err := e.Clean(context.Background(), "DOCS", true)
		assert.Error(t, err)
	})
}

// TestEndToEnd_RenameThenSweep follows a rename with a stale sweep.
func TestEndToEnd_RenameThenSweep(t *testing.T) {
	for _, protect := range []bool{false, true} {
		t.Run(fmt.Sprintf("protected=%t", protect), func(t *testing.T) {
			store := memory.New()
			var labels []string
			if protect {
				labels = []string{"protected"}
			}
			store.Seed(wiki.Page{Space: "DOCS", Title: "A", Version: 3, Labels: labels})
			oldB := store.Seed(wiki.Page{Space: "DOCS", Title: "Old-B", Version: 3})
			e := newEngine(t, store, WithProtectedLabels("protected"))

			b := doc("B")
			b.OldTitle = "Old-B"
			res := e.Reconcile(context.Background(), b)
			assert.Equal(t, result.Of(result.UpdateSuccess), res)

			rec, ok := store.Lookup("DOCS", "B")
			require.True(t, ok)
			assert.Equal(t, oldB, rec.ID)
			assert.Equal(t, 4, rec.Version)

			swept := e.Sweep(context.Background(), []*document.Document{b})
			if protect {
				assert.True(t, swept.IsZero())
				assert.Equal(t, []string{"A", "B"}, store.Titles("DOCS"))
			} else {
				assert.Equal(t, result.Of(result.DeleteSuccess), swept)
				assert.Equal(t, []string{"B"}, store.Titles("DOCS"))
			}
		})
	}
}
