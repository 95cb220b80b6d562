package asciidoc2confluence

import (
	"sync"

	"github.com/slink-ws/asciidoc2confluence/pkg/document"
	"github.com/slink-ws/asciidoc2confluence/pkg/result"
)

// Hook function types for run events
type (
	// DocumentHook is called after a document has been processed
	DocumentHook func(doc *document.Document, res result.Result)

	// CleanHook is called after a space has been cleaned
	CleanHook func(space string, deleted int, err error)

	// SweepHook is called after stale pages have been swept
	SweepHook func(res result.Result)
)

// hooks manages event callbacks for a run
type hooks struct {
	mu         sync.RWMutex
	onDocument []DocumentHook
	onClean    []CleanHook
	onSweep    []SweepHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnDocument registers a callback for processed documents. Callbacks run on
// the walker goroutines and must be safe for concurrent use.
func (h *hooks) OnDocument(fn DocumentHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDocument = append(h.onDocument, fn)
}

// OnClean registers a callback for cleaned spaces
func (h *hooks) OnClean(fn CleanHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onClean = append(h.onClean, fn)
}

// OnSweep registers a callback for the stale sweep
func (h *hooks) OnSweep(fn SweepHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSweep = append(h.onSweep, fn)
}

func (h *hooks) document(doc *document.Document, res result.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onDocument {
		fn(doc, res)
	}
}

func (h *hooks) clean(space string, deleted int, err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onClean {
		fn(space, deleted, err)
	}
}

func (h *hooks) sweep(res result.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onSweep {
		fn(res)
	}
}
