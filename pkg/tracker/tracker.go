// Package tracker counts document titles seen during a run so repeated
// titles can be reported.
package tracker

import (
	"sort"

	"github.com/puzpuzpuz/xsync/v3"
)

// Duplicate is a title observed more than once.
type Duplicate struct {
	Title string `json:"title" yaml:"title"`
	Count int    `json:"count" yaml:"count"`
}

// Tracker is a concurrency-safe title counter. The zero value is not usable;
// construct with New.
type Tracker struct {
	counts *xsync.MapOf[string, int]
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{counts: xsync.NewMapOf[string, int]()}
}

// Add increments the count for title and returns the new count.
func (t *Tracker) Add(title string) int {
	n, _ := t.counts.Compute(title, func(old int, _ bool) (int, bool) {
		return old + 1, false
	})
	return n
}

// Count returns how many times title was added.
func (t *Tracker) Count(title string) int {
	n, _ := t.counts.Load(title)
	return n
}

// Report returns the titles seen more than once with their counts.
func (t *Tracker) Report() map[string]int {
	out := make(map[string]int)
	t.counts.Range(func(title string, n int) bool {
		if n > 1 {
			out[title] = n
		}
		return true
	})
	return out
}

// Duplicates returns Report as a slice sorted by title.
func (t *Tracker) Duplicates() []Duplicate {
	report := t.Report()
	out := make([]Duplicate, 0, len(report))
	for title, n := range report {
		out = append(out, Duplicate{Title: title, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}
