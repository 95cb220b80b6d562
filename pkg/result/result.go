// Package result holds the per-run outcome tally. A Result is an immutable
// value: every operation returns a new Result, so results from concurrent
// subtrees can be combined without locking.
package result

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Kind is the outcome of processing one document or directory.
type Kind int

// Outcome kinds.
const (
	PublishSuccess Kind = iota
	PublishFailure
	UpdateSuccess
	UpdateFailure
	DeleteSuccess
	DeleteFailure
	SkipHidden
	ReadFailure
	DirFailure

	numKinds
)

var kindNames = [numKinds]string{
	PublishSuccess: "publish_success",
	PublishFailure: "publish_failure",
	UpdateSuccess:  "update_success",
	UpdateFailure:  "update_failure",
	DeleteSuccess:  "delete_success",
	DeleteFailure:  "delete_failure",
	SkipHidden:     "skip_hidden",
	ReadFailure:    "read_failure",
	DirFailure:     "dir_failure",
}

// Kinds lists every outcome kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, numKinds)
	for i := range kinds {
		kinds[i] = Kind(i)
	}
	return kinds
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsFailure reports whether the kind counts against the run.
func (k Kind) IsFailure() bool {
	switch k {
	case PublishFailure, UpdateFailure, DeleteFailure, ReadFailure, DirFailure:
		return true
	}
	return false
}

// ParseKind converts a kind name back into a Kind.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(name, s) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown result kind %q", s)
}

// Result is a multiset of outcome kinds.
type Result struct {
	counts [numKinds]int
}

// Empty is the identity for Merge.
var Empty = Result{}

// Of returns a Result holding one count per given kind.
func Of(kinds ...Kind) Result {
	var r Result
	for _, k := range kinds {
		r = r.Add(k)
	}
	return r
}

// Add returns a copy of r with one more occurrence of kind.
func (r Result) Add(kind Kind) Result {
	if kind < 0 || kind >= numKinds {
		return r
	}
	r.counts[kind]++
	return r
}

// Merge returns the kind-wise sum of r and other.
func (r Result) Merge(other Result) Result {
	for i := range r.counts {
		r.counts[i] += other.counts[i]
	}
	return r
}

// MergeAll folds results with Merge starting from Empty.
func MergeAll(results ...Result) Result {
	acc := Empty
	for _, r := range results {
		acc = acc.Merge(r)
	}
	return acc
}

// Count returns the number of occurrences of kind.
func (r Result) Count(kind Kind) int {
	if kind < 0 || kind >= numKinds {
		return 0
	}
	return r.counts[kind]
}

// Total returns the number of outcomes recorded.
func (r Result) Total() int {
	total := 0
	for _, c := range r.counts {
		total += c
	}
	return total
}

// Failures returns the number of failure outcomes recorded.
func (r Result) Failures() int {
	total := 0
	for i, c := range r.counts {
		if Kind(i).IsFailure() {
			total += c
		}
	}
	return total
}

// IsZero reports whether nothing was recorded.
func (r Result) IsZero() bool {
	return r == Empty
}

// Counts returns the non-zero counts keyed by kind.
func (r Result) Counts() map[Kind]int {
	out := make(map[Kind]int)
	for i, c := range r.counts {
		if c > 0 {
			out[Kind(i)] = c
		}
	}
	return out
}

// String renders non-zero counts in declaration order.
func (r Result) String() string {
	parts := make([]string, 0, numKinds)
	for i, c := range r.counts {
		if c > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", Kind(i), c))
		}
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// MarshalJSON encodes every kind with its count.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.asMap())
}

// UnmarshalJSON decodes the map form produced by MarshalJSON.
func (r *Result) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	return r.fromMap(m)
}

// MarshalYAML encodes every kind with its count.
func (r Result) MarshalYAML() (any, error) {
	return r.asMap(), nil
}

func (r Result) asMap() map[string]int {
	m := make(map[string]int, numKinds)
	for i, c := range r.counts {
		m[Kind(i).String()] = c
	}
	return m
}

func (r *Result) fromMap(m map[string]int) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out Result
	for _, name := range keys {
		kind, err := ParseKind(name)
		if err != nil {
			return err
		}
		out.counts[kind] = m[name]
	}
	*r = out
	return nil
}
