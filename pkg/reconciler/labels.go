package reconciler

import (
	"strings"

	"github.com/slink-ws/asciidoc2confluence/pkg/wiki"
)

// DiffLabels returns the remote labels missing from tags and the tags
// missing from remote. Tags are compared in label form and case-insensitively.
func DiffLabels(remote, tags []string) (remove, add []string) {
	want := make(map[string]struct{}, len(tags))
	for _, t := range labelNames(tags) {
		want[strings.ToLower(t)] = struct{}{}
	}
	have := make(map[string]struct{}, len(remote))
	for _, r := range remote {
		key := strings.ToLower(r)
		have[key] = struct{}{}
		if _, ok := want[key]; !ok {
			remove = append(remove, r)
		}
	}
	for _, t := range labelNames(tags) {
		if _, ok := have[strings.ToLower(t)]; !ok {
			add = append(add, t)
		}
	}
	return remove, add
}

// labelNames converts tags to label names, dropping blanks and repeats.
func labelNames(tags []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		name := wiki.LabelName(t)
		key := strings.ToLower(name)
		if name == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}
