package convert

import (
	"sort"
	"strings"

	"github.com/slink-ws/asciidoc2confluence/pkg/document"
	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
)

// Stage says whether a transform rewrites source text or rendered markup.
type Stage int

// Transform stages.
const (
	StagePre Stage = iota
	StagePost
)

func (s Stage) String() string {
	if s == StagePre {
		return "pre"
	}
	return "post"
}

// Env carries the per-document values transforms may depend on.
type Env struct {
	Space           string
	Path            string
	Format          document.Format
	DefaultLanguage string
}

// Transform is a named text rewrite.
type Transform struct {
	Name  string
	Stage Stage
	Apply func(env Env, in string) (string, error)
}

var registry = map[string]Transform{
	"children": {Name: "children", Stage: StagePre, Apply: childrenMacro},
	"pagetree": {Name: "pagetree", Stage: StagePre, Apply: pagetreeMacro},
	"notice":   {Name: "notice", Stage: StagePost, Apply: noticeBlocks},
	"toc":      {Name: "toc", Stage: StagePost, Apply: tocBlock},
	"latex":    {Name: "latex", Stage: StagePost, Apply: latexMarkers},
	"links":    {Name: "links", Stage: StagePost, Apply: wikiLinks},
	"code":     {Name: "code", Stage: StagePost, Apply: codeBlocks},
}

// Transforms lists the registered transform names per stage.
func Transforms() map[Stage][]string {
	out := map[Stage][]string{}
	for name, t := range registry {
		out[t.Stage] = append(out[t.Stage], name)
	}
	for _, names := range out {
		sort.Strings(names)
	}
	return out
}

func resolve(stage Stage, names []string) ([]Transform, error) {
	out := make([]Transform, 0, len(names))
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		t, ok := registry[key]
		if !ok {
			return nil, errors.NewConfigError("convert", "unknown transform "+name, nil)
		}
		if t.Stage != stage {
			return nil, errors.NewConfigError("convert", "transform "+name+" runs in the "+t.Stage.String()+" stage", nil)
		}
		out = append(out, t)
	}
	return out, nil
}
