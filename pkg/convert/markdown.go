package convert

import (
	"bytes"
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
)

// Markdown renders Markdown with goldmark. XHTML output keeps void elements
// closed, which the storage format requires.
type Markdown struct {
	md goldmark.Markdown
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
}

// NewMarkdown builds a renderer with the named extensions. Unknown names are
// ignored; no names selects GFM, linkify and task lists.
func NewMarkdown(extensions ...string) *Markdown {
	return &Markdown{md: goldmark.New(
		goldmark.WithExtensions(collectExtensions(extensions)...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe(), html.WithXHTML()),
	)}
}

func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM, extension.Linkify, extension.TaskList}
	}
	var out []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ext)
	}
	return out
}

// Render implements Backend.
func (m *Markdown) Render(_ context.Context, env Env, source []byte) (string, error) {
	var buf bytes.Buffer
	if err := m.md.Convert(source, &buf); err != nil {
		return "", errors.WrapParse("markdown", env.Path, err)
	}
	return buf.String(), nil
}
