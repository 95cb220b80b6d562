package document

import (
	"bytes"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/goccy/go-yaml"

	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
)

type directive int

const (
	dirSpace directive = iota
	dirTitle
	dirOldTitle
	dirParent
	dirTags
	dirHidden
)

type markerEntry struct {
	token string
	dir   directive
}

// frontMatter is the optional YAML header of a document.
type frontMatter struct {
	Title    string   `yaml:"title"`
	OldTitle string   `yaml:"old_title"`
	Parent   string   `yaml:"parent"`
	Space    string   `yaml:"space"`
	Tags     []string `yaml:"tags"`
	Hidden   *bool    `yaml:"hidden"`
}

// known reports whether any publishing key was set.
func (m *frontMatter) known() bool {
	return m.Title != "" || m.OldTitle != "" || m.Parent != "" || m.Space != "" ||
		len(m.Tags) > 0 || m.Hidden != nil
}

var yamlFormat = frontmatter.NewFormat("---", "---", func(data []byte, v any) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	// A rule followed by prose is not front matter.
	if _, ok := raw.(map[string]any); !ok {
		return nil
	}
	return yaml.Unmarshal(data, v)
})

// splitFrontMatter separates the YAML header of a Markdown document from its
// body. Other formats, and headers without a publishing key, keep the source
// untouched.
func splitFrontMatter(path string, source []byte) (frontMatter, []byte, error) {
	var meta frontMatter
	if FormatOf(path) != FormatMarkdown {
		return meta, source, nil
	}
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta, yamlFormat)
	if err != nil {
		return meta, nil, errors.WrapParse("frontmatter", path, err)
	}
	if !meta.known() {
		return frontMatter{}, source, nil
	}
	return meta, body, nil
}

// directives holds the raw values found in the text. A nil entry means the
// marker was absent.
type directives map[directive]*string

// Parse builds a Document from source text. Overrides win over in-body
// directives, which win over Markdown front matter.
func Parse(path string, source []byte, markers Markers, overrides Overrides) (*Document, error) {
	meta, body, err := splitFrontMatter(path, source)
	if err != nil {
		return nil, err
	}

	found := scan(string(body), markers.withDefaults())

	doc := &Document{
		Path:   path,
		Format: FormatOf(path),
		Body:   string(body),
	}

	doc.Title = pick(found[dirTitle], meta.Title)
	doc.OldTitle = pick(found[dirOldTitle], meta.OldTitle)
	doc.Parent = pick(found[dirParent], meta.Parent)
	doc.Space = pick(found[dirSpace], meta.Space)
	if s := strings.TrimSpace(overrides.Space); s != "" {
		doc.Space = s
	}

	if v := found[dirTags]; v != nil {
		doc.Tags = SplitTags(*v)
	} else {
		doc.Tags = NormalizeTags(meta.Tags)
	}

	switch {
	case found[dirHidden] != nil:
		doc.Hidden, _ = ParseHidden(*found[dirHidden])
	case meta.Hidden != nil:
		doc.Hidden = *meta.Hidden
	}

	return doc, nil
}

// scan finds the first line containing each marker. Markers are tried
// longest first so a token that prefixes another never shadows it.
func scan(text string, m Markers) directives {
	entries := []markerEntry{
		{m.Space, dirSpace},
		{m.Title, dirTitle},
		{m.OldTitle, dirOldTitle},
		{m.Parent, dirParent},
		{m.Tags, dirTags},
		{m.Hidden, dirHidden},
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return len(entries[i].token) > len(entries[j].token)
	})

	found := make(directives, len(entries))
	for _, line := range strings.Split(text, "\n") {
		for _, e := range entries {
			idx := strings.Index(line, e.token)
			if idx < 0 {
				continue
			}
			if _, seen := found[e.dir]; !seen {
				v := directiveValue(line[idx+len(e.token):])
				found[e.dir] = &v
			}
			break
		}
		if len(found) == len(entries) {
			break
		}
	}
	return found
}

// directiveValue trims the text after a marker, dropping an HTML comment
// terminator so Markdown can carry directives inside <!-- -->.
func directiveValue(rest string) string {
	rest = strings.TrimSpace(strings.TrimRight(rest, "\r"))
	rest = strings.TrimSuffix(rest, "-->")
	return strings.TrimSpace(rest)
}

func pick(directive *string, fallback string) string {
	if directive != nil {
		return *directive
	}
	return strings.TrimSpace(fallback)
}

// SplitTags splits a comma separated tag list.
func SplitTags(raw string) []string {
	return NormalizeTags(strings.Split(raw, ","))
}

// NormalizeTags trims tags, drops blanks and removes repeats, keeping the
// first occurrence.
func NormalizeTags(tags []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ParseHidden interprets a hidden directive value. An empty value means the
// bare marker was present and counts as true. The second result is false when
// the value was not recognized.
func ParseHidden(value string) (hidden bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "true", "yes", "on", "1", "y", "t":
		return true, true
	case "false", "no", "off", "0", "n", "f":
		return false, true
	default:
		return false, false
	}
}
