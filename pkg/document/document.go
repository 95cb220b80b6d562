// Package document reads source documents and extracts the publishing
// directives embedded in them: target space, title, previous title, parent
// page, tags and the hidden flag.
package document

import (
	"fmt"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/slink-ws/asciidoc2confluence/pkg/constants"
)

// Format is the source markup of a document.
type Format string

// Supported source formats.
const (
	FormatAsciiDoc Format = "asciidoc"
	FormatMarkdown Format = "markdown"
)

// FormatOf derives the source format from a file extension.
// Anything that is not Markdown is treated as AsciiDoc.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatAsciiDoc
	}
}

// Document is a source file with its publishing metadata resolved.
type Document struct {
	Path     string   `json:"path" yaml:"path"`
	Title    string   `json:"title" yaml:"title"`
	OldTitle string   `json:"old_title,omitempty" yaml:"old_title,omitempty"`
	Parent   string   `json:"parent,omitempty" yaml:"parent,omitempty"`
	Space    string   `json:"space" yaml:"space"`
	Tags     []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Hidden   bool     `json:"hidden" yaml:"hidden"`
	Format   Format   `json:"format" yaml:"format"`
	Body     string   `json:"-" yaml:"-"`
}

// Validate checks that the document identifies a page.
func (d *Document) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Title, validation.Required, validation.RuneLength(1, constants.MaxTitleLength)),
		validation.Field(&d.Space, validation.Required),
	)
}

// CanPublish reports whether both title and space are present.
func (d *Document) CanPublish() bool {
	return d != nil && d.Validate() == nil
}

// LookupTitles returns the titles to search for on the remote side, the
// previous title first.
func (d *Document) LookupTitles() []string {
	if d.OldTitle != "" && d.OldTitle != d.Title {
		return []string{d.OldTitle, d.Title}
	}
	return []string{d.Title}
}

// String implements fmt.Stringer.
func (d *Document) String() string {
	return fmt.Sprintf("%s [space=%s title=%q old=%q parent=%q tags=%v hidden=%t]",
		d.Path, d.Space, d.Title, d.OldTitle, d.Parent, d.Tags, d.Hidden)
}

// Markers are the directive tokens searched for in document text.
type Markers struct {
	Space    string `mapstructure:"space" yaml:"space"`
	Title    string `mapstructure:"title" yaml:"title"`
	OldTitle string `mapstructure:"old_title" yaml:"old_title"`
	Parent   string `mapstructure:"parent" yaml:"parent"`
	Tags     string `mapstructure:"tags" yaml:"tags"`
	Hidden   string `mapstructure:"hidden" yaml:"hidden"`
}

// DefaultMarkers returns the standard directive tokens.
func DefaultMarkers() Markers {
	return Markers{
		Space:    ":DOCUMENT-SPACE:",
		Title:    ":DOCUMENT-TITLE:",
		OldTitle: ":DOCUMENT-TITLE-OLD:",
		Parent:   ":DOCUMENT-PARENT:",
		Tags:     ":DOCUMENT-TAGS:",
		Hidden:   ":DOCUMENT-HIDDEN:",
	}
}

// withDefaults fills blank markers from DefaultMarkers.
func (m Markers) withDefaults() Markers {
	def := DefaultMarkers()
	if m.Space == "" {
		m.Space = def.Space
	}
	if m.Title == "" {
		m.Title = def.Title
	}
	if m.OldTitle == "" {
		m.OldTitle = def.OldTitle
	}
	if m.Parent == "" {
		m.Parent = def.Parent
	}
	if m.Tags == "" {
		m.Tags = def.Tags
	}
	if m.Hidden == "" {
		m.Hidden = def.Hidden
	}
	return m
}

// Overrides are configuration values that beat in-document directives.
type Overrides struct {
	Space string
}
