package document

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
	"github.com/slink-ws/asciidoc2confluence/pkg/logging"
	"github.com/slink-ws/asciidoc2confluence/pkg/tracker"
)

// Reader loads documents from a filesystem.
type Reader struct {
	fs        afero.Fs
	markers   Markers
	overrides Overrides
	tracker   *tracker.Tracker
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMarkers replaces the directive tokens.
func WithMarkers(m Markers) ReaderOption {
	return func(r *Reader) {
		r.markers = m.withDefaults()
	}
}

// WithOverrides sets values that beat in-document directives.
func WithOverrides(o Overrides) ReaderOption {
	return func(r *Reader) {
		r.overrides = o
	}
}

// WithTracker sets the title tracker used when reading with track enabled.
func WithTracker(t *tracker.Tracker) ReaderOption {
	return func(r *Reader) {
		r.tracker = t
	}
}

// NewReader returns a Reader over fs. A nil fs reads the OS filesystem.
func NewReader(fs afero.Fs, opts ...ReaderOption) *Reader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	r := &Reader{
		fs:      fs,
		markers: DefaultMarkers(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tracker returns the title tracker, which may be nil.
func (r *Reader) Tracker() *tracker.Tracker {
	return r.tracker
}

// Read loads and parses path. With track set the title is recorded in the
// tracker and a repeat is logged; the sweep re-walk reads with track unset.
func (r *Reader) Read(ctx context.Context, path string, track bool) (*Document, error) {
	log := logging.FromContext(ctx).With().Str("path", path).Logger()

	source, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	doc, err := Parse(path, source, r.markers, r.overrides)
	if err != nil {
		return nil, err
	}

	if v, found := scan(doc.Body, r.markers)[dirHidden]; found && v != nil {
		if _, ok := ParseHidden(*v); !ok {
			log.Warn().Str("value", *v).Msg("Unrecognized hidden value, treating document as visible")
		}
	}

	if track && r.tracker != nil && doc.Title != "" {
		if r.tracker.Add(doc.Title) > 1 {
			log.Warn().Str("title", doc.Title).Msg("Suspected document title repeating, already processed in this batch")
		}
	}

	if doc.Title != "" && !TitleMatchesFile(path, doc.Title) {
		log.Warn().Str("title", doc.Title).Msg("Document title differs from file name")
	}

	return doc, nil
}

// TitleMatchesFile compares a title with the file base name, treating spaces
// as underscores and ignoring case.
func TitleMatchesFile(path, title string) bool {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	norm := func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
	}
	return norm(base) == norm(title)
}
