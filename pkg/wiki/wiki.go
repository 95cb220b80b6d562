// Package wiki defines the remote page store the publisher reconciles
// against, together with the page model shared by its implementations.
package wiki

import (
	"context"
	"strings"
)

// StatusCurrent is the status of a live, non-draft page.
const StatusCurrent = "current"

// Page is a remote page as seen by the reconciler.
type Page struct {
	ID      string   `json:"id" yaml:"id"`
	Title   string   `json:"title" yaml:"title"`
	Space   string   `json:"space,omitempty" yaml:"space,omitempty"`
	Version int      `json:"version" yaml:"version"`
	Labels  []string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// HasAnyLabel reports whether the page carries one of labels.
func (p Page) HasAnyLabel(labels []string) bool {
	for _, want := range labels {
		for _, have := range p.Labels {
			if strings.EqualFold(have, LabelName(want)) {
				return true
			}
		}
	}
	return false
}

// NewPage describes a page to create.
type NewPage struct {
	Space    string
	Title    string
	ParentID string
	Status   string
	Body     string
}

// PageUpdate describes a full replacement of a page's title and body.
type PageUpdate struct {
	Title   string
	Version int
	Status  string
	Body    string
}

// Store is the remote page store. Lookups report an absent page with an error
// satisfying errors.IsNotFound.
type Store interface {
	// CanPublish reports whether the store is configured for remote calls.
	CanPublish() bool
	// PageURL returns the human-facing address of a page.
	PageURL(space, title string) string

	FindPageID(ctx context.Context, space, title string) (string, error)
	GetPage(ctx context.Context, id string) (*Page, error)
	CreatePage(ctx context.Context, page NewPage) (string, error)
	UpdatePage(ctx context.Context, id string, update PageUpdate) error
	// DeletePage moves a page to the trash and returns the number of pages affected.
	DeletePage(ctx context.Context, id string) (int, error)
	// PurgePage removes a trashed page permanently.
	PurgePage(ctx context.Context, id string) error
	ListPages(ctx context.Context, space string, offset, limit int) ([]Page, error)

	GetLabels(ctx context.Context, id string) ([]string, error)
	AddLabels(ctx context.Context, id string, labels []string) error
	RemoveLabels(ctx context.Context, id string, labels []string) error
}

// LabelName converts a tag into a valid label. Labels cannot contain spaces.
func LabelName(tag string) string {
	return strings.ReplaceAll(strings.TrimSpace(tag), " ", "_")
}

// ListAll pages through a space batch by batch from offset zero until an
// empty batch is returned.
func ListAll(ctx context.Context, store Store, space string, batch int) ([]Page, error) {
	if batch <= 0 {
		batch = 25
	}
	var all []Page
	for offset := 0; ; offset += batch {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		pages, err := store.ListPages(ctx, space, offset, batch)
		if err != nil {
			return all, err
		}
		if len(pages) == 0 {
			return all, nil
		}
		all = append(all, pages...)
	}
}
