// Package confluence implements wiki.Store against the Confluence content
// REST API.
package confluence

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/slink-ws/asciidoc2confluence/internal/transport"
	"github.com/slink-ws/asciidoc2confluence/pkg/constants"
	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
	"github.com/slink-ws/asciidoc2confluence/pkg/wiki"
)

const representationStorage = "storage"

// Config holds the connection settings.
type Config struct {
	URL      string
	User     string
	Password string
	Token    string
	Retries  int
	Timeout  time.Duration
}

// Client talks to one Confluence instance.
type Client struct {
	http    *transport.Client
	baseURL string
}

// New creates a client. Extra transport options are applied after the ones
// derived from cfg.
func New(cfg Config, opts ...transport.Option) *Client {
	var auth transport.Authenticator = &transport.BasicAuth{User: cfg.User, Password: cfg.Password}
	if cfg.Token != "" {
		auth = &transport.BearerAuth{Token: cfg.Token}
	}

	base := []transport.Option{transport.WithRetries(cfg.Retries)}
	if cfg.Timeout > 0 {
		base = append(base, transport.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}

	hc := transport.New(cfg.URL, auth, append(base, opts...)...)
	return &Client{http: hc, baseURL: hc.BaseURL()}
}

// CanPublish implements wiki.Store.
func (c *Client) CanPublish() bool {
	return c.baseURL != ""
}

// PageURL implements wiki.Store.
func (c *Client) PageURL(spaceKey, title string) string {
	return fmt.Sprintf("%s%s/%s/%s", c.baseURL, constants.DisplayPath, spaceKey, displayTitle(title))
}

func displayTitle(title string) string {
	return strings.ReplaceAll(url.PathEscape(title), "%20", "+")
}

func contentPath(parts ...string) string {
	p := constants.ContentPath
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if !c.CanPublish() {
		return errors.ErrNotConfigured
	}
	resp, err := c.http.Do(ctx, method, path, query, in)
	if err != nil {
		return err
	}
	return transport.DecodeResponse(resp, out)
}

// FindPageID implements wiki.Store. Any 4xx answer is reported as not found.
func (c *Client) FindPageID(ctx context.Context, spaceKey, title string) (string, error) {
	query := url.Values{
		"title":    {title},
		"spaceKey": {spaceKey},
		"expand":   {"history"},
	}
	var list contentList
	if err := c.call(ctx, http.MethodGet, contentPath(), query, nil, &list); err != nil {
		if errors.IsClientError(err) {
			return "", errors.Join(errors.NewNotFoundError("page", spaceKey+":"+title), err)
		}
		return "", err
	}
	if len(list.Results) == 0 {
		return "", errors.NewNotFoundError("page", spaceKey+":"+title)
	}
	return list.Results[0].ID, nil
}

// GetPage implements wiki.Store.
func (c *Client) GetPage(ctx context.Context, id string) (*wiki.Page, error) {
	var out content
	query := url.Values{"expand": {"version,space,metadata.labels"}}
	if err := c.call(ctx, http.MethodGet, contentPath(id), query, nil, &out); err != nil {
		return nil, errors.WrapResource("fetch", "page", id, err)
	}
	page := toPage(out)
	return &page, nil
}

// CreatePage implements wiki.Store.
func (c *Client) CreatePage(ctx context.Context, page wiki.NewPage) (string, error) {
	in := content{
		Type:   "page",
		Title:  page.Title,
		Status: page.Status,
		Space:  &space{Key: page.Space},
		Body:   &body{Storage: storage{Value: page.Body, Representation: representationStorage}},
	}
	if page.ParentID != "" {
		in.Ancestors = []ancestor{{ID: page.ParentID}}
	}

	var out content
	if err := c.call(ctx, http.MethodPost, contentPath(), nil, in, &out); err != nil {
		return "", errors.WrapResource("create", "page", page.Title, err)
	}
	return out.ID, nil
}

// UpdatePage implements wiki.Store.
func (c *Client) UpdatePage(ctx context.Context, id string, update wiki.PageUpdate) error {
	in := content{
		ID:      id,
		Type:    "page",
		Title:   update.Title,
		Status:  update.Status,
		Version: &version{Number: update.Version},
		Body:    &body{Storage: storage{Value: update.Body, Representation: representationStorage}},
	}
	if err := c.call(ctx, http.MethodPut, contentPath(id), nil, in, nil); err != nil {
		return errors.WrapResource("update", "page", id, err)
	}
	return nil
}

// DeletePage implements wiki.Store. A successful trash move affects one page.
func (c *Client) DeletePage(ctx context.Context, id string) (int, error) {
	if err := c.call(ctx, http.MethodDelete, contentPath(id), nil, nil, nil); err != nil {
		return 0, errors.WrapResource("delete", "page", id, err)
	}
	return 1, nil
}

// PurgePage implements wiki.Store.
func (c *Client) PurgePage(ctx context.Context, id string) error {
	query := url.Values{"status": {"trashed"}}
	if err := c.call(ctx, http.MethodDelete, contentPath(id), query, nil, nil); err != nil {
		return errors.WrapResource("purge", "page", id, err)
	}
	return nil
}

// ListPages implements wiki.Store.
func (c *Client) ListPages(ctx context.Context, spaceKey string, offset, limit int) ([]wiki.Page, error) {
	query := url.Values{
		"type":     {"page"},
		"spaceKey": {spaceKey},
		"expand":   {"metadata.labels"},
		"start":    {strconv.Itoa(offset)},
		"limit":    {strconv.Itoa(limit)},
	}
	var list contentList
	if err := c.call(ctx, http.MethodGet, contentPath(), query, nil, &list); err != nil {
		return nil, errors.WrapResource("list", "space", spaceKey, err)
	}
	pages := make([]wiki.Page, 0, len(list.Results))
	for _, item := range list.Results {
		p := toPage(item)
		if p.Space == "" {
			p.Space = spaceKey
		}
		pages = append(pages, p)
	}
	return pages, nil
}

// GetLabels implements wiki.Store.
func (c *Client) GetLabels(ctx context.Context, id string) ([]string, error) {
	var list labelList
	if err := c.call(ctx, http.MethodGet, contentPath(id, "label"), nil, nil, &list); err != nil {
		return nil, errors.WrapResource("fetch", "label", id, err)
	}
	names := make([]string, 0, len(list.Results))
	for _, l := range list.Results {
		names = append(names, l.Name)
	}
	return names, nil
}

// AddLabels implements wiki.Store.
func (c *Client) AddLabels(ctx context.Context, id string, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	in := make([]label, 0, len(labels))
	for _, l := range labels {
		in = append(in, label{Prefix: constants.LabelPrefix, Name: wiki.LabelName(l)})
	}
	if err := c.call(ctx, http.MethodPost, contentPath(id, "label"), nil, in, nil); err != nil {
		return errors.WrapResource("label", "page", id, err)
	}
	return nil
}

// RemoveLabels implements wiki.Store. Each label is a separate request; all
// failures are returned together.
func (c *Client) RemoveLabels(ctx context.Context, id string, labels []string) error {
	var result *multierror.Error
	for _, l := range labels {
		query := url.Values{"name": {wiki.LabelName(l)}}
		if err := c.call(ctx, http.MethodDelete, contentPath(id, "label"), query, nil, nil); err != nil {
			result = multierror.Append(result, errors.WrapResource("unlabel", "page", id+":"+l, err))
		}
	}
	return result.ErrorOrNil()
}

func toPage(c content) wiki.Page {
	p := wiki.Page{
		ID:     c.ID,
		Title:  c.Title,
		Labels: c.labelNames(),
	}
	if c.Space != nil {
		p.Space = c.Space.Key
	}
	if c.Version != nil {
		p.Version = c.Version.Number
	}
	return p
}

var _ wiki.Store = (*Client)(nil)
