// Package memory provides an in-process wiki.Store. It backs dry runs and
// the reconciler tests, and it mimics the remote store closely enough to
// exercise every path: duplicate titles are rejected, deletes go through the
// trash, and failures can be injected per operation.
package memory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/slink-ws/asciidoc2confluence/pkg/constants"
	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
	"github.com/slink-ws/asciidoc2confluence/pkg/wiki"
)

// Op names a store operation for failure injection and call recording.
type Op string

// Store operations.
const (
	OpFind         Op = "find"
	OpGet          Op = "get"
	OpCreate       Op = "create"
	OpUpdate       Op = "update"
	OpDelete       Op = "delete"
	OpPurge        Op = "purge"
	OpList         Op = "list"
	OpGetLabels    Op = "get_labels"
	OpAddLabels    Op = "add_labels"
	OpRemoveLabels Op = "remove_labels"
)

// Record is the stored state of a page.
type Record struct {
	ID       string
	Space    string
	Title    string
	ParentID string
	Status   string
	Body     string
	Version  int
	Labels   []string
	Trashed  bool
}

func (r *Record) page() wiki.Page {
	return wiki.Page{
		ID:      r.ID,
		Title:   r.Title,
		Space:   r.Space,
		Version: r.Version,
		Labels:  append([]string(nil), r.Labels...),
	}
}

// Call is one recorded store invocation.
type Call struct {
	Op  Op
	Arg string
}

// Store is an in-memory wiki.Store safe for concurrent use.
type Store struct {
	baseURL  string
	offline  bool
	nextID   atomic.Int64
	affected atomic.Int64

	// mu guards everything below.
	mu       sync.Mutex
	pages    map[string]*Record
	failures map[Op]error
	calls    []Call
	offsets  map[string][]int
}

// Option configures a Store.
type Option func(*Store)

// WithBaseURL sets the address used by PageURL.
func WithBaseURL(u string) Option {
	return func(s *Store) {
		s.baseURL = strings.TrimRight(u, "/")
	}
}

// Offline makes CanPublish report false.
func Offline() Option {
	return func(s *Store) {
		s.offline = true
	}
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		baseURL:  "memory://wiki",
		pages:    make(map[string]*Record),
		failures: make(map[Op]error),
		offsets:  make(map[string][]int),
	}
	s.affected.Store(-1)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed inserts a page directly and returns its id.
func (s *Store) Seed(page wiki.Page) string {
	id := page.ID
	if id == "" {
		id = strconv.FormatInt(s.nextID.Add(1), 10)
	}
	version := page.Version
	if version == 0 {
		version = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[id] = &Record{
		ID:      id,
		Space:   page.Space,
		Title:   page.Title,
		Status:  wiki.StatusCurrent,
		Version: version,
		Labels:  append([]string(nil), page.Labels...),
	}
	return id
}

// Fail makes every later call of op return err. A nil err clears it.
func (s *Store) Fail(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// SetDeleteAffected fixes the affected count DeletePage reports.
// A negative value restores the default of one per existing page.
func (s *Store) SetDeleteAffected(n int) {
	s.affected.Store(int64(n))
}

// Lookup returns a copy of the live page with title in space.
func (s *Store) Lookup(space, title string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.find(space, title); r != nil {
		out := *r
		out.Labels = append([]string(nil), r.Labels...)
		return out, true
	}
	return Record{}, false
}

// Titles returns the sorted titles of live pages in space.
func (s *Store) Titles(space string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var titles []string
	for _, r := range s.live(space) {
		titles = append(titles, r.Title)
	}
	sort.Strings(titles)
	return titles
}

// Calls returns the recorded invocations in order.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount returns how many times op was invoked.
func (s *Store) CallCount(op Op) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Mutations returns the number of create, update, delete and purge calls.
func (s *Store) Mutations() int {
	return s.CallCount(OpCreate) + s.CallCount(OpUpdate) + s.CallCount(OpDelete) + s.CallCount(OpPurge)
}

// ListOffsets returns the offsets requested by ListPages for space.
func (s *Store) ListOffsets(space string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.offsets[space]...)
}

func (s *Store) record(op Op, arg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: op, Arg: arg})
	return s.failures[op]
}

// live returns the non-trashed pages of space sorted by numeric id.
// Callers hold mu.
func (s *Store) live(space string) []*Record {
	var out []*Record
	for _, r := range s.pages {
		if r.Space == space && !r.Trashed {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[i].ID, out[j].ID) })
	return out
}

func (s *Store) find(space, title string) *Record {
	for _, r := range s.live(space) {
		if r.Title == title {
			return r
		}
	}
	return nil
}

func idLess(a, b string) bool {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return ai < bi
	}
	return a < b
}

func apiError(status int, msg string) error {
	return errors.NewAPIError(constants.ServiceName, status, msg)
}

// CanPublish implements wiki.Store.
func (s *Store) CanPublish() bool {
	return !s.offline
}

// PageURL implements wiki.Store.
func (s *Store) PageURL(space, title string) string {
	return fmt.Sprintf("%s%s/%s/%s", s.baseURL, constants.DisplayPath, space, strings.ReplaceAll(url.PathEscape(title), "%20", "+"))
}

// FindPageID implements wiki.Store.
func (s *Store) FindPageID(_ context.Context, space, title string) (string, error) {
	if err := s.record(OpFind, space+":"+title); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.find(space, title); r != nil {
		return r.ID, nil
	}
	return "", errors.NewNotFoundError("page", space+":"+title)
}

// GetPage implements wiki.Store.
func (s *Store) GetPage(_ context.Context, id string) (*wiki.Page, error) {
	if err := s.record(OpGet, id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.pages[id]
	if !ok || r.Trashed {
		return nil, apiError(http.StatusNotFound, "page "+id+" not found")
	}
	p := r.page()
	return &p, nil
}

// CreatePage implements wiki.Store.
func (s *Store) CreatePage(_ context.Context, page wiki.NewPage) (string, error) {
	if err := s.record(OpCreate, page.Space+":"+page.Title); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(page.Space, page.Title) != nil {
		return "", apiError(http.StatusBadRequest, "A page with this title already exists")
	}
	status := page.Status
	if status == "" {
		status = wiki.StatusCurrent
	}
	id := strconv.FormatInt(s.nextID.Add(1), 10)
	s.pages[id] = &Record{
		ID:       id,
		Space:    page.Space,
		Title:    page.Title,
		ParentID: page.ParentID,
		Status:   status,
		Body:     page.Body,
		Version:  1,
	}
	return id, nil
}

// UpdatePage implements wiki.Store.
func (s *Store) UpdatePage(_ context.Context, id string, update wiki.PageUpdate) error {
	if err := s.record(OpUpdate, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.pages[id]
	if !ok || r.Trashed {
		return apiError(http.StatusNotFound, "page "+id+" not found")
	}
	if update.Version != r.Version+1 {
		return apiError(http.StatusConflict, fmt.Sprintf("version %d does not follow %d", update.Version, r.Version))
	}
	if other := s.find(r.Space, update.Title); other != nil && other.ID != id {
		return apiError(http.StatusBadRequest, "A page with this title already exists")
	}
	r.Title = update.Title
	r.Version = update.Version
	r.Body = update.Body
	r.Status = update.Status
	return nil
}

// DeletePage implements wiki.Store.
func (s *Store) DeletePage(_ context.Context, id string) (int, error) {
	if err := s.record(OpDelete, id); err != nil {
		return 0, err
	}
	if n := s.affected.Load(); n >= 0 {
		return int(n), nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.pages[id]
	if !ok || r.Trashed {
		return 0, nil
	}
	r.Trashed = true
	return 1, nil
}

// PurgePage implements wiki.Store.
func (s *Store) PurgePage(_ context.Context, id string) error {
	if err := s.record(OpPurge, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.pages[id]
	if !ok || !r.Trashed {
		return apiError(http.StatusNotFound, "no trashed page "+id)
	}
	delete(s.pages, id)
	return nil
}

// ListPages implements wiki.Store.
func (s *Store) ListPages(_ context.Context, space string, offset, limit int) ([]wiki.Page, error) {
	s.mu.Lock()
	s.offsets[space] = append(s.offsets[space], offset)
	s.mu.Unlock()
	if err := s.record(OpList, space); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.live(space)
	if offset >= len(all) {
		return []wiki.Page{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	out := make([]wiki.Page, 0, end-offset)
	for _, r := range all[offset:end] {
		out = append(out, r.page())
	}
	return out, nil
}

// GetLabels implements wiki.Store.
func (s *Store) GetLabels(_ context.Context, id string) ([]string, error) {
	if err := s.record(OpGetLabels, id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.pages[id]
	if !ok {
		return nil, apiError(http.StatusNotFound, "page "+id+" not found")
	}
	return append([]string(nil), r.Labels...), nil
}

// AddLabels implements wiki.Store.
func (s *Store) AddLabels(_ context.Context, id string, labels []string) error {
	if err := s.record(OpAddLabels, id+":"+strings.Join(labels, ",")); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.pages[id]
	if !ok {
		return apiError(http.StatusNotFound, "page "+id+" not found")
	}
	for _, l := range labels {
		name := wiki.LabelName(l)
		if !contains(r.Labels, name) {
			r.Labels = append(r.Labels, name)
		}
	}
	return nil
}

// RemoveLabels implements wiki.Store.
func (s *Store) RemoveLabels(_ context.Context, id string, labels []string) error {
	if err := s.record(OpRemoveLabels, id+":"+strings.Join(labels, ",")); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.pages[id]
	if !ok {
		return apiError(http.StatusNotFound, "page "+id+" not found")
	}
	kept := r.Labels[:0]
	for _, l := range r.Labels {
		if !contains(labels, l) {
			kept = append(kept, l)
		}
	}
	r.Labels = kept
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var _ wiki.Store = (*Store)(nil)
