// Package reportservice coordinates the catalog, table engine, file store,
// menu and sessions for the HTTP API and the MCP server.
package reportservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"

	"github.com/starford/reportdesk/internal/apperr"
	"github.com/starford/reportdesk/internal/catalog"
	"github.com/starford/reportdesk/internal/menu"
	"github.com/starford/reportdesk/internal/models"
	"github.com/starford/reportdesk/internal/session"
	"github.com/starford/reportdesk/internal/storage"
	"github.com/starford/reportdesk/internal/table"
)

// NavigationPublisher delivers a resolved route to a session's clients.
type NavigationPublisher interface {
	PublishNavigate(session, route string)
}

// PeopleSource lists the staff directory.
type PeopleSource interface {
	List(ctx context.Context) ([]models.Person, error)
}

// Options are the distinct tag values per filterable column.
type Options map[table.Column][]string

// Query is a stateless report listing request.
type Query struct {
	State    table.State
	Page     int
	PageSize int
}

// ListResult is one page of visible reports plus the column filter options.
type ListResult struct {
	table.Page
	Options  Options `json:"filter_options"`
	Checksum string  `json:"checksum"`
}

// ReportFile is an opened report file. The caller closes File.
type ReportFile struct {
	Report models.Report
	File   *os.File
	Info   fs.FileInfo
}

// Service coordinates report operations.
type Service struct {
	catalog  *catalog.Catalog
	files    storage.Provider
	menu     *menu.Menu
	sessions *session.Store
	events   NavigationPublisher
	people   PeopleSource
	pageSize int
}

// Option configures a Service.
type Option func(*Service)

// WithEvents routes menu navigation for sessions through p.
func WithEvents(p NavigationPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithPeople sets the staff directory source.
func WithPeople(p PeopleSource) Option {
	return func(s *Service) { s.people = p }
}

// WithPageSize sets the page size used when a request does not name one.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// New creates a report service.
func New(cat *catalog.Catalog, files storage.Provider, m *menu.Menu, sessions *session.Store, opts ...Option) *Service {
	s := &Service{
		catalog:  cat,
		files:    files,
		menu:     m,
		sessions: sessions,
		pageSize: table.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List filters, sorts and pages the catalog without touching any session.
func (s *Service) List(_ context.Context, q Query) ListResult {
	reports := s.catalog.Reports()
	size := q.PageSize
	if size <= 0 {
		size = s.pageSize
	}
	return ListResult{
		Page:     table.Paginate(table.VisibleRows(reports, q.State), q.Page, size),
		Options:  optionsOf(reports),
		Checksum: s.catalog.Checksum(),
	}
}

// FilterOptions returns the distinct values of every filterable column over
// the whole catalog.
func (s *Service) FilterOptions(_ context.Context) Options {
	return optionsOf(s.catalog.Reports())
}

// Get returns one report.
func (s *Service) Get(_ context.Context, id string) (models.Report, error) {
	return s.catalog.Get(id)
}

// OpenFile opens the file behind a report for viewing or download.
func (s *Service) OpenFile(_ context.Context, id string) (*ReportFile, error) {
	r, err := s.catalog.Get(id)
	if err != nil {
		return nil, err
	}
	if r.FileName == "" {
		return nil, fmt.Errorf("report %q has no file: %w", id, apperr.ErrNotFound)
	}
	f, info, err := s.files.Open(r.FileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("report %q file %s: %w", id, r.FileName, apperr.ErrNotFound)
		}
		return nil, err
	}
	return &ReportFile{Report: r, File: f, Info: info}, nil
}

// MissingFiles lists catalog file names that are absent from the file store.
func (s *Service) MissingFiles(_ context.Context) []string {
	reports := s.catalog.Reports()
	names := make([]string, 0, len(reports))
	for _, r := range reports {
		if r.FileName != "" {
			names = append(names, r.FileName)
		}
	}
	return s.files.Missing(names)
}

// Menu returns the navigation tree and its defaults.
func (s *Service) Menu(_ context.Context) menu.Definition {
	return s.menu.Definition()
}

// ResolveMenu returns the route for key without navigating.
func (s *Service) ResolveMenu(_ context.Context, key string) (string, bool) {
	return s.menu.Resolve(key)
}

// People lists the staff directory.
func (s *Service) People(ctx context.Context) ([]models.Person, error) {
	if s.people == nil {
		return nil, fmt.Errorf("people directory: %w", apperr.ErrUnavailable)
	}
	return s.people.List(ctx)
}

// FileURL returns the API path serving a report's file for action.
func FileURL(id string, action Action) string {
	return "/api/reports/" + url.PathEscape(id) + "/" + string(action)
}

func optionsOf(reports []models.Report) Options {
	out := make(Options, len(table.FilterableColumns))
	for _, c := range table.FilterableColumns {
		out[c] = table.FilterOptions(reports, c)
	}
	return out
}
