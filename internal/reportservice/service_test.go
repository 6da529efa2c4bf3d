package reportservice

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/reportdesk/internal/apperr"
	"github.com/starford/reportdesk/internal/menu"
	"github.com/starford/reportdesk/internal/models"
	"github.com/starford/reportdesk/internal/session"
	"github.com/starford/reportdesk/internal/table"
	"github.com/starford/reportdesk/internal/testutil"
)

type navigation struct{ session, route string }

type recordingPublisher struct {
	mu  sync.Mutex
	got []navigation
}

func (p *recordingPublisher) PublishNavigate(sess, route string) {
	p.mu.Lock()
	p.got = append(p.got, navigation{sess, route})
	p.mu.Unlock()
}

type stubPeople struct {
	people []models.Person
	err    error
}

func (p stubPeople) List(context.Context) ([]models.Person, error) { return p.people, p.err }

func newTestService(t *testing.T, opts ...Option) (*Service, *recordingPublisher) {
	t.Helper()
	reports := testutil.SampleReports()
	_, files := testutil.TestFiles(t, reports)
	m, err := menu.Default()
	if err != nil {
		t.Fatal(err)
	}
	pub := &recordingPublisher{}
	opts = append([]Option{WithEvents(pub)}, opts...)
	svc := New(testutil.TestCatalog(t, reports), files, m, session.NewStore(time.Hour), opts...)
	return svc, pub
}

func rowIDs(rows []models.Report) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestList(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res := svc.List(ctx, Query{})
	if diff := cmp.Diff([]string{"1", "2"}, rowIDs(res.Rows)); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}
	if res.PageSize != table.DefaultPageSize || res.Total != 2 {
		t.Errorf("page = %+v", res.Page)
	}
	if res.Checksum == "" {
		t.Error("empty checksum")
	}

	st := table.State{}.WithColumnFilters(map[table.Column][]string{table.ColumnCategories: {"Financial"}})
	res = svc.List(ctx, Query{State: st})
	if diff := cmp.Diff([]string{"1"}, rowIDs(res.Rows)); diff != "" {
		t.Errorf("filtered rows (-want +got):\n%s", diff)
	}
	want := Options{
		table.ColumnCategories: {"Financial", "Research", "Analysis"},
		table.ColumnTopics:     {"Finance", "Q1", "Market", "Annual"},
	}
	if diff := cmp.Diff(want, res.Options); diff != "" {
		t.Errorf("options must come from the whole catalog (-want +got):\n%s", diff)
	}
}

func TestListPageSizeOption(t *testing.T) {
	svc, _ := newTestService(t, WithPageSize(1))
	res := svc.List(context.Background(), Query{Page: 2})
	if res.Page.Page != 2 || res.Pages != 2 || len(res.Rows) != 1 || res.Rows[0].ID != "2" {
		t.Errorf("page = %+v", res.Page)
	}
}

func TestOpenFile(t *testing.T) {
	svc, _ := newTestService(t)
	f, err := svc.OpenFile(context.Background(), "2")
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.File.Close()
	data, _ := io.ReadAll(f.File)
	if string(data) != "%PDF Annual Market Analysis" {
		t.Errorf("content = %q", data)
	}
	if _, err := svc.OpenFile(context.Background(), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestOpenFileMissingOnDisk(t *testing.T) {
	reports := []models.Report{{ID: "x", Title: "Ghost", Date: models.MustParseDate("2024-01-01"), FileName: "ghost.pdf"}}
	_, files := testutil.TestFiles(t, nil)
	m, _ := menu.Default()
	svc := New(testutil.TestCatalog(t, reports), files, m, session.NewStore(time.Hour))

	if _, err := svc.OpenFile(context.Background(), "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if diff := cmp.Diff([]string{"ghost.pdf"}, svc.MissingFiles(context.Background())); diff != "" {
		t.Errorf("missing (-want +got):\n%s", diff)
	}
}

func TestSessionLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	v, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.MenuKey != "1" || v.SidebarWidth != menu.ExpandedWidth || v.Rows.Total != 2 {
		t.Errorf("new session view = %+v", v)
	}

	v, err = svc.Search(ctx, v.ID, "  ANNUAL ")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"2"}, rowIDs(v.Rows.Rows)); diff != "" {
		t.Errorf("search rows (-want +got):\n%s", diff)
	}

	v, err = svc.ClearFilters(ctx, v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if v.Rows.Total != 2 {
		t.Errorf("clear filters total = %d", v.Rows.Total)
	}

	if err := svc.DeleteSession(ctx, v.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Session(ctx, v.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteSession(ctx, v.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestSessionDateRange(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	v, _ := svc.CreateSession(ctx)

	r := table.DateRange{Start: models.MustParseDate("2024-02-01"), End: models.MustParseDate("2024-03-31")}
	v, err := svc.SetDateRange(ctx, v.ID, r)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"1"}, rowIDs(v.Rows.Rows)); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}

	v, err = svc.SetDateRange(ctx, v.ID, table.DateRange{Start: models.MustParseDate("2024-02-01")})
	if err != nil {
		t.Fatal(err)
	}
	if v.Rows.Total != 2 {
		t.Errorf("half-open range should be inactive, total = %d", v.Rows.Total)
	}
}

func TestSessionSortAndReset(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	v, _ := svc.CreateSession(ctx)

	v, err := svc.CycleSort(ctx, v.ID, table.ColumnTitle)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"2", "1"}, rowIDs(v.Rows.Rows)); diff != "" {
		t.Errorf("title ascend (-want +got):\n%s", diff)
	}
	v, _ = svc.CycleSort(ctx, v.ID, table.ColumnTitle)
	if v.View.Sort.Direction != table.Descend {
		t.Errorf("second click direction = %q", v.View.Sort.Direction)
	}
	v, _ = svc.CycleSort(ctx, v.ID, table.ColumnTitle)
	if v.View.Sort.Active() {
		t.Errorf("third click should clear the sort, got %+v", v.View.Sort)
	}

	if _, err := svc.CycleSort(ctx, v.ID, table.ColumnTopics); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
	if _, err := svc.SetSort(ctx, v.ID, table.Sort{Column: table.ColumnDate, Direction: "sideways"}); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}

	v, _ = svc.SetSort(ctx, v.ID, table.Sort{Column: table.ColumnDate, Direction: table.Ascend})
	v, _ = svc.Search(ctx, v.ID, "report")
	v, _ = svc.ClearFilters(ctx, v.ID)
	if v.View.Sort.Column != table.ColumnDate {
		t.Error("clear filters must keep the sort")
	}
	v, _ = svc.Reset(ctx, v.ID)
	if v.View.Sort.Active() || v.View.Filters.Query != "" {
		t.Errorf("reset left state %+v", v.View)
	}
}

func TestSessionColumnFilters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	v, _ := svc.CreateSession(ctx)

	v, err := svc.SetColumnFilters(ctx, v.ID, map[table.Column][]string{table.ColumnTopics: {"Annual"}})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"2"}, rowIDs(v.Rows.Rows)); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}
	if _, err := svc.SetColumnFilters(ctx, v.ID, map[table.Column][]string{table.ColumnTitle: {"x"}}); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestSidebarToggleKeepsMenu(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	v, _ := svc.CreateSession(ctx)

	v, _ = svc.ToggleSidebar(ctx, v.ID)
	if !v.Sidebar.Collapsed || v.SidebarWidth != menu.CollapsedWidth {
		t.Errorf("collapsed view = %+v", v.Sidebar)
	}
	res, err := svc.ClickMenu(ctx, v.ID, "3")
	if err != nil {
		t.Fatal(err)
	}
	if res.Route != "/admin/export-activity-log" {
		t.Errorf("route while collapsed = %q", res.Route)
	}
}

func TestClickMenu(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()
	v, _ := svc.CreateSession(ctx)

	res, err := svc.ClickMenu(ctx, v.ID, "11")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Navigated || res.Route != "/submenu/option11" || res.Session.MenuKey != "11" {
		t.Errorf("click result = %+v", res)
	}

	res, err = svc.ClickMenu(ctx, v.ID, "sub2")
	if err != nil {
		t.Fatal(err)
	}
	if res.Navigated || res.Route != "" || res.Session.MenuKey != "11" {
		t.Errorf("group click should not navigate: %+v", res)
	}
	if _, err := svc.ClickMenu(ctx, v.ID, "does-not-exist"); err != nil {
		t.Errorf("unknown key err = %v", err)
	}

	want := []navigation{{v.ID, "/submenu/option11"}}
	if diff := cmp.Diff(want, pub.got, cmp.AllowUnexported(navigation{})); diff != "" {
		t.Errorf("navigations (-want +got):\n%s", diff)
	}

	if _, err := svc.ClickMenu(ctx, "missing", "1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestClickMenuWithoutEvents(t *testing.T) {
	reports := testutil.SampleReports()
	_, files := testutil.TestFiles(t, reports)
	m, _ := menu.Default()
	svc := New(testutil.TestCatalog(t, reports), files, m, session.NewStore(time.Hour))
	v, _ := svc.CreateSession(context.Background())

	res, err := svc.ClickMenu(context.Background(), v.ID, "2")
	if err != nil {
		t.Fatal(err)
	}
	if res.Navigated || res.Route != "/admin/manage-reports" {
		t.Errorf("click result = %+v", res)
	}
}

func TestSelectionActions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	v, _ := svc.CreateSession(ctx)

	if _, err := svc.SelectionAction(ctx, v.ID, ActionView); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("action without selection err = %v", err)
	}
	if _, err := svc.Select(ctx, v.ID, "404"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("select unknown report err = %v", err)
	}

	v, err := svc.Select(ctx, v.ID, "1")
	if err != nil {
		t.Fatal(err)
	}
	if v.Modal == nil || v.Modal.Title != "Quarterly Financial Report" {
		t.Fatalf("modal = %+v", v.Modal)
	}

	res, err := svc.SelectionAction(ctx, v.ID, ActionDownload)
	if err != nil {
		t.Fatal(err)
	}
	if res.URL != "/api/reports/1/download" || res.Report.FileName != "report1.pdf" {
		t.Errorf("action result = %+v", res)
	}
	if res.Session.ModalOpen() || res.Session.Modal != nil {
		t.Error("action should close the modal")
	}

	v, _ = svc.Select(ctx, v.ID, "2")
	v, _ = svc.Deselect(ctx, v.ID)
	if v.ModalOpen() {
		t.Error("deselect should close the modal")
	}
	if _, err := svc.SelectionAction(ctx, v.ID, "print"); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("unknown action err = %v", err)
	}
}

func TestPeople(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.People(context.Background()); !errors.Is(err, apperr.ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}

	want := []models.Person{{NRIC: "S1", FullName: "A", Email: "a@example.com"}}
	svc, _ = newTestService(t, WithPeople(stubPeople{people: want}))
	got, err := svc.People(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].NRIC != "S1" {
		t.Errorf("people = %+v", got)
	}
}
