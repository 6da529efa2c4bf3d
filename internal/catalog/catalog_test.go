package catalog

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/reportdesk/internal/apperr"
	"github.com/starford/reportdesk/internal/models"
)

const sampleYAML = `reports:
  - id: "1"
    title: Quarterly Financial Report
    date: 2024-03-01
    file_name: report1.pdf
    topics: [Finance, Q1]
    categories: [Financial]
    keywords: [Revenue, Growth]
  - id: "2"
    title: Annual Market Analysis
    date: 2024-01-15
    file_name: report2.pdf
    topics: [Market, Annual]
    categories: [Research, Analysis]
    keywords: [Trends, Competition]
`

func writeCatalog(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "reports.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestYAMLFileLoad(t *testing.T) {
	path := writeCatalog(t, t.TempDir(), sampleYAML)
	c, err := Open(context.Background(), NewYAMLFile(path))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	reports := c.Reports()
	if len(reports) != 2 {
		t.Fatalf("reports = %d, want 2", len(reports))
	}
	if reports[0].Title != "Quarterly Financial Report" || reports[1].Date.String() != "2024-01-15" {
		t.Errorf("unexpected reports: %+v", reports)
	}
	if len(reports[1].Categories) != 2 {
		t.Errorf("categories = %v", reports[1].Categories)
	}
	if c.Checksum() == "" || c.LoadedAt().IsZero() {
		t.Error("checksum and load time should be set")
	}
}

func TestDecodeYAMLRejectsUnknownKeys(t *testing.T) {
	_, err := DecodeYAML([]byte("reports:\n  - id: x\n    titel: typo\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestDecodeYAMLEmpty(t *testing.T) {
	reports, err := DecodeYAML(nil)
	if err != nil || len(reports) != 0 {
		t.Errorf("empty document = %v, %v", reports, err)
	}
}

func TestEncodeDecodeYAML(t *testing.T) {
	in, err := DecodeYAML([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	data, err := EncodeYAML(in)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "date: \"2024-03-01\"") && !strings.Contains(string(data), "date: 2024-03-01") {
		t.Errorf("encoded date missing:\n%s", data)
	}
	out, err := DecodeYAML(data)
	if err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	if len(out) != 2 || out[1].ID != "2" || !out[1].Date.Equal(in[1].Date) {
		t.Errorf("re-decoded = %+v", out)
	}
}

func TestReloadKeepsSnapshotOnError(t *testing.T) {
	path := writeCatalog(t, t.TempDir(), sampleYAML)
	c, err := Open(context.Background(), NewYAMLFile(path))
	if err != nil {
		t.Fatal(err)
	}
	sum := c.Checksum()

	writeCatalog(t, filepath.Dir(path), "reports:\n  - id: \"1\"\n    title: no date\n")
	if _, err := c.Reload(context.Background()); err == nil {
		t.Fatal("expected validation error")
	}
	if c.Checksum() != sum || len(c.Reports()) != 2 {
		t.Error("failed reload replaced the snapshot")
	}
}

func TestReloadReportsChange(t *testing.T) {
	path := writeCatalog(t, t.TempDir(), sampleYAML)
	c, err := Open(context.Background(), NewYAMLFile(path))
	if err != nil {
		t.Fatal(err)
	}
	changed, err := c.Reload(context.Background())
	if err != nil || changed {
		t.Fatalf("unchanged file: changed=%v err=%v", changed, err)
	}

	writeCatalog(t, filepath.Dir(path), strings.Replace(sampleYAML, "Annual Market Analysis", "Annual Market Review", 1))
	changed, err = c.Reload(context.Background())
	if err != nil || !changed {
		t.Fatalf("edited file: changed=%v err=%v", changed, err)
	}
	r, _ := c.Get("2")
	if r.Title != "Annual Market Review" {
		t.Errorf("title = %q", r.Title)
	}
}

func TestValidateDuplicateIDs(t *testing.T) {
	d := models.MustParseDate("2024-01-01")
	_, err := Validate([]models.Report{{ID: "1", Title: "a", Date: d}, {ID: "1", Title: "b", Date: d}})
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("err = %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	c, err := Open(context.Background(), Static{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get("nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteReplaceAndLoad(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "reports.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	in, err := DecodeYAML([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	// Insert in reverse to prove position, not id, drives the order.
	reversed := []models.Report{in[1], in[0]}
	if err := db.Replace(context.Background(), reversed); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	c, err := Open(context.Background(), db)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got := c.Reports()
	if len(got) != 2 || got[0].ID != "2" || got[1].ID != "1" {
		t.Fatalf("order = %+v", got)
	}
	if got[1].Date.String() != "2024-03-01" || got[1].Keywords[1] != "Growth" {
		t.Errorf("row mismatch: %+v", got[1])
	}

	if err := db.Replace(context.Background(), in[:1]); err != nil {
		t.Fatal(err)
	}
	if changed, err := c.Reload(context.Background()); err != nil || !changed {
		t.Fatalf("reload after replace: %v %v", changed, err)
	}
	if len(c.Reports()) != 1 {
		t.Errorf("reports = %d, want 1", len(c.Reports()))
	}
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, sampleYAML)
	c, err := Open(context.Background(), NewYAMLFile(path))
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var counts []int
	go Watch(ctx, c, path, logger, func(_ string, count int) {
		mu.Lock()
		counts = append(counts, count)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	// Unrelated files in the same directory are ignored.
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)

	trimmed := sampleYAML[:strings.Index(sampleYAML, "  - id: \"2\"")]
	writeCatalog(t, dir, trimmed)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return len(c.Reports()) == 1
	}, "catalog not reloaded by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(counts) == 1 && counts[0] == 1
	}, "change callback not fired exactly once")
}

func TestWatch_InvalidEditKeepsSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, sampleYAML)
	c, err := Open(context.Background(), NewYAMLFile(path))
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, c, path, logger, nil)
	time.Sleep(100 * time.Millisecond)

	writeCatalog(t, dir, "reports: [")
	time.Sleep(600 * time.Millisecond)
	if len(c.Reports()) != 2 {
		t.Errorf("invalid edit replaced the snapshot: %d reports", len(c.Reports()))
	}
}
