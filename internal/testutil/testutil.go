// Package testutil provides shared test fixtures: sample reports, catalogs
// and report file directories.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/reportdesk/internal/catalog"
	"github.com/starford/reportdesk/internal/models"
	"github.com/starford/reportdesk/internal/storage"
)

// SampleReports returns the two reports the console ships with.
func SampleReports() []models.Report {
	return []models.Report{
		{
			ID:         "1",
			Title:      "Quarterly Financial Report",
			Date:       models.MustParseDate("2024-03-01"),
			FileName:   "report1.pdf",
			Topics:     []string{"Finance", "Q1"},
			Categories: []string{"Financial"},
			Keywords:   []string{"Revenue", "Growth"},
		},
		{
			ID:         "2",
			Title:      "Annual Market Analysis",
			Date:       models.MustParseDate("2024-01-15"),
			FileName:   "report2.pdf",
			Topics:     []string{"Market", "Annual"},
			Categories: []string{"Research", "Analysis"},
			Keywords:   []string{"Trends", "Competition"},
		},
	}
}

// TestCatalog returns a catalog loaded with reports.
func TestCatalog(t *testing.T, reports []models.Report) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Open(context.Background(), catalog.Static(reports))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// TestFiles creates a temporary report file directory holding one small
// file per report and returns the directory and a store over it.
func TestFiles(t *testing.T, reports []models.Report) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	for _, r := range reports {
		if r.FileName == "" {
			continue
		}
		p := filepath.Join(dir, r.FileName)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("%PDF "+r.Title), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
