package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/starford/reportdesk/internal/apperr"
	"github.com/starford/reportdesk/internal/checksum"
	"github.com/starford/reportdesk/internal/models"
)

// Catalog holds the current report snapshot. Snapshots are replaced whole
// on reload and never modified afterwards.
type Catalog struct {
	src Source

	mu       sync.RWMutex
	reports  []models.Report
	byID     map[string]int
	sum      string
	loadedAt time.Time
}

// New returns an empty catalog over src. Call Reload to populate it.
func New(src Source) *Catalog {
	return &Catalog{src: src, reports: []models.Report{}, byID: map[string]int{}}
}

// Open builds a catalog over src and performs the initial load.
func Open(ctx context.Context, src Source) (*Catalog, error) {
	c := New(src)
	if _, err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload fetches the source and swaps in the new snapshot. It reports
// whether the content changed. On error the previous snapshot is kept.
func (c *Catalog) Reload(ctx context.Context) (bool, error) {
	loaded, err := c.src.Load(ctx)
	if err != nil {
		return false, err
	}
	reports, err := Validate(loaded)
	if err != nil {
		return false, err
	}
	sum, err := checksum.SumJSON(reports)
	if err != nil {
		return false, err
	}

	byID := make(map[string]int, len(reports))
	for i, r := range reports {
		byID[r.ID] = i
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadedAt = time.Now()
	if sum == c.sum {
		return false, nil
	}
	c.reports = reports
	c.byID = byID
	c.sum = sum
	return true, nil
}

// Reports returns the current snapshot. Callers must not modify it.
func (c *Catalog) Reports() []models.Report {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reports
}

// Get returns the report with id.
func (c *Catalog) Get(id string) (models.Report, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return models.Report{}, fmt.Errorf("report %q: %w", id, apperr.ErrNotFound)
	}
	return c.reports[i], nil
}

// Checksum returns the digest of the current snapshot.
func (c *Catalog) Checksum() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sum
}

// LoadedAt returns when the source was last read successfully.
func (c *Catalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// Validate normalizes reports and rejects missing fields and duplicate ids.
func Validate(reports []models.Report) ([]models.Report, error) {
	out := make([]models.Report, len(reports))
	seen := make(map[string]struct{}, len(reports))
	for i, r := range reports {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: report #%d (%q): %w", i+1, r.ID, err)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate report id %q", r.ID)
		}
		seen[r.ID] = struct{}{}
		out[i] = r.Normalized()
	}
	return out, nil
}
