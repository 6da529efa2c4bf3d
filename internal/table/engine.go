package table

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/starford/reportdesk/internal/models"
)

// VisibleRows returns the reports that pass st's filters, in st's sort
// order. reports is never modified.
func VisibleRows(reports []models.Report, st State) []models.Report {
	return SortRows(Filter(reports, st.Filters), st.Sort)
}

// Filter returns the reports that pass every active predicate, in input
// order. An empty Filters keeps all reports.
func Filter(reports []models.Report, f Filters) []models.Report {
	match := newMatcher(f.Query)
	out := make([]models.Report, 0, len(reports))
	for _, r := range reports {
		if !f.Dates.Contains(r.Date) {
			continue
		}
		if !match.report(r) {
			continue
		}
		if !columnsAccept(f.Columns, r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SortRows returns a stably sorted copy of rows. Ties keep their input order
// in both directions.
func SortRows(rows []models.Report, s Sort) []models.Report {
	out := slices.Clone(rows)
	if out == nil {
		out = []models.Report{}
	}
	cmp := comparator(s.Column)
	if cmp == nil {
		return out
	}
	if s.Direction == Descend {
		asc := cmp
		cmp = func(a, b models.Report) int { return asc(b, a) }
	}
	slices.SortStableFunc(out, cmp)
	return out
}

// FilterOptions returns the distinct values of column across the whole base
// collection, in first-seen order.
func FilterOptions(reports []models.Report, column Column) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range reports {
		for _, v := range tags(r, column) {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func comparator(c Column) func(a, b models.Report) int {
	switch c {
	case ColumnTitle:
		// Collators keep internal buffers, so one per sort call.
		coll := collate.New(language.English)
		return func(a, b models.Report) int { return coll.CompareString(a.Title, b.Title) }
	case ColumnDate:
		return func(a, b models.Report) int { return a.Date.Compare(b.Date) }
	default:
		return nil
	}
}

func columnsAccept(cols map[Column][]string, r models.Report) bool {
	for col, accepted := range cols {
		if len(accepted) == 0 || !col.Filterable() {
			continue
		}
		if !slices.ContainsFunc(tags(r, col), func(v string) bool {
			return slices.Contains(accepted, v)
		}) {
			return false
		}
	}
	return true
}

func tags(r models.Report, c Column) []string {
	switch c {
	case ColumnCategories:
		return r.Categories
	case ColumnTopics:
		return r.Topics
	default:
		return nil
	}
}

// matcher is a case-insensitive substring test for the free-text query.
type matcher struct {
	needle string
	fold   cases.Caser
}

func newMatcher(query string) matcher {
	q := strings.TrimSpace(query)
	if q == "" {
		return matcher{}
	}
	fold := cases.Fold()
	return matcher{needle: fold.String(q), fold: fold}
}

func (m matcher) report(r models.Report) bool {
	if m.needle == "" {
		return true
	}
	if m.contains(r.Title) || m.contains(r.FileName) {
		return true
	}
	for _, group := range [][]string{r.Topics, r.Categories, r.Keywords} {
		if slices.ContainsFunc(group, m.contains) {
			return true
		}
	}
	return false
}

func (m matcher) contains(s string) bool {
	return strings.Contains(m.fold.String(s), m.needle)
}
