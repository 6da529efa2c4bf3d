package table

import (
	"testing"

	"github.com/starford/reportdesk/internal/models"
)

func TestCycleSort(t *testing.T) {
	s := Sort{}
	want := []Sort{
		{Column: ColumnTitle, Direction: Ascend},
		{Column: ColumnTitle, Direction: Descend},
		{},
		{Column: ColumnTitle, Direction: Ascend},
	}
	for i, w := range want {
		s = CycleSort(s, ColumnTitle)
		if s != w {
			t.Fatalf("click %d: got %+v, want %+v", i+1, s, w)
		}
	}

	// Another column replaces the active one.
	s = CycleSort(Sort{Column: ColumnTitle, Direction: Descend}, ColumnDate)
	if s != (Sort{Column: ColumnDate, Direction: Ascend}) {
		t.Errorf("switching column: got %+v", s)
	}
}

func TestStateTransitionsDoNotAlias(t *testing.T) {
	cols := map[Column][]string{ColumnTopics: {"Q1"}}
	a := State{}.WithColumnFilters(cols)
	cols[ColumnTopics][0] = "mutated"
	if a.Filters.Columns[ColumnTopics][0] != "Q1" {
		t.Fatal("WithColumnFilters kept a reference to the caller's slice")
	}

	b := a.WithQuery("x")
	b.Filters.Columns[ColumnTopics][0] = "changed"
	if a.Filters.Columns[ColumnTopics][0] != "Q1" {
		t.Error("WithQuery shares column filters with the previous state")
	}
	if a.Filters.Query != "" {
		t.Error("previous state query changed")
	}
}

func TestWithColumnFiltersDropsEmptySets(t *testing.T) {
	st := State{}.WithColumnFilters(map[Column][]string{ColumnTopics: {}, ColumnCategories: nil})
	if st.Filters.Columns != nil {
		t.Errorf("empty sets should be dropped, got %v", st.Filters.Columns)
	}
}

func TestDateRangeActive(t *testing.T) {
	d := models.MustParseDate("2024-01-15")
	if (DateRange{Start: d}).Active() || (DateRange{End: d}).Active() {
		t.Error("a range needs both ends to be active")
	}
	if !(DateRange{Start: d, End: d}).Active() {
		t.Error("both ends set should be active")
	}
}

func TestColumnCapabilities(t *testing.T) {
	if !ColumnTitle.Sortable() || !ColumnDate.Sortable() || ColumnTopics.Sortable() {
		t.Error("unexpected sortable set")
	}
	if !ColumnCategories.Filterable() || !ColumnTopics.Filterable() || ColumnTitle.Filterable() {
		t.Error("unexpected filterable set")
	}
}
