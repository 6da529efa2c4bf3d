// Package table implements the report table's filtering, sorting and
// paging over an in-memory collection.
package table

import (
	"slices"

	"github.com/starford/reportdesk/internal/models"
)

// Column identifies a report table column.
type Column string

// Table columns.
const (
	ColumnTitle      Column = "title"
	ColumnDate       Column = "date"
	ColumnCategories Column = "categories"
	ColumnTopics     Column = "topics"
)

// SortableColumns lists the columns with a comparator.
var SortableColumns = []Column{ColumnTitle, ColumnDate}

// FilterableColumns lists the columns that accept categorical filters.
var FilterableColumns = []Column{ColumnCategories, ColumnTopics}

// Sortable reports whether c can be sorted on.
func (c Column) Sortable() bool { return slices.Contains(SortableColumns, c) }

// Filterable reports whether c accepts a categorical filter.
func (c Column) Filterable() bool { return slices.Contains(FilterableColumns, c) }

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Ascend  Direction = "ascend"
	Descend Direction = "descend"
)

// DateRange is an inclusive calendar range. It only restricts anything
// when both ends are set.
type DateRange struct {
	Start models.Date `json:"start"`
	End   models.Date `json:"end"`
}

// Active reports whether both endpoints are present.
func (r DateRange) Active() bool {
	return !r.Start.IsZero() && !r.End.IsZero()
}

// Contains reports whether d lies within [Start, End]. Outside an active
// range every date is contained.
func (r DateRange) Contains(d models.Date) bool {
	if !r.Active() {
		return true
	}
	if d.Equal(r.Start) || d.Equal(r.End) {
		return true
	}
	return d.After(r.Start) && d.Before(r.End)
}

// Filters is the combination of search, date and column predicates.
type Filters struct {
	Query   string              `json:"query"`
	Dates   DateRange           `json:"dates"`
	Columns map[Column][]string `json:"columns,omitempty"`
}

// Sort is the active single-column ordering. A zero Column means input order.
type Sort struct {
	Column    Column    `json:"column,omitempty"`
	Direction Direction `json:"direction,omitempty"`
}

// Active reports whether a sort is set.
func (s Sort) Active() bool { return s.Column != "" }

// State is the complete view state of the report table. Values are never
// mutated in place: each transition returns a fresh State.
type State struct {
	Filters Filters `json:"filters"`
	Sort    Sort    `json:"sort"`
}

// WithQuery replaces the free-text query.
func (s State) WithQuery(q string) State {
	s.Filters.Columns = cloneColumns(s.Filters.Columns)
	s.Filters.Query = q
	return s
}

// WithDateRange replaces the date range.
func (s State) WithDateRange(r DateRange) State {
	s.Filters.Columns = cloneColumns(s.Filters.Columns)
	s.Filters.Dates = r
	return s
}

// WithColumnFilters replaces every column filter at once, the way a table
// change event reports the full filter map.
func (s State) WithColumnFilters(cols map[Column][]string) State {
	s.Filters.Columns = cloneColumns(cols)
	return s
}

// WithSort replaces the sort.
func (s State) WithSort(sort Sort) State {
	s.Filters.Columns = cloneColumns(s.Filters.Columns)
	s.Sort = sort
	return s
}

// ClearFilters drops query, date range and column filters. Sort is kept.
func (s State) ClearFilters() State {
	return State{Sort: s.Sort}
}

// ResetAll returns the empty state.
func (s State) ResetAll() State {
	return State{}
}

// CycleSort advances the header-click cycle for column: a new column starts
// ascending, then descending, then no sort.
func CycleSort(current Sort, column Column) Sort {
	if current.Column != column {
		return Sort{Column: column, Direction: Ascend}
	}
	switch current.Direction {
	case Ascend:
		return Sort{Column: column, Direction: Descend}
	default:
		return Sort{}
	}
}

func cloneColumns(cols map[Column][]string) map[Column][]string {
	if len(cols) == 0 {
		return nil
	}
	out := make(map[Column][]string, len(cols))
	for k, v := range cols {
		if len(v) == 0 {
			continue
		}
		out[k] = slices.Clone(v)
	}
	return out
}
