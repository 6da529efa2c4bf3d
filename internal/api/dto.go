package api

import (
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/reportdesk/internal/menu"
	"github.com/starford/reportdesk/internal/models"
	"github.com/starford/reportdesk/internal/reportservice"
	"github.com/starford/reportdesk/internal/table"
)

var (
	sortColumns = []any{string(table.ColumnTitle), string(table.ColumnDate)}
	directions  = []any{string(table.Ascend), string(table.Descend)}
)

// ListReportsParams are the query parameters of GET /api/reports.
type ListReportsParams struct {
	Query      string
	From       string
	To         string
	Categories []string
	Topics     []string
	Sort       string
	Order      string
	Page       string
	PageSize   string
}

// Validate validates the list parameters.
func (p ListReportsParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.From, validation.Date(models.DateLayout)),
		validation.Field(&p.To, validation.Date(models.DateLayout)),
		validation.Field(&p.Sort, validation.In(sortColumns...), validation.When(p.Order != "", validation.Required.Error("is required with order"))),
		validation.Field(&p.Order, validation.In(directions...)),
		validation.Field(&p.Page, validation.By(positiveInt(1, 0))),
		validation.Field(&p.PageSize, validation.By(positiveInt(1, 500))),
	)
}

// ToQuery converts validated parameters into a service query.
func (p ListReportsParams) ToQuery() reportservice.Query {
	st := table.State{}.
		WithQuery(p.Query).
		WithDateRange(dateRange(p.From, p.To)).
		WithColumnFilters(map[table.Column][]string{
			table.ColumnCategories: p.Categories,
			table.ColumnTopics:     p.Topics,
		})
	if p.Sort != "" {
		dir := table.Direction(p.Order)
		if dir == "" {
			dir = table.Ascend
		}
		st = st.WithSort(table.Sort{Column: table.Column(p.Sort), Direction: dir})
	}
	page, _ := strconv.Atoi(p.Page)
	size, _ := strconv.Atoi(p.PageSize)
	return reportservice.Query{State: st, Page: page, PageSize: size}
}

// SearchRequest is the body of PUT /api/sessions/{id}/search.
type SearchRequest struct {
	Query string `json:"query" example:"annual"`
}

// Validate validates the search request.
func (r SearchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Query, validation.Length(0, 256)),
	)
}

// DateRangeRequest is the body of PUT /api/sessions/{id}/dates. Empty
// endpoints leave the range inactive.
type DateRangeRequest struct {
	Start string `json:"start" example:"2024-01-01"`
	End   string `json:"end" example:"2024-03-31"`
}

// Validate validates the date range request.
func (r DateRangeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Start, validation.Date(models.DateLayout)),
		validation.Field(&r.End, validation.Date(models.DateLayout)),
	)
}

// Range converts the validated request into a table date range.
func (r DateRangeRequest) Range() table.DateRange {
	return dateRange(r.Start, r.End)
}

// ColumnFiltersRequest is the body of PUT /api/sessions/{id}/filters.
type ColumnFiltersRequest struct {
	Categories []string `json:"categories" example:"Financial"`
	Topics     []string `json:"topics" example:"Q1"`
}

// Validate validates the column filters request.
func (r ColumnFiltersRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Categories, validation.Each(validation.Required)),
		validation.Field(&r.Topics, validation.Each(validation.Required)),
	)
}

// Columns converts the request into per-column accepted sets.
func (r ColumnFiltersRequest) Columns() map[table.Column][]string {
	return map[table.Column][]string{
		table.ColumnCategories: r.Categories,
		table.ColumnTopics:     r.Topics,
	}
}

// SortRequest is the body of POST /api/sessions/{id}/sort. Without a
// direction the column's header-click cycle advances.
type SortRequest struct {
	Column    string `json:"column" example:"date"`
	Direction string `json:"direction,omitempty" example:"descend"`
}

// Validate validates the sort request.
func (r SortRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Column, validation.Required, validation.In(sortColumns...)),
		validation.Field(&r.Direction, validation.In(directions...)),
	)
}

// MenuKeyRequest is the body of the menu resolve and click endpoints.
type MenuKeyRequest struct {
	Key string `json:"key" example:"3"`
}

// Validate validates the menu key request.
func (r MenuKeyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Key, validation.Required),
	)
}

// SelectionRequest is the body of PUT /api/sessions/{id}/selection.
type SelectionRequest struct {
	ReportID string `json:"report_id" example:"1"`
}

// Validate validates the selection request.
func (r SelectionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ReportID, validation.Required),
	)
}

// ResolveResponse is returned by POST /api/menu/resolve.
type ResolveResponse struct {
	Key   string `json:"key"`
	Route string `json:"route,omitempty"`
	Found bool   `json:"found"`
}

// MenuResponse is returned by GET /api/menu.
type MenuResponse = menu.Definition

// FilterOptionsResponse is returned by GET /api/reports/filters.
type FilterOptionsResponse = reportservice.Options

func dateRange(from, to string) table.DateRange {
	start, _ := models.ParseDate(from)
	end, _ := models.ParseDate(to)
	return table.DateRange{Start: start, End: end}
}

// positiveInt accepts an empty string or an integer in [lo, hi]; hi 0 means
// no upper bound.
func positiveInt(lo, hi int) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return validation.NewError("validation_not_int", "must be an integer")
		}
		if n < lo || (hi > 0 && n > hi) {
			return validation.NewError("validation_out_of_range", "is out of range")
		}
		return nil
	}
}

// splitValues flattens repeated and comma separated query values.
func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
