package table

import "github.com/starford/reportdesk/internal/models"

// DefaultPageSize matches the report table's page size.
const DefaultPageSize = 6

// Page is one slice of the visible rows.
type Page struct {
	Rows     []models.Report `json:"rows"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Pages    int             `json:"pages"`
}

// Paginate slices rows into 1-based pages. Pages past the end clamp to the
// last page; size <= 0 uses DefaultPageSize.
func Paginate(rows []models.Report, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(rows)
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * size
	end := min(start+size, total)
	out := make([]models.Report, end-start)
	copy(out, rows[start:end])
	return Page{
		Rows:     out,
		Total:    total,
		Page:     page,
		PageSize: size,
		Pages:    pages,
	}
}
