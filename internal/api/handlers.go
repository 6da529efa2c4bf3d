package api

import (
	"fmt"
	"mime"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/starford/reportdesk/internal/checksum"
	"github.com/starford/reportdesk/internal/reportservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *reportservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *reportservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListReports handles GET /api/reports.
//
//	@Summary		List reports with search, date range, column filters, sort and paging
//	@Tags			reports
//	@Produce		json
//	@Param			q			query		string	false	"Free-text query"
//	@Param			from		query		string	false	"Range start (YYYY-MM-DD)"
//	@Param			to			query		string	false	"Range end (YYYY-MM-DD)"
//	@Param			categories	query		string	false	"Accepted categories, repeatable or comma separated"
//	@Param			topics		query		string	false	"Accepted topics, repeatable or comma separated"
//	@Param			sort		query		string	false	"Sort column"	Enums(title, date)
//	@Param			order		query		string	false	"Sort direction"	Enums(ascend, descend)
//	@Param			page		query		int		false	"1-based page"
//	@Param			page_size	query		int		false	"Page size"
//	@Success		200			{object}	reportservice.ListResult
//	@Failure		400			{object}	errResponse
//	@Router			/reports [get]
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListReportsParams{
		Query:      q.Get("q"),
		From:       q.Get("from"),
		To:         q.Get("to"),
		Categories: splitValues(q["categories"]),
		Topics:     splitValues(q["topics"]),
		Sort:       q.Get("sort"),
		Order:      q.Get("order"),
		Page:       q.Get("page"),
		PageSize:   q.Get("page_size"),
	}
	if err := params.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, h.svc.List(r.Context(), params.ToQuery()))
}

// FilterOptions handles GET /api/reports/filters.
//
//	@Summary		Distinct values of every filterable column
//	@Tags			reports
//	@Produce		json
//	@Success		200	{object}	FilterOptionsResponse
//	@Router			/reports/filters [get]
func (h *Handler) FilterOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.FilterOptions(r.Context()))
}

// GetReport handles GET /api/reports/{id}.
//
//	@Summary		Get a single report
//	@Tags			reports
//	@Produce		json
//	@Param			id	path		string	true	"Report id"
//	@Success		200	{object}	models.Report
//	@Failure		404	{object}	errResponse
//	@Router			/reports/{id} [get]
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "get report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ViewReport handles GET /api/reports/{id}/view.
//
//	@Summary		Serve a report file inline
//	@Tags			reports
//	@Param			id	path	string	true	"Report id"
//	@Success		200	"Report file"
//	@Failure		404	{object}	errResponse
//	@Router			/reports/{id}/view [get]
func (h *Handler) ViewReport(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, "inline")
}

// DownloadReport handles GET /api/reports/{id}/download.
//
//	@Summary		Download a report file
//	@Tags			reports
//	@Param			id	path	string	true	"Report id"
//	@Success		200	"Report file"
//	@Failure		404	{object}	errResponse
//	@Router			/reports/{id}/download [get]
func (h *Handler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, "attachment")
}

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, disposition string) {
	f, err := h.svc.OpenFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "open report file", err)
		return
	}
	defer f.File.Close()

	name := path.Base(f.Report.FileName)
	tag := checksum.Sum([]byte(fmt.Sprintf("%s:%d:%d", f.Report.FileName, f.Info.Size(), f.Info.ModTime().UnixNano())))
	w.Header().Set("ETag", checksum.ETag(tag))
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": name}))
	http.ServeContent(w, r, name, f.Info.ModTime(), f.File)
}

// Menu handles GET /api/menu.
//
//	@Summary		Navigation menu tree with default selection
//	@Tags			menu
//	@Produce		json
//	@Success		200	{object}	MenuResponse
//	@Router			/menu [get]
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Menu(r.Context()))
}

// ResolveMenu handles POST /api/menu/resolve.
//
//	@Summary		Resolve a menu key to its route without navigating
//	@Tags			menu
//	@Accept			json
//	@Produce		json
//	@Param			body	body		MenuKeyRequest	true	"Menu key"
//	@Success		200		{object}	ResolveResponse
//	@Failure		400		{object}	errResponse
//	@Router			/menu/resolve [post]
func (h *Handler) ResolveMenu(w http.ResponseWriter, r *http.Request) {
	var req MenuKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	route, ok := h.svc.ResolveMenu(r.Context(), req.Key)
	writeJSON(w, http.StatusOK, ResolveResponse{Key: req.Key, Route: route, Found: ok})
}

// People handles GET /api/people.
//
//	@Summary		Staff directory from the remote people API
//	@Tags			people
//	@Produce		json
//	@Success		200	{array}		models.Person
//	@Failure		503	{object}	errResponse
//	@Router			/people [get]
func (h *Handler) People(w http.ResponseWriter, r *http.Request) {
	people, err := h.svc.People(r.Context())
	if err != nil {
		writeError(w, r, "list people", err)
		return
	}
	writeJSON(w, http.StatusOK, people)
}
