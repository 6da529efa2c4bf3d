package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/reportdesk/internal/reportservice"
	"github.com/starford/reportdesk/internal/table"
)

// CreateSession handles POST /api/sessions.
//
//	@Summary		Start a console session
//	@Tags			sessions
//	@Produce		json
//	@Success		201	{object}	reportservice.SessionView
//	@Router			/sessions [post]
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.CreateSession(r.Context())
	if err != nil {
		writeError(w, r, "create session", err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// GetSession handles GET /api/sessions/{id}.
//
//	@Summary		Get a session and its first page of rows
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session id"
//	@Success		200	{object}	reportservice.SessionView
//	@Failure		404	{object}	errResponse
//	@Router			/sessions/{id} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "get session")(h.svc.Session(r.Context(), sessionID(r.Context())))
}

// DeleteSession handles DELETE /api/sessions/{id}.
//
//	@Summary		End a session
//	@Tags			sessions
//	@Param			id	path	string	true	"Session id"
//	@Success		204	"Session deleted"
//	@Failure		404	{object}	errResponse
//	@Router			/sessions/{id} [delete]
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSession(r.Context(), sessionID(r.Context())); err != nil {
		writeError(w, r, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SessionRows handles GET /api/sessions/{id}/rows.
//
//	@Summary		Page through the session's visible rows
//	@Tags			sessions
//	@Produce		json
//	@Param			id		path		string	true	"Session id"
//	@Param			page	query		int		false	"1-based page"
//	@Success		200		{object}	reportservice.SessionView
//	@Failure		400		{object}	errResponse
//	@Router			/sessions/{id}/rows [get]
func (h *Handler) SessionRows(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorBody("page: must be a positive integer"))
			return
		}
		page = n
	}
	h.respond(w, r, "session rows")(h.svc.SessionRows(r.Context(), sessionID(r.Context()), page))
}

// Search handles PUT /api/sessions/{id}/search.
//
//	@Summary		Set the free-text query
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Session id"
//	@Param			body	body		SearchRequest	true	"Query"
//	@Success		200		{object}	reportservice.SessionView
//	@Router			/sessions/{id}/search [put]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respond(w, r, "search")(h.svc.Search(r.Context(), sessionID(r.Context()), req.Query))
}

// SetDates handles PUT /api/sessions/{id}/dates.
//
//	@Summary		Set the inclusive date range
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Session id"
//	@Param			body	body		DateRangeRequest	true	"Range"
//	@Success		200		{object}	reportservice.SessionView
//	@Router			/sessions/{id}/dates [put]
func (h *Handler) SetDates(w http.ResponseWriter, r *http.Request) {
	var req DateRangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respond(w, r, "set dates")(h.svc.SetDateRange(r.Context(), sessionID(r.Context()), req.Range()))
}

// SetFilters handles PUT /api/sessions/{id}/filters.
//
//	@Summary		Replace the column filters
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Session id"
//	@Param			body	body		ColumnFiltersRequest	true	"Accepted values"
//	@Success		200		{object}	reportservice.SessionView
//	@Router			/sessions/{id}/filters [put]
func (h *Handler) SetFilters(w http.ResponseWriter, r *http.Request) {
	var req ColumnFiltersRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respond(w, r, "set filters")(h.svc.SetColumnFilters(r.Context(), sessionID(r.Context()), req.Columns()))
}

// Sort handles POST /api/sessions/{id}/sort.
//
//	@Summary		Cycle or set the sort
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Session id"
//	@Param			body	body		SortRequest	true	"Column and optional direction"
//	@Success		200		{object}	reportservice.SessionView
//	@Router			/sessions/{id}/sort [post]
func (h *Handler) Sort(w http.ResponseWriter, r *http.Request) {
	var req SortRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := sessionID(r.Context())
	col := table.Column(req.Column)
	if req.Direction == "" {
		h.respond(w, r, "cycle sort")(h.svc.CycleSort(r.Context(), id, col))
		return
	}
	h.respond(w, r, "set sort")(h.svc.SetSort(r.Context(), id, table.Sort{Column: col, Direction: table.Direction(req.Direction)}))
}

// ClearFilters handles POST /api/sessions/{id}/clear-filters.
//
//	@Summary		Clear query, dates and column filters, keep the sort
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session id"
//	@Success		200	{object}	reportservice.SessionView
//	@Router			/sessions/{id}/clear-filters [post]
func (h *Handler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "clear filters")(h.svc.ClearFilters(r.Context(), sessionID(r.Context())))
}

// Reset handles POST /api/sessions/{id}/reset.
//
//	@Summary		Clear every filter and the sort
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session id"
//	@Success		200	{object}	reportservice.SessionView
//	@Router			/sessions/{id}/reset [post]
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "reset")(h.svc.Reset(r.Context(), sessionID(r.Context())))
}

// ToggleSidebar handles POST /api/sessions/{id}/sidebar/toggle.
//
//	@Summary		Collapse or expand the sidebar
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session id"
//	@Success		200	{object}	reportservice.SessionView
//	@Router			/sessions/{id}/sidebar/toggle [post]
func (h *Handler) ToggleSidebar(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "toggle sidebar")(h.svc.ToggleSidebar(r.Context(), sessionID(r.Context())))
}

// ClickMenu handles POST /api/sessions/{id}/menu/click.
//
//	@Summary		Click a menu entry; leaves with a route navigate
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Session id"
//	@Param			body	body		MenuKeyRequest	true	"Menu key"
//	@Success		200		{object}	reportservice.ClickResult
//	@Router			/sessions/{id}/menu/click [post]
func (h *Handler) ClickMenu(w http.ResponseWriter, r *http.Request) {
	var req MenuKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.ClickMenu(r.Context(), sessionID(r.Context()), req.Key)
	if err != nil {
		writeError(w, r, "menu click", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Select handles PUT /api/sessions/{id}/selection.
//
//	@Summary		Open the details modal on a report
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Session id"
//	@Param			body	body		SelectionRequest	true	"Report id"
//	@Success		200		{object}	reportservice.SessionView
//	@Failure		404		{object}	errResponse
//	@Router			/sessions/{id}/selection [put]
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respond(w, r, "select report")(h.svc.Select(r.Context(), sessionID(r.Context()), req.ReportID))
}

// Deselect handles DELETE /api/sessions/{id}/selection.
//
//	@Summary		Close the details modal
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session id"
//	@Success		200	{object}	reportservice.SessionView
//	@Router			/sessions/{id}/selection [delete]
func (h *Handler) Deselect(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "deselect report")(h.svc.Deselect(r.Context(), sessionID(r.Context())))
}

// SelectionAction handles POST /api/sessions/{id}/selection/{action}.
//
//	@Summary		View or download the selected report; closes the modal
//	@Tags			sessions
//	@Produce		json
//	@Param			id		path		string	true	"Session id"
//	@Param			action	path		string	true	"Action"	Enums(view, download)
//	@Success		200		{object}	reportservice.ActionResult
//	@Failure		400		{object}	errResponse
//	@Router			/sessions/{id}/selection/{action} [post]
func (h *Handler) SelectionAction(w http.ResponseWriter, r *http.Request) {
	action := reportservice.Action(chi.URLParam(r, "action"))
	res, err := h.svc.SelectionAction(r.Context(), sessionID(r.Context()), action)
	if err != nil {
		writeError(w, r, "selection action", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// respond writes a session view or maps the error.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, op string) func(reportservice.SessionView, error) {
	return func(view reportservice.SessionView, err error) {
		if err != nil {
			writeError(w, r, op, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
