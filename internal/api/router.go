package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/reportdesk/internal/reportservice"
)

// NewRouter creates a chi router with all API routes mounted.
// events, if non-nil, is mounted at GET /events.
func NewRouter(svc *reportservice.Service, events http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	// Reports.
	r.Get("/reports", h.ListReports)
	r.Get("/reports/filters", h.FilterOptions)
	r.Get("/reports/{id}", h.GetReport)
	r.Get("/reports/{id}/view", h.ViewReport)
	r.Get("/reports/{id}/download", h.DownloadReport)

	// Menu.
	r.Get("/menu", h.Menu)
	r.Post("/menu/resolve", h.ResolveMenu)

	// Sessions.
	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Use(SessionContext(svc.SessionExists))
		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)
		r.Get("/rows", h.SessionRows)
		r.Put("/search", h.Search)
		r.Put("/dates", h.SetDates)
		r.Put("/filters", h.SetFilters)
		r.Post("/sort", h.Sort)
		r.Post("/clear-filters", h.ClearFilters)
		r.Post("/reset", h.Reset)
		r.Post("/sidebar/toggle", h.ToggleSidebar)
		r.Post("/menu/click", h.ClickMenu)
		r.Put("/selection", h.Select)
		r.Delete("/selection", h.Deselect)
		r.Post("/selection/{action}", h.SelectionAction)
	})

	// People.
	r.Get("/people", h.People)

	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}

	return r
}
