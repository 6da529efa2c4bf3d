package reportservice

import (
	"context"
	"fmt"

	"github.com/starford/reportdesk/internal/apperr"
	"github.com/starford/reportdesk/internal/menu"
	"github.com/starford/reportdesk/internal/models"
	"github.com/starford/reportdesk/internal/session"
	"github.com/starford/reportdesk/internal/table"
)

// Action is what the details modal does with the selected report's file.
type Action string

// Modal actions.
const (
	ActionView     Action = "view"
	ActionDownload Action = "download"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool { return a == ActionView || a == ActionDownload }

// SessionView is a session together with what its console renders.
type SessionView struct {
	session.Session
	Rows         table.Page     `json:"rows"`
	Options      Options        `json:"filter_options"`
	SidebarWidth int            `json:"sidebar_width"`
	Modal        *models.Report `json:"modal,omitempty"`
}

// ClickResult is the outcome of a menu click inside a session.
type ClickResult struct {
	Key       string      `json:"key"`
	Route     string      `json:"route,omitempty"`
	Navigated bool        `json:"navigated"`
	Session   SessionView `json:"session"`
}

// ActionResult is the outcome of a modal action.
type ActionResult struct {
	Action  Action        `json:"action"`
	URL     string        `json:"url"`
	Report  models.Report `json:"report"`
	Session SessionView   `json:"session"`
}

// CreateSession starts a console session with the menu's default selection.
func (s *Service) CreateSession(_ context.Context) (SessionView, error) {
	sess := s.sessions.Create()
	if def := s.menu.Definition(); len(def.DefaultSelected) > 0 {
		var err error
		sess, err = s.sessions.Update(sess.ID, func(cur session.Session) (session.Session, error) {
			cur.MenuKey = def.DefaultSelected[0]
			return cur, nil
		})
		if err != nil {
			return SessionView{}, err
		}
	}
	return s.view(sess, 1), nil
}

// Session returns the session with its first page of rows.
func (s *Service) Session(_ context.Context, id string) (SessionView, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return SessionView{}, err
	}
	return s.view(sess, 1), nil
}

// SessionExists returns apperr.ErrNotFound when id names no live session.
func (s *Service) SessionExists(_ context.Context, id string) error {
	_, err := s.sessions.Get(id)
	return err
}

// SessionRows returns the session with the requested page of rows.
func (s *Service) SessionRows(_ context.Context, id string, page int) (SessionView, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return SessionView{}, err
	}
	return s.view(sess, page), nil
}

// DeleteSession ends a session.
func (s *Service) DeleteSession(_ context.Context, id string) error {
	if _, err := s.sessions.Get(id); err != nil {
		return err
	}
	s.sessions.Delete(id)
	return nil
}

// Search sets the session's free-text query.
func (s *Service) Search(_ context.Context, id, query string) (SessionView, error) {
	return s.updateView(id, func(st table.State) (table.State, error) {
		return st.WithQuery(query), nil
	})
}

// SetDateRange sets the session's date range. A range with only one
// endpoint is stored but inactive.
func (s *Service) SetDateRange(_ context.Context, id string, r table.DateRange) (SessionView, error) {
	return s.updateView(id, func(st table.State) (table.State, error) {
		return st.WithDateRange(r), nil
	})
}

// SetColumnFilters replaces the session's categorical filters.
func (s *Service) SetColumnFilters(_ context.Context, id string, cols map[table.Column][]string) (SessionView, error) {
	for c := range cols {
		if !c.Filterable() {
			return SessionView{}, fmt.Errorf("column %q is not filterable: %w", c, apperr.ErrInvalidArgument)
		}
	}
	return s.updateView(id, func(st table.State) (table.State, error) {
		return st.WithColumnFilters(cols), nil
	})
}

// CycleSort advances the header-click sort cycle on column.
func (s *Service) CycleSort(_ context.Context, id string, column table.Column) (SessionView, error) {
	if !column.Sortable() {
		return SessionView{}, fmt.Errorf("column %q is not sortable: %w", column, apperr.ErrInvalidArgument)
	}
	return s.updateView(id, func(st table.State) (table.State, error) {
		return st.WithSort(table.CycleSort(st.Sort, column)), nil
	})
}

// SetSort sets the session's sort explicitly. A zero Sort clears it.
func (s *Service) SetSort(_ context.Context, id string, sort table.Sort) (SessionView, error) {
	if sort.Active() {
		if !sort.Column.Sortable() {
			return SessionView{}, fmt.Errorf("column %q is not sortable: %w", sort.Column, apperr.ErrInvalidArgument)
		}
		if sort.Direction != table.Ascend && sort.Direction != table.Descend {
			return SessionView{}, fmt.Errorf("direction %q: %w", sort.Direction, apperr.ErrInvalidArgument)
		}
	}
	return s.updateView(id, func(st table.State) (table.State, error) {
		return st.WithSort(sort), nil
	})
}

// ClearFilters clears query, dates and column filters but keeps the sort.
func (s *Service) ClearFilters(_ context.Context, id string) (SessionView, error) {
	return s.updateView(id, func(st table.State) (table.State, error) {
		return st.ClearFilters(), nil
	})
}

// Reset clears every filter and the sort.
func (s *Service) Reset(_ context.Context, id string) (SessionView, error) {
	return s.updateView(id, func(st table.State) (table.State, error) {
		return st.ResetAll(), nil
	})
}

// ToggleSidebar flips the session's sidebar between collapsed and expanded.
func (s *Service) ToggleSidebar(_ context.Context, id string) (SessionView, error) {
	return s.update(id, func(cur session.Session) (session.Session, error) {
		cur.Sidebar = cur.Sidebar.Toggle()
		return cur, nil
	})
}

// ClickMenu resolves key and, when it has a route, marks it active and
// tells the session's clients to navigate. Keys without a route leave the
// session untouched.
func (s *Service) ClickMenu(ctx context.Context, id, key string) (ClickResult, error) {
	if _, err := s.sessions.Get(id); err != nil {
		return ClickResult{}, err
	}
	var nav menu.Navigator
	if s.events != nil {
		nav = menu.NavigatorFunc(func(_ context.Context, route string) error {
			s.events.PublishNavigate(id, route)
			return nil
		})
	}
	route, navigated, err := s.menu.Click(ctx, key, nav)
	if err != nil {
		return ClickResult{}, err
	}
	if route == "" {
		view, err := s.Session(ctx, id)
		return ClickResult{Key: key, Session: view}, err
	}
	view, err := s.update(id, func(cur session.Session) (session.Session, error) {
		cur.MenuKey = key
		return cur, nil
	})
	if err != nil {
		return ClickResult{}, err
	}
	return ClickResult{Key: key, Route: route, Navigated: navigated, Session: view}, nil
}

// Select opens the details modal on a report.
func (s *Service) Select(_ context.Context, id, reportID string) (SessionView, error) {
	if _, err := s.catalog.Get(reportID); err != nil {
		return SessionView{}, err
	}
	return s.update(id, func(cur session.Session) (session.Session, error) {
		cur.Selected = reportID
		return cur, nil
	})
}

// Deselect closes the details modal.
func (s *Service) Deselect(_ context.Context, id string) (SessionView, error) {
	return s.update(id, func(cur session.Session) (session.Session, error) {
		cur.Selected = ""
		return cur, nil
	})
}

// SelectionAction runs a modal action on the selected report. The modal
// closes and the result carries the URL serving the file.
func (s *Service) SelectionAction(_ context.Context, id string, action Action) (ActionResult, error) {
	if !action.Valid() {
		return ActionResult{}, fmt.Errorf("action %q: %w", action, apperr.ErrInvalidArgument)
	}
	var report models.Report
	sess, err := s.sessions.Update(id, func(cur session.Session) (session.Session, error) {
		if !cur.ModalOpen() {
			return cur, fmt.Errorf("no report selected: %w", apperr.ErrInvalidArgument)
		}
		r, err := s.catalog.Get(cur.Selected)
		if err != nil {
			return cur, err
		}
		report = r
		cur.Selected = ""
		return cur, nil
	})
	if err != nil {
		return ActionResult{}, err
	}
	return ActionResult{
		Action:  action,
		URL:     FileURL(report.ID, action),
		Report:  report,
		Session: s.view(sess, 1),
	}, nil
}

func (s *Service) update(id string, fn func(session.Session) (session.Session, error)) (SessionView, error) {
	sess, err := s.sessions.Update(id, fn)
	if err != nil {
		return SessionView{}, err
	}
	return s.view(sess, 1), nil
}

func (s *Service) updateView(id string, fn func(table.State) (table.State, error)) (SessionView, error) {
	return s.update(id, func(cur session.Session) (session.Session, error) {
		next, err := fn(cur.View)
		if err != nil {
			return cur, err
		}
		cur.View = next
		return cur, nil
	})
}

func (s *Service) view(sess session.Session, page int) SessionView {
	reports := s.catalog.Reports()
	v := SessionView{
		Session:      sess,
		Rows:         table.Paginate(table.VisibleRows(reports, sess.View), page, s.pageSize),
		Options:      optionsOf(reports),
		SidebarWidth: sess.Sidebar.Width(),
	}
	if sess.ModalOpen() {
		if r, err := s.catalog.Get(sess.Selected); err == nil {
			v.Modal = &r
		}
	}
	return v
}
