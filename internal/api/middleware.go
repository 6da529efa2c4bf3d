// Package api implements the reportdesk REST API using chi.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type ctxKey int

const sessionKey ctxKey = iota

// SessionContext resolves the {id} route parameter to a live session and
// stores its id in the request context. Unknown sessions get a 404.
func SessionContext(exists func(ctx context.Context, id string) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			if err := exists(r.Context(), id); err != nil {
				writeError(w, r, "load session", err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, id)))
		})
	}
}

func sessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey).(string)
	return id
}
