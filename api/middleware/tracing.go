package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shopfront/pkg/telemetry"
)

// RouteSpan names the request span after the matched chi route once the
// handler has run.
func RouteSpan() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if rc := chi.RouteContext(r.Context()); rc != nil {
				telemetry.NameSpan(r.Context(), r.Method, rc.RoutePattern())
			}
		})
	}
}
