package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/angelmondragon/shopfront/api/responses"
	pkgerrors "github.com/angelmondragon/shopfront/pkg/errors"
	"github.com/angelmondragon/shopfront/pkg/logger"
)

const (
	userIDHeader   = "X-User-Id"
	userRoleHeader = "X-User-Role"

	// RoleAdmin unlocks catalog maintenance, sales statistics and delivery tracking.
	RoleAdmin = "admin"
)

// Identity reads the caller identity forwarded by the upstream auth layer.
// Requests without the header continue anonymously.
func Identity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(userIDHeader))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || userID == 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid user id header"))
				return
			}

			ctx := WithUserID(r.Context(), uint(userID))
			if role := strings.ToLower(strings.TrimSpace(r.Header.Get(userRoleHeader))); role != "" {
				ctx = WithRole(ctx, role)
			}
			if logg != nil {
				ctx = logg.WithUserID(ctx, uint(userID))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous requests.
func RequireUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFromContext(r.Context()) == 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
