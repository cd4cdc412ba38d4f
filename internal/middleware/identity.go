package middleware

import (
	"net/http"
	"strings"

	"greenlens/internal/contextutils"
	"greenlens/internal/response"
	"greenlens/internal/services"
)

// HeaderXUserID carries the caller identity set by the upstream gateway
const HeaderXUserID = "X-User-ID"

const maxUserIDLength = 128

// RequireUser rejects requests without a usable X-User-ID header and
// stores the identity in the context
func RequireUser(builder *response.Builder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(HeaderXUserID))
			if userID == "" || len(userID) > maxUserIDLength {
				err := services.NewValidationError("missing or invalid "+HeaderXUserID+" header", nil)
				err.StatusCode = http.StatusUnauthorized
				err.Code = "IDENTITY_REQUIRED"
				builder.WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(contextutils.WithUserID(r.Context(), userID)))
		})
	}
}
