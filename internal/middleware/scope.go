package middleware

import (
	"net/http"
	"strings"

	"github.com/medtrack/pointsapi/internal/auth"

	"github.com/google/uuid"
)

// OrganizationScope reads the organization and user identity headers into the
// request context. Authentication itself happens upstream; these headers are
// trusted here and only parsed.
func OrganizationScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if raw := strings.TrimSpace(r.Header.Get("X-Organization-ID")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				http.Error(w, "invalid X-Organization-ID header", http.StatusBadRequest)
				return
			}
			ctx = auth.ContextWithOrganizationID(ctx, id)
		}

		if raw := strings.TrimSpace(r.Header.Get("X-User-ID")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				http.Error(w, "invalid X-User-ID header", http.StatusBadRequest)
				return
			}
			ctx = auth.ContextWithUserID(ctx, id)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
