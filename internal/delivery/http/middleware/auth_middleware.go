package middleware

import (
	"context"
	"net/http"

	"atelier-admin/internal/domain"
	"atelier-admin/pkg/logger"
	"atelier-admin/pkg/utils"
)

// AuthMiddleware validates the admin's access token and stores the user and
// the raw token in the request context. The token is forwarded to the store
// API on every outbound call.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := utils.ExtractClaims(r)
		if err != nil {
			logger.WithContext(r.Context()).Debug().Err(err).Msg("Rejected request without valid token")
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: Invalid or missing token")
			return
		}

		user := &domain.User{
			ID:    claims.UserID,
			Email: claims.Email,
			Role:  claims.Role,
		}

		ctx := context.WithValue(r.Context(), domain.UserContextKey, user)
		ctx = domain.WithToken(ctx, claims.Token)
		userLogger := logger.WithUserID(*logger.WithContext(ctx), user.ID)
		ctx = logger.NewContext(ctx, &userLogger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
