package middleware

import (
	"net/http"

	"boutique-be/internal/auth"
	"boutique-be/internal/logger"
	"boutique-be/internal/user"
	"boutique-be/internal/utils"

	"go.uber.org/zap"
)

// AuthMiddleware resolves the caller from the session cookie or bearer
// token. Anonymous requests pass through; a token that fails verification
// is rejected.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.ExtractAccessToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := user.ParseJWT(token)
		if err != nil {
			logger.FromCtx(r.Context()).Debug("rejected access token", zap.Error(err))
			utils.WriteJSONErrorCode(w, "invalid or expired token", "unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := utils.SetUserContext(r.Context(), claims.UserID, claims.Email, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
			utils.WriteJSONErrorCode(w, "authentication required", "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !utils.IsAdmin(r.Context()) {
			utils.WriteJSONErrorCode(w, "admin access required", "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}))
}
