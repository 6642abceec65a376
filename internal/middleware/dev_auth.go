// internal/middleware/dev_auth.go
package middleware

import (
	"context"
	"net/http"

	"go_5_roadmap_keep/internal/model"

	"github.com/google/uuid"
)

// DevUserContextMiddleware は開発時にJWT検証を省略し、X-User-IDヘッダーの
// 値をそのまま認証済みユーザーとして扱います。本番では使用しないこと
func DevUserContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := GetLogger(r.Context())

		userIDStr := r.Header.Get("X-User-ID")
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			logger.Warn("Dev auth: missing or invalid X-User-ID header", "value", userIDStr)
			http.Error(w, "X-User-ID header required in dev mode", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), model.UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
