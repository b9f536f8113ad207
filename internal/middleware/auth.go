package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wawengkz/INVENT/internal/models"
	"github.com/wawengkz/INVENT/internal/secrets"
)

// TokenAuth проверяет Authorization: Bearer <token>. Пустой набор токенов открывает API.
// Имя токена кладётся в контекст как пользователь.
func TokenAuth(tokens *secrets.TokenSet) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokens.Empty() {
				next.ServeHTTP(w, r)
				return
			}
			const p = "Bearer "
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, p) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="invent"`)
				models.NewProblem(http.StatusUnauthorized, "bearer token required").Write(w)
				return
			}
			name, err := tokens.Verify(strings.TrimSpace(strings.TrimPrefix(auth, p)))
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="invent", error="invalid_token"`)
				models.NewProblem(http.StatusUnauthorized, "invalid token").Write(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), name)))
		})
	}
}

func WithUser(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, userKey, name)
}

// UserFrom: имя токена текущего запроса или "".
func UserFrom(ctx context.Context) string {
	s, _ := ctx.Value(userKey).(string)
	return s
}
