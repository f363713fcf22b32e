package handler

import (
	"auth-session-server/internal/model"
	"auth-session-server/internal/ports"
	"auth-session-server/internal/security"
	"net/http"
	"strings"
)

// RequireAuth проверяет access токен из cookie (или заголовка Authorization)
// и кладет model.AuthContext в контекст запроса
func RequireAuth(authService ports.AuthenticationService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth, err := authService.Authenticate(r.Context(), accessTokenFromRequest(r))
			if err != nil {
				writeServiceError(w, err, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(security.WithAuth(r.Context(), auth)))
		})
	}
}

// OptionalAuth : как RequireAuth, но без токена запрос проходит дальше без контекста
func OptionalAuth(authService ports.AuthenticationService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := accessTokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			auth, err := authService.Authenticate(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(security.WithAuth(r.Context(), auth)))
		})
	}
}

// RequireRoles пропускает только пользователей с одной из ролей. Ставится после RequireAuth
func RequireRoles(roles ...string) func(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth, err := security.GetAuthFromContext(r.Context())
			if err != nil {
				writeServiceError(w, model.Rejected(model.ReasonNoToken), http.StatusUnauthorized)
				return
			}
			if _, ok := allowed[auth.Role]; !ok {
				sendErrorResponse(w, http.StatusForbidden, forbiddenMessage)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func accessTokenFromRequest(r *http.Request) string {
	if token := cookieValue(r, AccessCookieName); token != "" {
		return token
	}
	authorizationHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authorizationHeader, "Bearer ") {
		return strings.TrimPrefix(authorizationHeader, "Bearer ")
	}
	return ""
}
