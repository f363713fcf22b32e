package handler_test

import (
	"auth-session-server/internal/handler"
	"auth-session-server/internal/model"
	"auth-session-server/internal/security"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newProtectedRouter(svc *MockAuthenticationService, roles ...string) *chi.Mux {
	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(handler.RequireAuth(svc))
		r.Use(handler.RequireRoles(roles...))
		r.Get("/protected", func(w http.ResponseWriter, r *http.Request) {
			auth, err := security.GetAuthFromContext(r.Context())
			if err != nil {
				w.WriteHeader(http.StatusTeapot)
				return
			}
			_, _ = fmt.Fprintf(w, "%d", auth.PrincipalID)
		})
	})
	return router
}

func TestRequireAuth_Cookie(t *testing.T) {
	svc := new(MockAuthenticationService)
	svc.On("Authenticate", mock.Anything, "cookie-token").
		Return(&model.AuthContext{PrincipalID: 5, Role: model.RoleUser}, nil)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: handler.AccessCookieName, Value: "cookie-token"})
	req.Header.Set("Authorization", "Bearer header-token")
	rec := httptest.NewRecorder()
	newProtectedRouter(svc, model.RoleUser).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5", rec.Body.String())
	svc.AssertExpectations(t)
}

func TestRequireAuth_BearerFallback(t *testing.T) {
	svc := new(MockAuthenticationService)
	svc.On("Authenticate", mock.Anything, "header-token").
		Return(&model.AuthContext{PrincipalID: 6, Role: model.RoleAdmin}, nil)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	rec := httptest.NewRecorder()
	newProtectedRouter(svc, model.RoleUser, model.RoleAdmin).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_Rejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"нет токена", model.Rejected(model.ReasonNoToken)},
		{"отозван", model.Rejected(model.ReasonBlacklisted)},
		{"хранилище недоступно", fmt.Errorf("wrap: %w", model.ErrStoreUnavailable)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthenticationService)
			svc.On("Authenticate", mock.Anything, "").Return(nil, tt.err)

			rec := httptest.NewRecorder()
			newProtectedRouter(svc, model.RoleUser).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRoles_Forbidden(t *testing.T) {
	svc := new(MockAuthenticationService)
	svc.On("Authenticate", mock.Anything, "cookie-token").
		Return(&model.AuthContext{PrincipalID: 5, Role: model.RoleUser}, nil)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: handler.AccessCookieName, Value: "cookie-token"})
	rec := httptest.NewRecorder()
	newProtectedRouter(svc, model.RoleAdmin).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOptionalAuth(t *testing.T) {
	svc := new(MockAuthenticationService)
	svc.On("Authenticate", mock.Anything, "bad").Return(nil, model.Rejected(model.ReasonInvalidSignatureOrExpiry))

	var authenticated bool
	next := handler.OptionalAuth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := security.GetAuthFromContext(r.Context())
		authenticated = err == nil
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	next.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, authenticated)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec = httptest.NewRecorder()
	next.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, authenticated)
	svc.AssertNumberOfCalls(t, "Authenticate", 1)
}
