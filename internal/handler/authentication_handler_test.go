package handler_test

import (
	"auth-session-server/internal/handler"
	"auth-session-server/internal/model"
	"auth-session-server/internal/model/requestresponse"
	"auth-session-server/internal/security"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ===== MOCKS =====

type MockAuthenticationService struct {
	mock.Mock
}

func (m *MockAuthenticationService) Login(ctx context.Context, email, password string) (*model.SessionPair, error) {
	args := m.Called(ctx, email, password)
	if p, ok := args.Get(0).(*model.SessionPair); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticationService) Register(ctx context.Context, input model.RegisterInput) (*model.SessionPair, error) {
	args := m.Called(ctx, input)
	if p, ok := args.Get(0).(*model.SessionPair); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticationService) Authenticate(ctx context.Context, accessToken string) (*model.AuthContext, error) {
	args := m.Called(ctx, accessToken)
	if a, ok := args.Get(0).(*model.AuthContext); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticationService) RefreshAccess(ctx context.Context, accessToken, refreshToken string) (*model.RefreshResult, error) {
	args := m.Called(ctx, accessToken, refreshToken)
	if r, ok := args.Get(0).(*model.RefreshResult); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticationService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	args := m.Called(ctx, accessToken, refreshToken)
	return args.Error(0)
}

// ===== HELPERS =====

var testCookies = handler.CookieSettings{AccessPath: "/", RefreshPath: "/api/auth/", Secure: true}

func issued(kind model.TokenKind, token string, ttl time.Duration) *model.IssuedToken {
	expiresAt := time.Now().Add(ttl)
	if kind == model.RefreshKind {
		return &model.IssuedToken{Token: token, Credential: &model.RefreshCredential{PrincipalID: 1, ExpiresAt: expiresAt}}
	}
	return &model.IssuedToken{Token: token, Credential: &model.AccessCredential{PrincipalID: 1, ExpiresAt: expiresAt}}
}

func testPair() *model.SessionPair {
	return &model.SessionPair{
		Access:  issued(model.AccessKind, "access-token", 7*time.Minute),
		Refresh: issued(model.RefreshKind, "refresh-token", 7*24*time.Hour),
	}
}

func responseCookies(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	cookies := make(map[string]*http.Cookie)
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}
	return cookies
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) requestresponse.ErrorResponse {
	t.Helper()
	var resp requestresponse.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// ===== LOGIN =====

func TestLoginHandler_SetsCookies(t *testing.T) {
	svc := new(MockAuthenticationService)
	h := handler.NewAuthenticationHandler(svc, testCookies)
	svc.On("Login", mock.Anything, "user@example.com", "P@ssw0rd123").Return(testPair(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"user@example.com","password":"P@ssw0rd123"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	cookies := responseCookies(rec)
	access := cookies[handler.AccessCookieName]
	require.NotNil(t, access)
	assert.Equal(t, "access-token", access.Value)
	assert.Equal(t, "/", access.Path)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	assert.Equal(t, http.SameSiteStrictMode, access.SameSite)
	assert.InDelta(t, 420, access.MaxAge, 2)

	refresh := cookies[handler.RefreshCookieName]
	require.NotNil(t, refresh)
	assert.Equal(t, "refresh-token", refresh.Value)
	assert.Equal(t, "/api/auth/", refresh.Path)
	assert.InDelta(t, 7*24*3600, refresh.MaxAge, 2)

	var resp requestresponse.AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.NotContains(t, rec.Body.String(), "access-token")
}

func TestLoginHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"неверные данные", model.ErrUnauthorized, http.StatusUnauthorized},
		{"валидация", &model.ValidationError{Fields: map[string]string{"email": "email обязателен"}}, http.StatusBadRequest},
		{"хранилище недоступно", fmt.Errorf("wrap: %w", model.ErrStoreUnavailable), http.StatusInternalServerError},
		{"ошибка выдачи", model.ErrWhitelistWriteFailed, http.StatusInternalServerError},
		{"неизвестная ошибка", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthenticationService)
			h := handler.NewAuthenticationHandler(svc, testCookies)
			svc.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@b.cd","password":"x"}`))
			rec := httptest.NewRecorder()
			h.Login(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Empty(t, rec.Result().Cookies())
			assert.Equal(t, tt.status, decodeError(t, rec).Error.Code)
		})
	}
}

func TestLoginHandler_BadJSON(t *testing.T) {
	svc := new(MockAuthenticationService)
	h := handler.NewAuthenticationHandler(svc, testCookies)

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
}

// ===== REGISTER =====

func TestRegisterHandler_Created(t *testing.T) {
	svc := new(MockAuthenticationService)
	h := handler.NewAuthenticationHandler(svc, testCookies)
	svc.On("Register", mock.Anything, model.RegisterInput{
		Lastname:  "Ivanov",
		Firstname: "Ivan",
		Email:     "user@example.com",
		Username:  "ivan42",
		Password:  "P@ssw0rd123",
	}).Return(testPair(), nil)

	body := `{"lastname":"Ivanov","firstname":"Ivan","email":"user@example.com","username":"ivan42","password":"P@ssw0rd123"}`
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, rec.Result().Cookies(), 2)
	svc.AssertExpectations(t)
}

func TestRegisterHandler_Conflict(t *testing.T) {
	svc := new(MockAuthenticationService)
	h := handler.NewAuthenticationHandler(svc, testCookies)
	svc.On("Register", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("[UserRepo] %w", model.ErrConflict))

	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterHandler_ValidationFields(t *testing.T) {
	svc := new(MockAuthenticationService)
	h := handler.NewAuthenticationHandler(svc, testCookies)

	validation := &model.ValidationError{}
	validation.Add("username", "имя пользователя должно содержать от 3 до 30 символов")
	validation.Add("email", "email должен быть валидным адресом")
	svc.On("Register", mock.Anything, mock.Anything).Return(nil, validation)

	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	require.Len(t, resp.ValidationErrors, 2)
	assert.Equal(t, "email", resp.ValidationErrors[0].Field)
	assert.Equal(t, "username", resp.ValidationErrors[1].Field)
}

// ===== REFRESH =====

func refreshRequest() *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: handler.AccessCookieName, Value: "old-access"})
	req.AddCookie(&http.Cookie{Name: handler.RefreshCookieName, Value: "refresh-token"})
	return req
}

func TestRefreshHandler_AccessStillValid(t *testing.T) {
	svc := new(MockAuthenticationService)
	h := handler.NewAuthenticationHandler(svc, testCookies)
	svc.On("RefreshAccess", mock.Anything, "old-access", "refresh-token").
		Return(&model.RefreshResult{Auth: &model.AuthContext{PrincipalID: 1}}, nil)

	rec := httptest.NewRecorder()
	h.RefreshToken(rec, refreshRequest())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestRefreshHandler_NewAccess(t *testing.T) {
	svc := new(MockAuthenticationService)
	h := handler.NewAuthenticationHandler(svc, testCookies)
	svc.On("RefreshAccess", mock.Anything, "old-access", "refresh-token").
		Return(&model.RefreshResult{Access: issued(model.AccessKind, "new-access", 7*time.Minute)}, nil)

	rec := httptest.NewRecorder()
	h.RefreshToken(rec, refreshRequest())

	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := responseCookies(rec)
	require.Contains(t, cookies, handler.AccessCookieName)
	assert.Equal(t, "new-access", cookies[handler.AccessCookieName].Value)
	assert.NotContains(t, cookies, handler.RefreshCookieName)
}

func TestRefreshHandler_Rotated(t *testing.T) {
	svc := new(MockAuthenticationService)
	h := handler.NewAuthenticationHandler(svc, testCookies)
	svc.On("RefreshAccess", mock.Anything, "old-access", "refresh-token").
		Return(&model.RefreshResult{
			Access:  issued(model.AccessKind, "new-access", 7*time.Minute),
			Refresh: issued(model.RefreshKind, "new-refresh", 7*24*time.Hour),
		}, nil)

	rec := httptest.NewRecorder()
	h.RefreshToken(rec, refreshRequest())

	cookies := responseCookies(rec)
	require.Contains(t, cookies, handler.RefreshCookieName)
	assert.Equal(t, "new-refresh", cookies[handler.RefreshCookieName].Value)
}

func TestRefreshHandler_Rejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"blacklist", model.Rejected(model.ReasonBlacklisted)},
		{"нет refresh", model.Rejected(model.ReasonNoRefreshToken)},
		{"хранилище недоступно", fmt.Errorf("wrap: %w", model.ErrStoreUnavailable)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthenticationService)
			h := handler.NewAuthenticationHandler(svc, testCookies)
			svc.On("RefreshAccess", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := httptest.NewRecorder()
			h.RefreshToken(rec, refreshRequest())

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			// причина отказа наружу не отдается
			if reason := model.ReasonOf(tt.err); reason != "" {
				assert.NotContains(t, rec.Body.String(), string(reason))
			}
		})
	}
}

// ===== LOGOUT =====

func TestLogoutHandler_ClearsCookies(t *testing.T) {
	svc := new(MockAuthenticationService)
	h := handler.NewAuthenticationHandler(svc, testCookies)
	svc.On("Logout", mock.Anything, "old-access", "refresh-token").Return(nil)

	rec := httptest.NewRecorder()
	h.Logout(rec, refreshRequest())

	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := responseCookies(rec)
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.Empty(t, c.Value)
		assert.Less(t, c.MaxAge, 0)
	}
	svc.AssertExpectations(t)
}

func TestLogoutHandler_StoreUnavailable(t *testing.T) {
	svc := new(MockAuthenticationService)
	h := handler.NewAuthenticationHandler(svc, testCookies)
	svc.On("Logout", mock.Anything, mock.Anything, mock.Anything).Return(fmt.Errorf("wrap: %w", model.ErrStoreUnavailable))

	rec := httptest.NewRecorder()
	h.Logout(rec, refreshRequest())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Len(t, rec.Result().Cookies(), 2)
}

// ===== ME =====

func TestGetCurrentUser(t *testing.T) {
	h := handler.NewAuthenticationHandler(new(MockAuthenticationService), testCookies)
	auth := &model.AuthContext{PrincipalID: 3, Username: "ivan42", Role: model.RoleUser}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(security.WithAuth(req.Context(), auth))
	rec := httptest.NewRecorder()
	h.GetCurrentUser(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp requestresponse.CurrentUserResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(3), resp.Response.ID)
	assert.Equal(t, "ivan42", resp.Response.Username)
	assert.Equal(t, model.RoleUser, resp.Response.Role)
}

func TestGetCurrentUser_NoAuth(t *testing.T) {
	h := handler.NewAuthenticationHandler(new(MockAuthenticationService), testCookies)

	rec := httptest.NewRecorder()
	h.GetCurrentUserHead(rec, httptest.NewRequest(http.MethodHead, "/api/auth/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
