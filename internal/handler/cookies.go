package handler

import (
	"auth-session-server/internal/model"
	"net/http"
	"time"
)

const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"
)

// CookieSettings : access cookie доступна всему API, refresh cookie - только эндпоинтам /api/auth/
type CookieSettings struct {
	AccessPath  string
	RefreshPath string
	Secure      bool
}

func (c CookieSettings) setSession(w http.ResponseWriter, pair *model.SessionPair) {
	c.setAccess(w, pair.Access)
	c.setRefresh(w, pair.Refresh)
}

func (c CookieSettings) setAccess(w http.ResponseWriter, token *model.IssuedToken) {
	http.SetCookie(w, c.cookie(AccessCookieName, token.Token, c.AccessPath, maxAge(token)))
}

func (c CookieSettings) setRefresh(w http.ResponseWriter, token *model.IssuedToken) {
	http.SetCookie(w, c.cookie(RefreshCookieName, token.Token, c.RefreshPath, maxAge(token)))
}

func (c CookieSettings) clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(AccessCookieName, "", c.AccessPath, -1))
	http.SetCookie(w, c.cookie(RefreshCookieName, "", c.RefreshPath, -1))
}

func (c CookieSettings) cookie(name, value, path string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func maxAge(token *model.IssuedToken) int {
	seconds := int(model.RemainingTTL(token.Credential, time.Now()) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
