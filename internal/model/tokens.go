package model

import "time"

type TokenKind string

const (
	AccessKind  TokenKind = "access"
	RefreshKind TokenKind = "refresh"
)

func (k TokenKind) Valid() bool {
	return k == AccessKind || k == RefreshKind
}

// Credential : общий интерфейс для access и refresh токенов.
// Реализуют только AccessCredential и RefreshCredential
type Credential interface {
	Kind() TokenKind
	Subject() int64
	JTI() string
	Expiry() time.Time
}

// AccessCredential : полезная нагрузка короткоживущего access токена.
// Role и Username - снимок на момент выдачи
type AccessCredential struct {
	PrincipalID int64
	Role        string
	Username    string
	TokenID     string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

func (c *AccessCredential) Kind() TokenKind   { return AccessKind }
func (c *AccessCredential) Subject() int64    { return c.PrincipalID }
func (c *AccessCredential) JTI() string       { return c.TokenID }
func (c *AccessCredential) Expiry() time.Time { return c.ExpiresAt }

// RefreshCredential : полезная нагрузка долгоживущего refresh токена
type RefreshCredential struct {
	PrincipalID int64
	TokenID     string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

func (c *RefreshCredential) Kind() TokenKind   { return RefreshKind }
func (c *RefreshCredential) Subject() int64    { return c.PrincipalID }
func (c *RefreshCredential) JTI() string       { return c.TokenID }
func (c *RefreshCredential) Expiry() time.Time { return c.ExpiresAt }

// RemainingTTL возвращает оставшееся время жизни токена, не меньше секунды,
// чтобы запись в Redis не создавалась без срока жизни
func RemainingTTL(c Credential, now time.Time) time.Duration {
	ttl := c.Expiry().Sub(now).Truncate(time.Second)
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}

// IssuedToken : подписанный токен вместе с его полезной нагрузкой
type IssuedToken struct {
	Token      string
	Credential Credential
}

// SessionPair содержит пару access и refresh токенов одного пользователя
type SessionPair struct {
	Access  *IssuedToken
	Refresh *IssuedToken
}

// AuthContext кладется в контекст запроса после успешной аутентификации
type AuthContext struct {
	PrincipalID  int64         `json:"id"`
	Role         string        `json:"role"`
	Username     string        `json:"username"`
	TokenID      string        `json:"jti"`
	RemainingTTL time.Duration `json:"-"`
}

// RefreshResult : результат refreshAccess.
// Access == nil, если предъявленный access токен еще действителен
type RefreshResult struct {
	Auth    *AuthContext
	Access  *IssuedToken
	Refresh *IssuedToken
}
