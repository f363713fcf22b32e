package security

import (
	"auth-session-server/config"
	"auth-session-server/internal/model"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidTokenID : jti пустой или не является UUID
	ErrInvalidTokenID = errors.New("невалидный идентификатор токена")

	// ErrInvalidPayload : не заполнены обязательные поля полезной нагрузки
	ErrInvalidPayload = errors.New("невалидная полезная нагрузка токена")

	// ErrUnknownKind : неизвестный тип токена
	ErrUnknownKind = errors.New("неизвестный тип токена")
)

// версия 1-5, вариант 8-b
var regexUUID = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func ValidTokenID(tokenID string) bool {
	return tokenID != "" && regexUUID.MatchString(tokenID)
}

type accessClaims struct {
	ID       int64  `json:"id"`
	Role     string `json:"role"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	ID int64 `json:"id"`
	jwt.RegisteredClaims
}

type keyConfig struct {
	secret []byte
	ttl    time.Duration
}

type JWTService struct {
	access  keyConfig
	refresh keyConfig
	issuer  string
	now     func() time.Time
}

func NewJWTService(cfg *config.JWTConfig) (*JWTService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" || cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("секреты access и refresh токенов должны быть заданы и различаться")
	}

	accessTTL, refreshTTL, err := cfg.TTLs()
	if err != nil {
		return nil, err
	}

	return &JWTService{
		access:  keyConfig{secret: []byte(cfg.AccessSecret), ttl: accessTTL},
		refresh: keyConfig{secret: []byte(cfg.RefreshSecret), ttl: refreshTTL},
		issuer:  cfg.Issuer,
		now:     time.Now,
	}, nil
}

// WithClock подменяет источник времени, используется в тестах
func (service *JWTService) WithClock(now func() time.Time) *JWTService {
	service.now = now
	return service
}

func (service *JWTService) TTL(kind model.TokenKind) time.Duration {
	if kind == model.RefreshKind {
		return service.refresh.ttl
	}
	return service.access.ttl
}

// Issue подписывает токен. IssuedAt и ExpiresAt у credential заполняются здесь,
// время жизни берется из конфигурации для данного типа токена.
// jti проверяется до подписи
func (service *JWTService) Issue(credential model.Credential) (string, error) {
	if credential == nil {
		return "", ErrInvalidPayload
	}
	if !ValidTokenID(credential.JTI()) {
		return "", ErrInvalidTokenID
	}
	if credential.Subject() <= 0 {
		return "", fmt.Errorf("%w: id пользователя обязателен", ErrInvalidPayload)
	}

	now := service.now().Truncate(time.Second)

	var claims jwt.Claims
	var key keyConfig

	switch c := credential.(type) {
	case *model.AccessCredential:
		if c.Role == "" || c.Username == "" {
			return "", fmt.Errorf("%w: role и username обязательны для access токена", ErrInvalidPayload)
		}
		key = service.access
		c.IssuedAt = now
		c.ExpiresAt = now.Add(key.ttl)
		claims = accessClaims{
			ID:               c.PrincipalID,
			Role:             c.Role,
			Username:         c.Username,
			RegisteredClaims: service.registered(c.TokenID, c.IssuedAt, c.ExpiresAt),
		}
	case *model.RefreshCredential:
		key = service.refresh
		c.IssuedAt = now
		c.ExpiresAt = now.Add(key.ttl)
		claims = refreshClaims{
			ID:               c.PrincipalID,
			RegisteredClaims: service.registered(c.TokenID, c.IssuedAt, c.ExpiresAt),
		}
	default:
		return "", ErrUnknownKind
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(key.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}

	return token, nil
}

func (service *JWTService) registered(tokenID string, issuedAt, expiresAt time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        tokenID,
		Issuer:    service.issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
}

// Verify проверяет подпись и срок действия.
// Невалидный или просроченный токен - это nil, nil; ошибка только при неизвестном типе
func (service *JWTService) Verify(kind model.TokenKind, token string) (model.Credential, error) {
	switch kind {
	case model.AccessKind:
		if c := service.VerifyAccess(token); c != nil {
			return c, nil
		}
		return nil, nil
	case model.RefreshKind:
		if c := service.VerifyRefresh(token); c != nil {
			return c, nil
		}
		return nil, nil
	default:
		return nil, ErrUnknownKind
	}
}

func (service *JWTService) VerifyAccess(token string) *model.AccessCredential {
	claims := &accessClaims{}
	if err := service.parse(token, claims, service.access.secret); err != nil {
		log.Printf("access токен не прошел проверку: %v", err)
		return nil
	}
	if claims.ID <= 0 || !ValidTokenID(claims.RegisteredClaims.ID) {
		log.Printf("access токен содержит невалидную полезную нагрузку")
		return nil
	}

	return &model.AccessCredential{
		PrincipalID: claims.ID,
		Role:        claims.Role,
		Username:    claims.Username,
		TokenID:     claims.RegisteredClaims.ID,
		IssuedAt:    claims.IssuedAt.Time,
		ExpiresAt:   claims.ExpiresAt.Time,
	}
}

func (service *JWTService) VerifyRefresh(token string) *model.RefreshCredential {
	claims := &refreshClaims{}
	if err := service.parse(token, claims, service.refresh.secret); err != nil {
		log.Printf("refresh токен не прошел проверку: %v", err)
		return nil
	}
	if claims.ID <= 0 || !ValidTokenID(claims.RegisteredClaims.ID) {
		log.Printf("refresh токен содержит невалидную полезную нагрузку")
		return nil
	}

	return &model.RefreshCredential{
		PrincipalID: claims.ID,
		TokenID:     claims.RegisteredClaims.ID,
		IssuedAt:    claims.IssuedAt.Time,
		ExpiresAt:   claims.ExpiresAt.Time,
	}
}

func (service *JWTService) parse(token string, claims jwt.Claims, secret []byte) error {
	if token == "" {
		return errors.New("пустой токен")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(service.now),
	}
	if service.issuer != "" {
		options = append(options, jwt.WithIssuer(service.issuer))
	}

	jwtToken, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Header["alg"] != jwt.SigningMethodHS512.Alg() {
			return nil, fmt.Errorf("неверный способ подписи токена: %v", t.Header["alg"])
		}
		return secret, nil
	}, options...)
	if err != nil {
		return err
	}
	if !jwtToken.Valid {
		return errors.New("невалидный токен")
	}

	return nil
}
