package service

import (
	"auth-session-server/internal/metrics"
	"auth-session-server/internal/model"
	"auth-session-server/internal/ports"
	"auth-session-server/internal/security"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultStoreTimeout = 2 * time.Second

type Options struct {
	// StoreTimeout ограничивает каждый вызов Redis и БД внутри запроса
	StoreTimeout time.Duration
	// RotateRefreshOnUse : при каждом refresh выдается новый refresh токен, старый вытесняется из whitelist
	RotateRefreshOnUse bool
}

type AuthenticationService struct {
	codec     ports.CredentialCodec
	store     ports.RevocationStore
	users     ports.UserRepository
	passwords ports.PasswordVerifier
	metrics   *metrics.Recorder
	options   Options
	now       func() time.Time

	// dummyHash сравнивается с паролем, когда пользователь не найден
	dummyOnce sync.Once
	dummyHash string
}

func NewAuthenticationService(
	codec ports.CredentialCodec,
	store ports.RevocationStore,
	users ports.UserRepository,
	passwords ports.PasswordVerifier,
	recorder *metrics.Recorder,
	options Options,
) *AuthenticationService {
	if options.StoreTimeout <= 0 {
		options.StoreTimeout = defaultStoreTimeout
	}
	return &AuthenticationService{
		codec:     codec,
		store:     store,
		users:     users,
		passwords: passwords,
		metrics:   recorder,
		options:   options,
		now:       time.Now,
	}
}

// WithClock подменяет источник времени для TTL записей и AuthContext, используется в тестах
func (s *AuthenticationService) WithClock(now func() time.Time) *AuthenticationService {
	s.now = now
	return s
}

// Login проверяет email и пароль и выдает пару токенов.
// Ответ не различает "нет такого пользователя" и "неверный пароль"
func (s *AuthenticationService) Login(ctx context.Context, email, password string) (*model.SessionPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	validation := &model.ValidationError{}
	if email == "" {
		validation.Add("email", "email обязателен")
	}
	if password == "" {
		validation.Add("password", "пароль обязателен")
	}
	if err := validation.OrNil(); err != nil {
		return nil, err
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.options.StoreTimeout)
	user, err := s.users.FindByEmail(lookupCtx, email)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("[AuthService] %w: %v", model.ErrStoreUnavailable, err)
	}

	if user == nil {
		// время ответа не должно зависеть от того, существует ли пользователь
		s.passwords.Verify(s.missingUserHash(), password)
		log.Printf("[AuthService] пользователь %s не найден", email)
		return nil, model.ErrUnauthorized
	}
	if !s.passwords.Verify(user.PasswordHash, password) {
		log.Printf("[AuthService] неверный пароль для пользователя %d", user.ID)
		return nil, model.ErrUnauthorized
	}

	return s.IssuePair(ctx, user)
}

// Register создает пользователя с ролью user и сразу выдает пару токенов
func (s *AuthenticationService) Register(ctx context.Context, input model.RegisterInput) (*model.SessionPair, error) {
	input = normalizeRegisterInput(input)
	if err := validateRegisterInput(input); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("[AuthService] не удалось создать хэш пароля: %w", err)
	}

	createCtx, cancel := context.WithTimeout(ctx, s.options.StoreTimeout)
	created, err := s.users.CreateUser(createCtx, &model.User{
		Lastname:     input.Lastname,
		Firstname:    input.Firstname,
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: hash,
	}, model.RoleUser)
	cancel()
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("[AuthService] ошибка создания пользователя: %w", err)
	}

	return s.IssuePair(ctx, created)
}

// IssuePair выдает access и refresh токены и записывает их jti в whitelist.
// Токен, который не удалось записать в whitelist, клиенту не отдается
func (s *AuthenticationService) IssuePair(ctx context.Context, user *model.User) (*model.SessionPair, error) {
	access, err := s.issueAccess(ctx, user)
	if err != nil {
		return nil, err
	}

	refresh, err := s.issueRefresh(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &model.SessionPair{Access: access, Refresh: refresh}, nil
}

func (s *AuthenticationService) issueAccess(ctx context.Context, user *model.User) (*model.IssuedToken, error) {
	role := user.Role
	if role == "" {
		role = model.RoleUser
	}
	return s.issue(ctx, &model.AccessCredential{
		PrincipalID: user.ID,
		Role:        role,
		Username:    user.Username,
		TokenID:     uuid.NewString(),
	})
}

func (s *AuthenticationService) issueRefresh(ctx context.Context, principalID int64) (*model.IssuedToken, error) {
	return s.issue(ctx, &model.RefreshCredential{
		PrincipalID: principalID,
		TokenID:     uuid.NewString(),
	})
}

func (s *AuthenticationService) issue(ctx context.Context, credential model.Credential) (*model.IssuedToken, error) {
	token, err := s.codec.Issue(credential)
	if err != nil {
		return nil, fmt.Errorf("[AuthService] %w: %v", model.ErrTokenIssuanceFailed, err)
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.options.StoreTimeout)
	defer cancel()

	ok, err := s.store.SetWhitelist(storeCtx, credential.Kind(), credential.Subject(), credential.JTI(), model.RemainingTTL(credential, s.now()))
	if err != nil {
		return nil, fmt.Errorf("[AuthService] %w: %v", model.ErrWhitelistWriteFailed, err)
	}
	if !ok {
		return nil, fmt.Errorf("[AuthService] %w", model.ErrWhitelistWriteFailed)
	}

	s.metrics.IssuedCredential(string(credential.Kind()))
	return &model.IssuedToken{Token: token, Credential: credential}, nil
}

// Authenticate проверяет access токен запроса: подпись и срок, blacklist, whitelist и существование пользователя.
// Недоступность хранилища трактуется как отказ
func (s *AuthenticationService) Authenticate(ctx context.Context, accessToken string) (*model.AuthContext, error) {
	if accessToken == "" {
		return nil, s.reject(model.ReasonNoToken, 0)
	}

	credential := s.codec.VerifyAccess(accessToken)
	if credential == nil {
		return nil, s.reject(model.ReasonInvalidSignatureOrExpiry, 0)
	}

	return s.checkAccess(ctx, credential)
}

func (s *AuthenticationService) checkAccess(ctx context.Context, credential *model.AccessCredential) (*model.AuthContext, error) {
	if err := s.checkRevocation(ctx, credential); err != nil {
		return nil, err
	}

	if _, err := s.livePrincipal(ctx, credential); err != nil {
		return nil, err
	}

	return s.authContext(credential), nil
}

func (s *AuthenticationService) authContext(credential *model.AccessCredential) *model.AuthContext {
	return &model.AuthContext{
		PrincipalID:  credential.PrincipalID,
		Role:         credential.Role,
		Username:     credential.Username,
		TokenID:      credential.TokenID,
		RemainingTTL: credential.ExpiresAt.Sub(s.now()),
	}
}

// RefreshAccess : если access токен еще действителен, новый не выдается.
// Иначе (просрочен, отозван, вытеснен) по refresh токену выдается новый access токен (и refresh при ротации)
func (s *AuthenticationService) RefreshAccess(ctx context.Context, accessToken, refreshToken string) (*model.RefreshResult, error) {
	if accessToken != "" {
		if credential := s.codec.VerifyAccess(accessToken); credential != nil {
			auth, err := s.liveAccess(ctx, credential)
			if err != nil {
				return nil, err
			}
			if auth != nil {
				return &model.RefreshResult{Auth: auth}, nil
			}
		}
	}

	if refreshToken == "" {
		return nil, s.reject(model.ReasonNoRefreshToken, 0)
	}

	credential := s.codec.VerifyRefresh(refreshToken)
	if credential == nil {
		return nil, s.reject(model.ReasonInvalidRefreshToken, 0)
	}

	if err := s.checkRevocation(ctx, credential); err != nil {
		return nil, err
	}

	user, err := s.livePrincipal(ctx, credential)
	if err != nil {
		return nil, err
	}

	access, err := s.issueAccess(ctx, user)
	if err != nil {
		return nil, err
	}

	result := &model.RefreshResult{Access: access}
	if s.options.RotateRefreshOnUse {
		refresh, err := s.issueRefresh(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		result.Refresh = refresh
	}

	result.Auth = s.authContext(access.Credential.(*model.AccessCredential))

	return result, nil
}

// liveAccess : проверка access токена без отзыва. nil, nil - токен не годится, нужен refresh.
// Ошибка только при недоступности хранилища
func (s *AuthenticationService) liveAccess(ctx context.Context, credential *model.AccessCredential) (*model.AuthContext, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.options.StoreTimeout)
	defer cancel()

	revoked, found, err := s.store.GetBlacklist(storeCtx, credential.PrincipalID)
	if err != nil {
		return nil, s.unavailable(err)
	}
	if found && revoked == credential.TokenID {
		return nil, nil
	}

	current, found, err := s.store.GetWhitelist(storeCtx, model.AccessKind, credential.PrincipalID)
	if err != nil {
		return nil, s.unavailable(err)
	}
	if !found || current != credential.TokenID {
		return nil, nil
	}

	user, err := s.users.FindByID(storeCtx, credential.PrincipalID)
	if err != nil {
		return nil, s.unavailable(err)
	}
	if user == nil {
		return nil, nil
	}

	return s.authContext(credential), nil
}

// checkRevocation : сначала blacklist, затем совпадение с whitelist.
// Несовпадение с whitelist - признак повторного использования токена, токен отзывается
func (s *AuthenticationService) checkRevocation(ctx context.Context, credential model.Credential) error {
	storeCtx, cancel := context.WithTimeout(ctx, s.options.StoreTimeout)
	defer cancel()

	revoked, found, err := s.store.GetBlacklist(storeCtx, credential.Subject())
	if err != nil {
		return s.unavailable(err)
	}
	if found && revoked == credential.JTI() {
		return s.reject(model.ReasonBlacklisted, credential.Subject())
	}

	current, found, err := s.store.GetWhitelist(storeCtx, credential.Kind(), credential.Subject())
	if err != nil {
		return s.unavailable(err)
	}
	if !found || current != credential.JTI() {
		s.revoke(ctx, credential, metrics.CauseAnomaly)
		return s.reject(model.ReasonNotWhitelisted, credential.Subject())
	}

	return nil
}

func (s *AuthenticationService) livePrincipal(ctx context.Context, credential model.Credential) (*model.User, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.options.StoreTimeout)
	user, err := s.users.FindByID(lookupCtx, credential.Subject())
	cancel()
	if err != nil {
		return nil, s.unavailable(err)
	}
	if user == nil {
		s.revoke(ctx, credential, metrics.CausePrincipalGone)
		return nil, s.reject(model.ReasonPrincipalGone, credential.Subject())
	}
	return user, nil
}

// Logout отзывает предъявленные токены. Повторный logout не ошибка.
// refresh отзывается последним: в blacklist хранится один jti на пользователя
func (s *AuthenticationService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	var revoked []model.Credential

	if auth, err := security.GetAuthFromContext(ctx); err == nil {
		revoked = append(revoked, &model.AccessCredential{
			PrincipalID: auth.PrincipalID,
			TokenID:     auth.TokenID,
			ExpiresAt:   s.now().Add(auth.RemainingTTL),
		})
	} else if accessToken != "" {
		if credential := s.codec.VerifyAccess(accessToken); credential != nil {
			revoked = append(revoked, credential)
		}
	}

	if refreshToken != "" {
		if credential := s.codec.VerifyRefresh(refreshToken); credential != nil {
			revoked = append(revoked, credential)
		}
	}

	var firstErr error
	for _, credential := range revoked {
		if err := s.blacklist(ctx, credential); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.metrics.Revoked(metrics.CauseLogout)
	}

	if firstErr != nil {
		return s.unavailable(firstErr)
	}
	return nil
}

// revoke пишет в blacklist перед отказом; ошибка только логируется, запрос все равно отклоняется
func (s *AuthenticationService) revoke(ctx context.Context, credential model.Credential, cause string) {
	if err := s.blacklist(ctx, credential); err != nil {
		log.Printf("[AuthService] не удалось отозвать токен %s пользователя %d: %v", credential.JTI(), credential.Subject(), err)
		return
	}
	s.metrics.Revoked(cause)
}

func (s *AuthenticationService) blacklist(ctx context.Context, credential model.Credential) error {
	storeCtx, cancel := context.WithTimeout(ctx, s.options.StoreTimeout)
	defer cancel()

	ok, err := s.store.SetBlacklist(storeCtx, credential.Subject(), credential.JTI(), model.RemainingTTL(credential, s.now()))
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("blacklist не записан")
	}
	return nil
}

func (s *AuthenticationService) reject(reason model.RejectReason, principalID int64) error {
	log.Printf("[AuthService] токен пользователя %d отклонен: %s", principalID, reason)
	s.metrics.Rejected(string(reason))
	return model.Rejected(reason)
}

func (s *AuthenticationService) missingUserHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.passwords.Hash(uuid.NewString())
		if err != nil {
			log.Printf("[AuthService] не удалось создать фиктивный хэш: %v", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthenticationService) unavailable(err error) error {
	log.Printf("[AuthService] хранилище недоступно: %v", err)
	return fmt.Errorf("[AuthService] %w: %v", model.ErrStoreUnavailable, err)
}
