package ports

import (
	"auth-session-server/internal/model"
	"context"
	"time"
)

// RevocationStore : Redis слой, whitelist и blacklist токенов по пользователю.
// Отсутствие записи не ошибка, ошибка только при недоступности хранилища
type RevocationStore interface {
	SetWhitelist(ctx context.Context, kind model.TokenKind, principalID int64, tokenID string, ttl time.Duration) (bool, error)
	GetWhitelist(ctx context.Context, kind model.TokenKind, principalID int64) (string, bool, error)
	DeleteWhitelist(ctx context.Context, kind model.TokenKind, principalID int64) (int64, error)
	SetBlacklist(ctx context.Context, principalID int64, tokenID string, ttl time.Duration) (bool, error)
	GetBlacklist(ctx context.Context, principalID int64) (string, bool, error)
}
