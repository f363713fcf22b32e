package repository

import (
	"auth-session-server/config"
	"auth-session-server/internal/model"
	"auth-session-server/internal/util"
	"context"
	"errors"
	"fmt"
	"github.com/redis/go-redis/v9"
	"log"
	"time"
)

// RevocationRepository хранит в Redis текущий jti для каждой пары (тип токена, пользователь)
// и последний отозванный jti пользователя. Все ключи живут не дольше самого токена
type RevocationRepository struct {
	client *config.RedisClient
}

func NewRevocationRepository(rdb *config.RedisClient) *RevocationRepository {
	return &RevocationRepository{rdb}
}

// SetWhitelist перезаписывает предыдущую запись для (kind, principalID)
func (r *RevocationRepository) SetWhitelist(ctx context.Context, kind model.TokenKind, principalID int64, tokenID string, ttl time.Duration) (bool, error) {
	if !kind.Valid() {
		return false, fmt.Errorf("неизвестный тип токена: %s", kind)
	}

	cmd := r.client.Client.Set(ctx, whitelistKey(kind, principalID), tokenID, ttl)
	if err := cmd.Err(); err != nil {
		return false, util.LogError("ошибка сохранения whitelist в Redis", err)
	}
	if cmd.Val() != "OK" {
		log.Printf("неожиданный ответ Redis при сохранении whitelist: %s", cmd.Val())
		return false, nil
	}

	return true, nil
}

func (r *RevocationRepository) GetWhitelist(ctx context.Context, kind model.TokenKind, principalID int64) (string, bool, error) {
	if !kind.Valid() {
		return "", false, fmt.Errorf("неизвестный тип токена: %s", kind)
	}
	return r.get(ctx, whitelistKey(kind, principalID))
}

func (r *RevocationRepository) DeleteWhitelist(ctx context.Context, kind model.TokenKind, principalID int64) (int64, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("неизвестный тип токена: %s", kind)
	}

	removed, err := r.client.Client.Del(ctx, whitelistKey(kind, principalID)).Result()
	if err != nil {
		return 0, util.LogError("ошибка удаления whitelist из Redis", err)
	}
	return removed, nil
}

// SetBlacklist отзывает токен и завершает всю сессию пользователя:
// после записи в blacklist удаляются обе whitelist записи.
// Ошибка удаления whitelist только логируется, blacklist проверяется первым
func (r *RevocationRepository) SetBlacklist(ctx context.Context, principalID int64, tokenID string, ttl time.Duration) (bool, error) {
	cmd := r.client.Client.Set(ctx, blacklistKey(principalID), tokenID, ttl)
	if err := cmd.Err(); err != nil {
		return false, util.LogError("ошибка сохранения blacklist в Redis", err)
	}
	if cmd.Val() != "OK" {
		log.Printf("неожиданный ответ Redis при сохранении blacklist: %s", cmd.Val())
		return false, nil
	}

	err := r.client.Client.Del(ctx,
		whitelistKey(model.AccessKind, principalID),
		whitelistKey(model.RefreshKind, principalID),
	).Err()
	if err != nil {
		log.Printf("не удалось удалить whitelist пользователя %d: %v", principalID, err)
	}

	return true, nil
}

func (r *RevocationRepository) GetBlacklist(ctx context.Context, principalID int64) (string, bool, error) {
	return r.get(ctx, blacklistKey(principalID))
}

func (r *RevocationRepository) get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil // ключа нет
	} else if err != nil {
		return "", false, util.LogError("ошибка получения ключа из Redis", err)
	}
	return val, true, nil
}

func whitelistKey(kind model.TokenKind, principalID int64) string {
	return fmt.Sprintf("whitelist:%s:%d", kind, principalID)
}

func blacklistKey(principalID int64) string {
	return fmt.Sprintf("blacklist:token:%d", principalID)
}
