package security

import (
	"auth-session-server/config"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// ограничения на параметры argon2id из БД, чтобы чужой хэш не положил сервер
const (
	maxArgonMemoryKiB = 256 * 1024
	maxArgonTime      = 10
	maxArgonThreads   = 16
)

const (
	defaultArgonMemoryKiB = 19 * 1024
	defaultArgonTime      = 2
	defaultArgonThreads   = 1

	argonSaltLength = 16
	argonKeyLength  = 32
)

// PasswordHasher : новые хэши - argon2id в формате PHC.
// Проверка принимает и argon2id, и bcrypt хэши пользователей, созданных раньше
type PasswordHasher struct {
	MemoryKiB  uint32
	Iterations uint32
	Threads    uint8
}

func NewPasswordHasher(cfg *config.PasswordConfig) *PasswordHasher {
	hasher := &PasswordHasher{
		MemoryKiB:  defaultArgonMemoryKiB,
		Iterations: defaultArgonTime,
		Threads:    defaultArgonThreads,
	}
	if cfg == nil {
		return hasher
	}

	if cfg.MemoryKiB > 0 {
		hasher.MemoryKiB = min(cfg.MemoryKiB, maxArgonMemoryKiB)
	}
	if cfg.Iterations > 0 {
		hasher.Iterations = min(cfg.Iterations, maxArgonTime)
	}
	if cfg.Parallelism > 0 {
		hasher.Threads = min(cfg.Parallelism, maxArgonThreads)
	}
	return hasher
}

// Hash возвращает строку вида $argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt>$<hash>
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("ошибка генерации соли: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.Iterations, h.MemoryKiB, h.Threads, argonKeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.MemoryKiB, h.Iterations, h.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *PasswordHasher) Verify(hash, password string) bool {
	if hash == "" {
		return false
	}
	if strings.HasPrefix(hash, "$argon2id$") {
		ok, err := verifyArgon2id(hash, password)
		if err != nil {
			return false
		}
		return ok
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// verifyArgon2id разбирает строку вида $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
func verifyArgon2id(encoded, password string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false, fmt.Errorf("неверный формат argon2id хэша")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("неверная версия argon2id: %w", err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("неподдерживаемая версия argon2id: %d", version)
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, fmt.Errorf("неверные параметры argon2id: %w", err)
	}
	if memory == 0 || memory > maxArgonMemoryKiB || iterations == 0 || iterations > maxArgonTime || threads == 0 || threads > maxArgonThreads {
		return false, fmt.Errorf("параметры argon2id вне допустимых границ")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("ошибка декодирования соли: %w", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false, fmt.Errorf("ошибка декодирования хэша")
	}

	actual := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(actual, expected) == 1, nil
}
