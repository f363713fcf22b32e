package ports

import (
	"auth-session-server/internal/model"
	"context"
)

// PrincipalLookup : nil, nil если пользователь не найден
type PrincipalLookup interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type UserRepository interface {
	PrincipalLookup
	CreateUser(ctx context.Context, user *model.User, roleName string) (*model.User, error)
}

type PasswordVerifier interface {
	Verify(hash, plaintext string) bool
	Hash(plaintext string) (string, error)
}
