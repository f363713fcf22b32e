package security

import (
	"auth-session-server/internal/model"
	"context"
	"fmt"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

func WithAuth(ctx context.Context, auth *model.AuthContext) context.Context {
	return context.WithValue(ctx, UserContextKey, auth)
}

func GetAuthFromContext(ctx context.Context) (*model.AuthContext, error) {
	auth, ok := ctx.Value(UserContextKey).(*model.AuthContext)
	if !ok || auth == nil {
		return nil, fmt.Errorf("пользователь не авторизован")
	}
	return auth, nil
}
