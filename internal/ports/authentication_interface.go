package ports

import (
	"auth-session-server/internal/model"
	"context"
)

type AuthenticationService interface {
	Login(ctx context.Context, email, password string) (*model.SessionPair, error)
	Register(ctx context.Context, input model.RegisterInput) (*model.SessionPair, error)
	Authenticate(ctx context.Context, accessToken string) (*model.AuthContext, error)
	RefreshAccess(ctx context.Context, accessToken, refreshToken string) (*model.RefreshResult, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
}
