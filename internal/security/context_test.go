package security_test

import (
	"auth-session-server/internal/model"
	"auth-session-server/internal/security"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthContextRoundTrip(t *testing.T) {
	_, err := security.GetAuthFromContext(context.Background())
	assert.Error(t, err)

	auth := &model.AuthContext{PrincipalID: 7, Role: model.RoleAdmin, Username: "admin"}
	got, err := security.GetAuthFromContext(security.WithAuth(context.Background(), auth))
	require.NoError(t, err)
	assert.Same(t, auth, got)
}
