package ports

import "auth-session-server/internal/model"

// CredentialCodec : подпись и проверка токенов, без I/O
type CredentialCodec interface {
	Issue(credential model.Credential) (string, error)
	Verify(kind model.TokenKind, token string) (model.Credential, error)
	VerifyAccess(token string) *model.AccessCredential
	VerifyRefresh(token string) *model.RefreshCredential
}
