package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/lendguild/pkg/cerr"
	"github.com/kazz187/lendguild/pkg/storage"
)

const credentialsPrefix = "credentials"

// Credential binds a hashed bearer token to a principal. Only the sha256
// hash of the token is ever stored.
type Credential struct {
	Principal string `yaml:"principal"`
	TokenHash string `yaml:"token_hash"`
	Revoked   bool   `yaml:"revoked"`
}

type tokenKey struct{}

// WithToken returns a context carrying the caller's bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// BearerAuthenticator verifies bearer tokens against stored credentials.
type BearerAuthenticator struct {
	storage storage.Storage
}

func NewBearerAuthenticator(s storage.Storage) *BearerAuthenticator {
	return &BearerAuthenticator{storage: s}
}

func credentialPath(tokenHash string) string {
	return fmt.Sprintf("%s/%s.yaml", credentialsPrefix, tokenHash)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Issue mints a bearer token for principal and stores its credential.
func (a *BearerAuthenticator) Issue(ctx context.Context, principal string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to generate token: %w", err))
	}
	token := hex.EncodeToString(raw)
	cred := Credential{
		Principal: principal,
		TokenHash: hashToken(token),
	}
	data, err := yaml.Marshal(&cred)
	if err != nil {
		return "", cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal credential: %w", err))
	}
	if err := a.storage.Write(ctx, credentialPath(cred.TokenHash), data); err != nil {
		return "", cerr.WrapStorageWriteError("credential", err)
	}
	return token, nil
}

// RevokeToken permanently invalidates a previously issued token.
func (a *BearerAuthenticator) RevokeToken(ctx context.Context, token string) error {
	path := credentialPath(hashToken(token))
	data, err := a.storage.Read(ctx, path)
	if err != nil {
		return cerr.WrapStorageReadError("credential", err)
	}
	var cred Credential
	if err := yaml.Unmarshal(data, &cred); err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal credential: %w", err))
	}
	cred.Revoked = true
	out, err := yaml.Marshal(&cred)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal credential: %w", err))
	}
	if err := a.storage.Write(ctx, path, out); err != nil {
		return cerr.WrapStorageWriteError("credential", err)
	}
	return nil
}

func (a *BearerAuthenticator) RequireAuth(ctx context.Context, principal string) error {
	token, ok := ctx.Value(tokenKey{}).(string)
	if !ok || token == "" {
		return cerr.NewError(cerr.Unauthorized, "no bearer token", nil)
	}
	data, err := a.storage.Read(ctx, credentialPath(hashToken(token)))
	if err != nil {
		return cerr.NewError(cerr.Unauthorized, "unknown token", err)
	}
	var cred Credential
	if err := yaml.Unmarshal(data, &cred); err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal credential: %w", err))
	}
	if cred.Revoked {
		return cerr.NewError(cerr.Unauthorized, "token revoked", nil)
	}
	if cred.Principal != principal {
		return cerr.NewError(cerr.Unauthorized, fmt.Sprintf("not authenticated as %s", principal), nil)
	}
	return nil
}
