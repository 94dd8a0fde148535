package identity

import (
	"context"
	"fmt"

	"github.com/kazz187/lendguild/pkg/cerr"
)

// Authenticator answers "was the current invocation authorized by this
// principal". Every mutating protocol operation calls RequireAuth before
// touching state; a failure aborts the operation with no side effects.
type Authenticator interface {
	RequireAuth(ctx context.Context, principal string) error
}

type principalsKey struct{}

// WithPrincipals returns a context carrying the set of principals the
// embedding process has already verified (for example from a signature
// check at its own boundary).
func WithPrincipals(ctx context.Context, principals ...string) context.Context {
	set := make(map[string]struct{}, len(principals))
	for _, p := range principals {
		set[p] = struct{}{}
	}
	return context.WithValue(ctx, principalsKey{}, set)
}

// ContextAuthenticator trusts the verified-principal set attached to the
// context by the embedding process.
type ContextAuthenticator struct{}

func NewContextAuthenticator() *ContextAuthenticator {
	return &ContextAuthenticator{}
}

func (a *ContextAuthenticator) RequireAuth(ctx context.Context, principal string) error {
	set, ok := ctx.Value(principalsKey{}).(map[string]struct{})
	if !ok {
		return cerr.NewError(cerr.Unauthorized, "no authenticated principal", nil)
	}
	if _, ok := set[principal]; !ok {
		return cerr.NewError(cerr.Unauthorized, fmt.Sprintf("not authenticated as %s", principal), nil)
	}
	return nil
}

// StaticAuthenticator authorizes a fixed set of principals unconditionally.
// Test use only.
type StaticAuthenticator struct {
	allowed map[string]struct{}
}

func Static(principals ...string) *StaticAuthenticator {
	set := make(map[string]struct{}, len(principals))
	for _, p := range principals {
		set[p] = struct{}{}
	}
	return &StaticAuthenticator{allowed: set}
}

func (a *StaticAuthenticator) RequireAuth(_ context.Context, principal string) error {
	if _, ok := a.allowed[principal]; !ok {
		return cerr.NewError(cerr.Unauthorized, fmt.Sprintf("not authenticated as %s", principal), nil)
	}
	return nil
}
