package identity

import (
	"context"
	"testing"

	"github.com/kazz187/lendguild/pkg/cerr"
	"github.com/kazz187/lendguild/pkg/storage"
)

func TestContextAuthenticator(t *testing.T) {
	auth := NewContextAuthenticator()

	tests := []struct {
		name       string
		ctx        context.Context
		principal  string
		wantedCode cerr.Code
	}{
		{
			name:       "no principals attached",
			ctx:        context.Background(),
			principal:  "alice",
			wantedCode: cerr.Unauthorized,
		},
		{
			name:       "attached principal",
			ctx:        WithPrincipals(context.Background(), "alice"),
			principal:  "alice",
			wantedCode: cerr.OK,
		},
		{
			name:       "different principal",
			ctx:        WithPrincipals(context.Background(), "alice"),
			principal:  "bob",
			wantedCode: cerr.Unauthorized,
		},
		{
			name:       "multiple principals",
			ctx:        WithPrincipals(context.Background(), "alice", "bob"),
			principal:  "bob",
			wantedCode: cerr.OK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.RequireAuth(tt.ctx, tt.principal)
			if tt.wantedCode == cerr.OK {
				if err != nil {
					t.Fatalf("RequireAuth failed: %v", err)
				}
				return
			}
			if !cerr.IsCode(err, tt.wantedCode) {
				t.Fatalf("expected %v, got %v", tt.wantedCode, err)
			}
		})
	}
}

func TestBearerAuthenticator(t *testing.T) {
	ctx := context.Background()
	auth := NewBearerAuthenticator(storage.NewMemoryStorage())

	token, err := auth.Issue(ctx, "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if token == "" {
		t.Fatal("Issue returned an empty token")
	}

	if err := auth.RequireAuth(WithToken(ctx, token), "alice"); err != nil {
		t.Fatalf("RequireAuth with issued token failed: %v", err)
	}

	t.Run("no token on context", func(t *testing.T) {
		if err := auth.RequireAuth(ctx, "alice"); !cerr.IsCode(err, cerr.Unauthorized) {
			t.Fatalf("expected Unauthorized, got %v", err)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		err := auth.RequireAuth(WithToken(ctx, "deadbeef"), "alice")
		if !cerr.IsCode(err, cerr.Unauthorized) {
			t.Fatalf("expected Unauthorized, got %v", err)
		}
	})

	t.Run("principal mismatch", func(t *testing.T) {
		err := auth.RequireAuth(WithToken(ctx, token), "bob")
		if !cerr.IsCode(err, cerr.Unauthorized) {
			t.Fatalf("expected Unauthorized, got %v", err)
		}
	})

	t.Run("revoked token", func(t *testing.T) {
		if err := auth.RevokeToken(ctx, token); err != nil {
			t.Fatalf("RevokeToken failed: %v", err)
		}
		err := auth.RequireAuth(WithToken(ctx, token), "alice")
		if !cerr.IsCode(err, cerr.Unauthorized) {
			t.Fatalf("expected Unauthorized after revocation, got %v", err)
		}
	})
}

func TestIssuedTokensAreDistinct(t *testing.T) {
	ctx := context.Background()
	auth := NewBearerAuthenticator(storage.NewMemoryStorage())

	first, err := auth.Issue(ctx, "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	second, err := auth.Issue(ctx, "alice")
	if err != nil {
		t.Fatalf("second Issue failed: %v", err)
	}
	if first == second {
		t.Fatal("two issued tokens should differ")
	}
	// Both remain valid until revoked individually.
	if err := auth.RequireAuth(WithToken(ctx, first), "alice"); err != nil {
		t.Errorf("first token rejected: %v", err)
	}
	if err := auth.RequireAuth(WithToken(ctx, second), "alice"); err != nil {
		t.Errorf("second token rejected: %v", err)
	}
}
