package delegation_test

import (
	"context"
	"testing"
	"time"

	bclock "github.com/benbjohnson/clock"

	"github.com/kazz187/lendguild/internal/clock"
	"github.com/kazz187/lendguild/internal/delegation"
	"github.com/kazz187/lendguild/internal/delegation/repositoryimpl"
	"github.com/kazz187/lendguild/internal/eventbus"
	"github.com/kazz187/lendguild/internal/identity"
	"github.com/kazz187/lendguild/pkg/cerr"
	"github.com/kazz187/lendguild/pkg/storage"
)

func newService(t *testing.T, principals ...string) *delegation.Service {
	t.Helper()
	mock := bclock.NewMock()
	mock.Set(time.Unix(1_700_000_000, 0))
	repo := repositoryimpl.NewYAMLRepository(storage.NewMemoryStorage())
	return delegation.NewService(repo, identity.Static(principals...), clock.NewWith(mock), eventbus.New())
}

func TestRegisterAndIsAuthorized(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, "owner")

	if err := svc.Register(ctx, "owner", "agent-1", []string{"repay_loan"}, 1000); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name   string
		agent  string
		action string
		amount int64
		want   bool
	}{
		{"scope and amount ok", "agent-1", "repay_loan", 500, true},
		{"amount at limit", "agent-1", "repay_loan", 1000, true},
		{"amount above limit", "agent-1", "repay_loan", 2000, false},
		{"action not granted", "agent-1", "borrow", 100, false},
		{"scope match is case-sensitive", "agent-1", "Repay_Loan", 100, false},
		{"unknown agent", "agent-2", "repay_loan", 100, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.IsAuthorized(ctx, tt.agent, tt.action, tt.amount); got != tt.want {
				t.Errorf("IsAuthorized(%s, %s, %d) = %v, want %v", tt.agent, tt.action, tt.amount, got, tt.want)
			}
		})
	}
}

func TestRegisterRequiresOwnerAuth(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, "someone-else")

	err := svc.Register(ctx, "owner", "agent-1", []string{"borrow"}, 1000)
	if !cerr.IsCode(err, cerr.Unauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, "owner")

	if err := svc.Register(ctx, "owner", "agent-1", []string{"repay_loan"}, 1000); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !svc.IsAuthorized(ctx, "agent-1", "repay_loan", 500) {
		t.Fatal("agent should be authorized before revocation")
	}

	if err := svc.Revoke(ctx, "owner", "agent-1"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if svc.IsAuthorized(ctx, "agent-1", "repay_loan", 500) {
		t.Error("revoked agent should not be authorized")
	}

	// Revoking again is a no-op.
	if err := svc.Revoke(ctx, "owner", "agent-1"); err != nil {
		t.Errorf("second Revoke should succeed, got %v", err)
	}
}

func TestRevokeUnknownAgent(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, "owner")

	err := svc.Revoke(ctx, "owner", "agent-1")
	if !cerr.IsCode(err, cerr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestRevokeByNonOwner(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, "owner", "intruder")

	if err := svc.Register(ctx, "owner", "agent-1", []string{"borrow"}, 1000); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	err := svc.Revoke(ctx, "intruder", "agent-1")
	if !cerr.IsCode(err, cerr.Unauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
}

func TestReRegisterKeepsRevocation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, "owner")

	if err := svc.Register(ctx, "owner", "agent-1", []string{"borrow"}, 1000); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := svc.Revoke(ctx, "owner", "agent-1"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	err := svc.Register(ctx, "owner", "agent-1", []string{"borrow"}, 1000)
	if !cerr.IsCode(err, cerr.InvalidState) {
		t.Fatalf("expected InvalidState on re-registration of revoked agent, got %v", err)
	}
	if svc.IsAuthorized(ctx, "agent-1", "borrow", 100) {
		t.Error("revoked agent must stay unauthorized after re-registration attempt")
	}
}

func TestReRegisterReplacesActiveRecord(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, "owner")

	if err := svc.Register(ctx, "owner", "agent-1", []string{"borrow"}, 1000); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := svc.Register(ctx, "owner", "agent-1", []string{"repay_loan"}, 500); err != nil {
		t.Fatalf("re-Register failed: %v", err)
	}

	if svc.IsAuthorized(ctx, "agent-1", "borrow", 100) {
		t.Error("replaced record should not keep the old scope")
	}
	if !svc.IsAuthorized(ctx, "agent-1", "repay_loan", 500) {
		t.Error("replaced record should carry the new scope")
	}
	if svc.IsAuthorized(ctx, "agent-1", "repay_loan", 800) {
		t.Error("replaced record should carry the new limit")
	}
}

func TestGetInfo(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, "owner")

	if _, ok := svc.GetInfo(ctx, "agent-1"); ok {
		t.Fatal("GetInfo should report absence for unknown agent")
	}
	if err := svc.Register(ctx, "owner", "agent-1", []string{"borrow"}, 1000); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	a, ok := svc.GetInfo(ctx, "agent-1")
	if !ok {
		t.Fatal("GetInfo should find registered agent")
	}
	if a.Owner != "owner" || a.MaxAmount != 1000 || a.Revoked {
		t.Errorf("unexpected agent record: %+v", a)
	}
}
