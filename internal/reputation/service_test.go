package reputation_test

import (
	"context"
	"testing"
	"time"

	bclock "github.com/benbjohnson/clock"

	"github.com/kazz187/lendguild/internal/clock"
	"github.com/kazz187/lendguild/internal/eventbus"
	"github.com/kazz187/lendguild/internal/identity"
	"github.com/kazz187/lendguild/internal/reputation"
	"github.com/kazz187/lendguild/internal/reputation/repositoryimpl"
	"github.com/kazz187/lendguild/pkg/cerr"
	"github.com/kazz187/lendguild/pkg/storage"
)

func newService(t *testing.T, principals ...string) *reputation.Service {
	t.Helper()
	mock := bclock.NewMock()
	mock.Set(time.Unix(1_700_000_000, 0))
	repo := repositoryimpl.NewYAMLRepository(storage.NewMemoryStorage())
	return reputation.NewService(repo, identity.Static(principals...), clock.NewWith(mock), eventbus.New())
}

func initializedService(t *testing.T) *reputation.Service {
	t.Helper()
	ctx := context.Background()
	svc := newService(t, "admin", "caller")
	if err := svc.Initialize(ctx, "admin"); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := svc.ApproveCaller(ctx, "admin", "caller"); err != nil {
		t.Fatalf("ApproveCaller failed: %v", err)
	}
	return svc
}

func TestDefaultScore(t *testing.T) {
	svc := newService(t)
	if got := svc.GetScore(context.Background(), "agent-1"); got != 50 {
		t.Errorf("GetScore for unknown agent = %d, want 50", got)
	}
}

func TestUpdateScoreClamps(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		deltas []int32
		want   uint32
	}{
		{"single positive", []int32{5}, 55},
		{"positive then negative", []int32{5, -15}, 40},
		{"saturates at max", []int32{100}, 100},
		{"exact at max from 95", []int32{45, 100}, 100},
		{"saturates at min", []int32{-200}, 0},
		{"exact at min from 10", []int32{-40, -200}, 0},
		{"stays at floor", []int32{-25, -25, -10}, 0},
		{"zero delta", []int32{0}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := initializedService(t)
			for _, d := range tt.deltas {
				if err := svc.UpdateScore(ctx, "caller", "agent-1", d); err != nil {
					t.Fatalf("UpdateScore(%d) failed: %v", d, err)
				}
			}
			if got := svc.GetScore(ctx, "agent-1"); got != tt.want {
				t.Errorf("score = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClampTable(t *testing.T) {
	tests := []struct {
		current uint32
		delta   int32
		want    uint32
	}{
		{10, -200, 0},
		{95, 100, 100},
		{0, -1, 0},
		{100, 1, 100},
		{50, 0, 50},
		{0, 100, 100},
		{100, -100, 0},
	}
	for _, tt := range tests {
		if got := reputation.Clamp(tt.current, tt.delta); got != tt.want {
			t.Errorf("Clamp(%d, %d) = %d, want %d", tt.current, tt.delta, got, tt.want)
		}
	}
}

func TestUpdateScoreUnapprovedCaller(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, "admin", "stranger")
	if err := svc.Initialize(ctx, "admin"); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	err := svc.UpdateScore(ctx, "stranger", "agent-1", 5)
	if !cerr.IsCode(err, cerr.Unauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
	if got := svc.GetScore(ctx, "agent-1"); got != 50 {
		t.Errorf("score should be untouched, got %d", got)
	}
}

func TestInitializeTwice(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, "admin", "other")
	if err := svc.Initialize(ctx, "admin"); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	err := svc.Initialize(ctx, "other")
	if !cerr.IsCode(err, cerr.AlreadyDone) {
		t.Fatalf("expected AlreadyDone, got %v", err)
	}
}

func TestApproveCallerBeforeInitialize(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, "admin")
	err := svc.ApproveCaller(ctx, "admin", "caller")
	if !cerr.IsCode(err, cerr.NotInitialized) {
		t.Fatalf("expected NotInitialized, got %v", err)
	}
}

func TestApproveCallerAdminMismatch(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, "admin", "impostor")
	if err := svc.Initialize(ctx, "admin"); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	err := svc.ApproveCaller(ctx, "impostor", "caller")
	if !cerr.IsCode(err, cerr.Unauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
}

func TestApproveCallerIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := initializedService(t)
	if err := svc.ApproveCaller(ctx, "admin", "caller"); err != nil {
		t.Fatalf("second ApproveCaller should be a no-op, got %v", err)
	}
}

func TestRevokeCaller(t *testing.T) {
	ctx := context.Background()
	svc := initializedService(t)

	if err := svc.UpdateScore(ctx, "caller", "agent-1", 5); err != nil {
		t.Fatalf("UpdateScore failed: %v", err)
	}
	if err := svc.RevokeCaller(ctx, "admin", "caller"); err != nil {
		t.Fatalf("RevokeCaller failed: %v", err)
	}

	err := svc.UpdateScore(ctx, "caller", "agent-1", 5)
	if !cerr.IsCode(err, cerr.Unauthorized) {
		t.Fatalf("expected Unauthorized after revocation, got %v", err)
	}

	// Revoking a caller that is not approved is a no-op.
	if err := svc.RevokeCaller(ctx, "admin", "caller"); err != nil {
		t.Errorf("second RevokeCaller should succeed, got %v", err)
	}
}

func TestFreeze(t *testing.T) {
	ctx := context.Background()
	svc := initializedService(t)

	if err := svc.UpdateScore(ctx, "caller", "agent-1", 30); err != nil {
		t.Fatalf("UpdateScore failed: %v", err)
	}
	if got := svc.GetScore(ctx, "agent-1"); got != 80 {
		t.Fatalf("score = %d, want 80", got)
	}

	if err := svc.Freeze(ctx, "caller", "agent-1"); err != nil {
		t.Fatalf("Freeze failed: %v", err)
	}
	if got := svc.GetScore(ctx, "agent-1"); got != 0 {
		t.Errorf("frozen score = %d, want 0", got)
	}
}

func TestFreezeUnapproved(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, "admin", "stranger")
	if err := svc.Initialize(ctx, "admin"); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	err := svc.Freeze(ctx, "stranger", "agent-1")
	if !cerr.IsCode(err, cerr.Unauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
}
