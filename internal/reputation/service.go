package reputation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kazz187/lendguild/internal/clock"
	"github.com/kazz187/lendguild/internal/eventbus"
	"github.com/kazz187/lendguild/internal/identity"
	"github.com/kazz187/lendguild/pkg/cerr"
)

// Service is the reputation ledger: per-agent scores in [MinScore,MaxScore],
// mutable only by identities on the admin-curated approved-caller set.
type Service struct {
	mu       sync.Mutex
	repo     Repository
	auth     identity.Authenticator
	clock    clock.Clock
	eventBus *eventbus.Bus
}

func NewService(repo Repository, auth identity.Authenticator, clk clock.Clock, eventBus *eventbus.Bus) *Service {
	return &Service{
		repo:     repo,
		auth:     auth,
		clock:    clk,
		eventBus: eventBus,
	}
}

// Initialize stores the admin identity. One-time: a second call fails with
// AlreadyDone regardless of who signs it.
func (s *Service) Initialize(ctx context.Context, admin string) error {
	if err := s.auth.RequireAuth(ctx, admin); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.repo.GetAdmin(ctx)
	switch {
	case err == nil:
		return cerr.NewError(cerr.AlreadyDone, "reputation ledger already initialized", nil)
	case !cerr.IsCode(err, cerr.NotFound):
		return err
	}

	if err := s.repo.PutAdmin(ctx, &Admin{ID: admin, InitializedAt: s.clock.Now()}); err != nil {
		return err
	}
	slog.InfoContext(ctx, "reputation ledger initialized", "admin", admin)
	return nil
}

func (s *Service) requireAdmin(ctx context.Context, admin string) error {
	stored, err := s.repo.GetAdmin(ctx)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return cerr.NewError(cerr.NotInitialized, "reputation ledger not initialized", err)
		}
		return err
	}
	if stored.ID != admin {
		return cerr.NewError(cerr.Unauthorized, "only the admin can manage approved callers", nil)
	}
	return nil
}

// ApproveCaller adds caller to the approved-caller set. Idempotent.
func (s *Service) ApproveCaller(ctx context.Context, admin, caller string) error {
	if err := s.auth.RequireAuth(ctx, admin); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAdmin(ctx, admin); err != nil {
		return err
	}
	if _, err := s.repo.GetCaller(ctx, caller); err == nil {
		return nil
	} else if !cerr.IsCode(err, cerr.NotFound) {
		return err
	}
	if err := s.repo.PutCaller(ctx, &Caller{ID: caller, ApprovedAt: s.clock.Now()}); err != nil {
		return err
	}
	slog.InfoContext(ctx, "caller approved", "caller", caller)
	return nil
}

// RevokeCaller removes caller from the approved-caller set. Idempotent.
func (s *Service) RevokeCaller(ctx context.Context, admin, caller string) error {
	if err := s.auth.RequireAuth(ctx, admin); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAdmin(ctx, admin); err != nil {
		return err
	}
	if err := s.repo.DeleteCaller(ctx, caller); err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return nil
		}
		return err
	}
	slog.InfoContext(ctx, "caller approval revoked", "caller", caller)
	return nil
}

// GetScore returns the stored score, or DefaultScore when the agent has no
// record yet. Total: never fails.
func (s *Service) GetScore(ctx context.Context, agentID string) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getScoreLocked(ctx, agentID)
}

func (s *Service) getScoreLocked(ctx context.Context, agentID string) uint32 {
	sc, err := s.repo.GetScore(ctx, agentID)
	if err != nil {
		return DefaultScore
	}
	return sc.Value
}

func (s *Service) requireApproved(ctx context.Context, caller string) error {
	if err := s.auth.RequireAuth(ctx, caller); err != nil {
		return err
	}
	_, err := s.repo.GetCaller(ctx, caller)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return cerr.NewError(cerr.Unauthorized, fmt.Sprintf("caller %s not approved to update scores", caller), nil)
		}
		return err
	}
	return nil
}

// UpdateScore applies delta to the agent's score, saturating exactly at
// MinScore and MaxScore.
func (s *Service) UpdateScore(ctx context.Context, caller, agentID string, delta int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireApproved(ctx, caller); err != nil {
		return err
	}

	current := s.getScoreLocked(ctx, agentID)
	next := Clamp(current, delta)
	if err := s.repo.PutScore(ctx, &Score{AgentID: agentID, Value: next, UpdatedAt: s.clock.Now()}); err != nil {
		return err
	}
	slog.InfoContext(ctx, "score updated", "agent_id", agentID, "delta", delta, "score", next)
	s.eventBus.PublishNew(eventbus.EventScoreUpdated, eventbus.Event{AgentID: agentID, Delta: delta})
	return nil
}

// Freeze sets the agent's score to MinScore, representing a severe
// violation. Same authorization as UpdateScore.
func (s *Service) Freeze(ctx context.Context, caller, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireApproved(ctx, caller); err != nil {
		return err
	}

	if err := s.repo.PutScore(ctx, &Score{AgentID: agentID, Value: MinScore, UpdatedAt: s.clock.Now()}); err != nil {
		return err
	}
	slog.InfoContext(ctx, "score frozen", "agent_id", agentID)
	s.eventBus.PublishNew(eventbus.EventScoreFrozen, eventbus.Event{AgentID: agentID})
	return nil
}
