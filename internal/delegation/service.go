package delegation

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

// Service is the delegation registry: it owns Agent records and answers
// authorization queries for the other protocol services. Operations are
// serialized; each one runs against the latest durable state.
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

// Register creates or replaces the Agent record for agentID on behalf of
// owner. Replacing is allowed while the record is active (scopes and limits
// can be tightened or loosened), but a revoked agent stays revoked.
func (s *Service) Register(ctx context.Context, owner, agentID string, scopes []string, maxAmount int64) error {
	if err := s.auth.RequireAuth(ctx, owner); err != nil {
		return err
	}
	if agentID == "" {
		return cerr.NewError(cerr.InvalidArgument, "agent id must not be empty", nil)
	}
	if maxAmount < 0 {
		return cerr.NewError(cerr.InvalidArgument, "max amount must not be negative", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	a := &Agent{
		ID:        agentID,
		Owner:     owner,
		Scopes:    scopes,
		MaxAmount: maxAmount,
		CreatedAt: now,
		UpdatedAt: now,
	}
	existing, err := s.repo.Get(ctx, agentID)
	switch {
	case err == nil:
		if existing.Revoked {
			return cerr.NewError(cerr.InvalidState, fmt.Sprintf("agent %s is revoked", agentID), nil)
		}
		a.CreatedAt = existing.CreatedAt
	case !cerr.IsCode(err, cerr.NotFound):
		return err
	}

	if err := s.repo.Put(ctx, a); err != nil {
		return err
	}
	slog.InfoContext(ctx, "agent registered", "agent_id", agentID, "owner", owner, "max_amount", maxAmount)
	s.eventBus.PublishNew(eventbus.EventAgentRegistered, eventbus.Event{AgentID: agentID, Amount: maxAmount})
	return nil
}

// Revoke permanently disables the agent. Only the stored owner may revoke.
func (s *Service) Revoke(ctx context.Context, owner, agentID string) error {
	if err := s.auth.RequireAuth(ctx, owner); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.repo.Get(ctx, agentID)
	if err != nil {
		return err
	}
	if a.Owner != owner {
		return cerr.NewError(cerr.Unauthorized, "only the agent owner can revoke", nil)
	}
	if a.Revoked {
		return nil
	}

	a.Revoked = true
	a.UpdatedAt = s.clock.Now()
	if err := s.repo.Put(ctx, a); err != nil {
		return err
	}
	slog.InfoContext(ctx, "agent revoked", "agent_id", agentID, "owner", owner)
	s.eventBus.PublishNew(eventbus.EventAgentRevoked, eventbus.Event{AgentID: agentID})
	return nil
}

// IsAuthorized reports whether the agent may perform action with amount.
// It is a total query: unknown agents, revoked agents, amounts above the
// delegation limit and actions outside the granted scopes all answer false.
func (s *Service) IsAuthorized(ctx context.Context, agentID, action string, amount int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.repo.Get(ctx, agentID)
	if err != nil {
		return false
	}
	if a.Revoked {
		return false
	}
	if amount > a.MaxAmount {
		return false
	}
	return a.HasScope(action)
}

// GetInfo returns the agent record, or false when none exists.
func (s *Service) GetInfo(ctx context.Context, agentID string) (*Agent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.repo.Get(ctx, agentID)
	if err != nil {
		return nil, false
	}
	return a, true
}
