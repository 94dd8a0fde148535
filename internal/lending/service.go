package lending

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/kazz187/lendguild/internal/clock"
	"github.com/kazz187/lendguild/internal/eventbus"
	"github.com/kazz187/lendguild/internal/identity"
	"github.com/kazz187/lendguild/internal/token"
	"github.com/kazz187/lendguild/pkg/cerr"
)

// Scopes the engine checks against the delegation registry.
const (
	ScopeBorrow = "borrow"
	ScopeRepay  = "repay_loan"
)

// DelegationRegistry is the slice of the delegation registry the engine
// consumes.
type DelegationRegistry interface {
	IsAuthorized(ctx context.Context, agentID, action string, amount int64) bool
}

// ReputationLedger is the slice of the reputation ledger the engine
// consumes. UpdateScore calls are authenticated as the engine's own
// identity, which must be on the ledger's approved-caller set.
type ReputationLedger interface {
	GetScore(ctx context.Context, agentID string) uint32
	UpdateScore(ctx context.Context, caller, agentID string, delta int32) error
}

// Dependencies are the collaborator references Initialize binds once.
// SelfID doubles as the pool account on the value-transfer ledger and as
// the engine's caller identity on the reputation ledger.
type Dependencies struct {
	Delegation DelegationRegistry
	Reputation ReputationLedger
	Ledger     token.Ledger
	SelfID     string
}

// Service is the lending engine. It orchestrates the loan lifecycle:
// delegation and reputation gates, tiered limits, pool utilization,
// disbursement and repayment transfers, and time-based default handling.
type Service struct {
	mu       sync.Mutex
	repo     Repository
	auth     identity.Authenticator
	clock    clock.Clock
	eventBus *eventbus.Bus
	policy   Policy

	deps *Dependencies
}

func NewService(repo Repository, auth identity.Authenticator, clk clock.Clock, eventBus *eventbus.Bus, policy Policy) *Service {
	return &Service{
		repo:     repo,
		auth:     auth,
		clock:    clk,
		eventBus: eventBus,
		policy:   policy,
	}
}

// Initialize binds the collaborator references and records the admin.
// One-time; every other operation fails with NotInitialized until it ran.
func (s *Service) Initialize(ctx context.Context, admin string, deps Dependencies) error {
	if err := s.auth.RequireAuth(ctx, admin); err != nil {
		return err
	}
	if deps.Delegation == nil || deps.Reputation == nil || deps.Ledger == nil || deps.SelfID == "" {
		return cerr.NewError(cerr.InvalidArgument, "all collaborator references are required", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.repo.GetConfig(ctx)
	switch {
	case err == nil:
		return cerr.NewError(cerr.AlreadyDone, "lending engine already initialized", nil)
	case !cerr.IsCode(err, cerr.NotFound):
		return err
	}

	cfg := &Config{
		Admin:         admin,
		SelfID:        deps.SelfID,
		InitializedAt: s.clock.Now(),
	}
	if err := s.repo.PutConfig(ctx, cfg); err != nil {
		return err
	}
	s.deps = &deps
	slog.InfoContext(ctx, "lending engine initialized", "admin", admin, "self_id", deps.SelfID)
	return nil
}

// Rebind reattaches collaborator references after a process restart.
// The stored config must exist and its SelfID must match.
func (s *Service) Rebind(ctx context.Context, deps Dependencies) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.repo.GetConfig(ctx)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return cerr.NewError(cerr.NotInitialized, "lending engine not initialized", err)
		}
		return err
	}
	if deps.Delegation == nil || deps.Reputation == nil || deps.Ledger == nil {
		return cerr.NewError(cerr.InvalidArgument, "all collaborator references are required", nil)
	}
	if deps.SelfID != cfg.SelfID {
		return cerr.NewError(cerr.InvalidArgument,
			fmt.Sprintf("self id %s does not match recorded %s", deps.SelfID, cfg.SelfID), nil)
	}
	s.deps = &deps
	return nil
}

func (s *Service) requireInitialized() (*Dependencies, error) {
	if s.deps == nil {
		return nil, cerr.NewError(cerr.NotInitialized, "lending engine not initialized", nil)
	}
	return s.deps, nil
}

func (s *Service) poolLocked(ctx context.Context) (*Pool, error) {
	p, err := s.repo.GetPool(ctx)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return &Pool{}, nil
		}
		return nil, err
	}
	return p, nil
}

// RequestLoan opens a loan for the agent. The checks run in a fixed order
// and the first failing one aborts the whole operation:
// delegation authorization, reputation tier limit, pool utilization,
// one-active-loan-per-agent, pool liquidity. On success the principal is
// transferred from the pool to the agent and the loan slot is written with
// due date now+duration.
func (s *Service) RequestLoan(ctx context.Context, agentID string, amount int64, duration uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deps, err := s.requireInitialized()
	if err != nil {
		return err
	}
	if amount <= 0 {
		return cerr.NewError(cerr.InvalidArgument, "loan amount must be positive", nil)
	}
	if duration == 0 {
		return cerr.NewError(cerr.InvalidArgument, "loan duration must be positive", nil)
	}

	if !deps.Delegation.IsAuthorized(ctx, agentID, ScopeBorrow, amount) {
		return cerr.NewError(cerr.Unauthorized, "agent not authorized to borrow this amount", nil)
	}

	score := deps.Reputation.GetScore(ctx, agentID)
	tierLimit := s.policy.MaxLoanForScore(score)
	if amount > tierLimit {
		return cerr.NewError(cerr.LimitExceeded,
			fmt.Sprintf("amount exceeds reputation-based limit %d for score %d", tierLimit, score), nil)
	}

	balance, err := deps.Ledger.Balance(ctx, deps.SelfID)
	if err != nil {
		return err
	}
	pool, err := s.poolLocked(ctx)
	if err != nil {
		return err
	}
	if util := s.policy.Utilization(pool.Outstanding, balance); util > s.policy.MaxUtilizationPc {
		return cerr.NewError(cerr.LimitExceeded,
			fmt.Sprintf("pool saturated: utilization %d%% above ceiling %d%%", util, s.policy.MaxUtilizationPc), nil)
	}

	existing, err := s.repo.GetLoan(ctx, agentID)
	switch {
	case err == nil:
		if existing.Active() {
			return cerr.NewError(cerr.InvalidState, "agent already has an active loan", nil)
		}
	case !cerr.IsCode(err, cerr.NotFound):
		return err
	}

	if balance < amount {
		return cerr.NewError(cerr.LimitExceeded, "insufficient liquidity in lending pool", nil)
	}

	now := s.clock.Now()
	loan := &Loan{
		ID:        ulid.Make().String(),
		AgentID:   agentID,
		Amount:    amount,
		CreatedAt: now,
		DueDate:   now + duration,
	}

	// The transfer goes first: a failed disbursement must leave no loan
	// record behind. The writes after it only touch the engine's own state.
	if err := deps.Ledger.Transfer(ctx, deps.SelfID, agentID, amount); err != nil {
		return err
	}
	if err := s.repo.PutLoan(ctx, loan); err != nil {
		return err
	}
	pool.Outstanding += amount
	if err := s.repo.PutPool(ctx, pool); err != nil {
		return err
	}

	slog.InfoContext(ctx, "loan opened",
		"loan_id", loan.ID, "agent_id", agentID, "amount", amount, "due_date", loan.DueDate, "score", score)
	s.eventBus.PublishNew(eventbus.EventLoanOpened, eventbus.Event{AgentID: agentID, LoanID: loan.ID, Amount: amount})
	return nil
}

// RepayLoan collects the principal back from the agent and settles the
// reputation outcome. The agent itself must have signed the call, since
// value moves out of its account.
func (s *Service) RepayLoan(ctx context.Context, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deps, err := s.requireInitialized()
	if err != nil {
		return err
	}

	loan, err := s.repo.GetLoan(ctx, agentID)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return cerr.NewError(cerr.NotFound, "no active loan for agent", err)
		}
		return err
	}
	if loan.Repaid {
		return cerr.NewError(cerr.AlreadyDone, "loan already repaid", nil)
	}
	if !deps.Delegation.IsAuthorized(ctx, agentID, ScopeRepay, loan.Amount) {
		return cerr.NewError(cerr.Unauthorized, "agent not authorized to repay", nil)
	}
	if err := s.auth.RequireAuth(ctx, agentID); err != nil {
		return err
	}

	if err := deps.Ledger.Transfer(ctx, agentID, deps.SelfID, loan.Amount); err != nil {
		return err
	}
	loan.Repaid = true
	if err := s.repo.PutLoan(ctx, loan); err != nil {
		return err
	}
	// A defaulted loan was already written off the aggregate by
	// ReportDefault; decrementing again would drive it negative.
	if !loan.PenaltyApplied {
		pool, err := s.poolLocked(ctx)
		if err != nil {
			return err
		}
		pool.Outstanding -= loan.Amount
		if err := s.repo.PutPool(ctx, pool); err != nil {
			return err
		}
	}

	now := s.clock.Now()
	delta := s.policy.RepaymentDelta(now, loan.DueDate)
	if err := s.updateScoreAsSelf(ctx, deps, agentID, delta); err != nil {
		return err
	}

	slog.InfoContext(ctx, "loan repaid",
		"loan_id", loan.ID, "agent_id", agentID, "amount", loan.Amount, "delta", delta)
	s.eventBus.PublishNew(eventbus.EventLoanRepaid,
		eventbus.Event{AgentID: agentID, LoanID: loan.ID, Amount: loan.Amount, Delta: delta})
	return nil
}

// ReportDefault applies the default penalty for an overdue unrepaid loan.
// Anyone may report; the penalty is applied at most once per loan instance.
func (s *Service) ReportDefault(ctx context.Context, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deps, err := s.requireInitialized()
	if err != nil {
		return err
	}

	loan, err := s.repo.GetLoan(ctx, agentID)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return cerr.NewError(cerr.NotFound, "no loan found for agent", err)
		}
		return err
	}
	if loan.Repaid {
		return cerr.NewError(cerr.AlreadyDone, "cannot report default on repaid loan", nil)
	}
	now := s.clock.Now()
	if !loan.Overdue(now, s.policy.GracePeriod) {
		return cerr.NewError(cerr.InvalidState, "loan is not overdue: still within grace period", nil)
	}
	if loan.PenaltyApplied {
		return cerr.NewError(cerr.AlreadyDone, "penalty already applied for this loan", nil)
	}

	if err := s.updateScoreAsSelf(ctx, deps, agentID, s.policy.DefaultPenalty); err != nil {
		return err
	}
	loan.PenaltyApplied = true
	if err := s.repo.PutLoan(ctx, loan); err != nil {
		return err
	}
	// Write the defaulted principal off the utilization aggregate; the slot
	// stays blocked until the agent repays.
	pool, err := s.poolLocked(ctx)
	if err != nil {
		return err
	}
	pool.Outstanding -= loan.Amount
	if err := s.repo.PutPool(ctx, pool); err != nil {
		return err
	}

	slog.InfoContext(ctx, "loan defaulted",
		"loan_id", loan.ID, "agent_id", agentID, "amount", loan.Amount, "delta", s.policy.DefaultPenalty)
	s.eventBus.PublishNew(eventbus.EventLoanDefaulted,
		eventbus.Event{AgentID: agentID, LoanID: loan.ID, Amount: loan.Amount, Delta: s.policy.DefaultPenalty})
	return nil
}

func (s *Service) updateScoreAsSelf(ctx context.Context, deps *Dependencies, agentID string, delta int32) error {
	selfCtx := identity.WithPrincipals(ctx, deps.SelfID)
	return deps.Reputation.UpdateScore(selfCtx, deps.SelfID, agentID, delta)
}

// IsOverdue reports whether the agent's loan is past its grace deadline.
// Pure predicate: observing an overdue loan never mutates anything; the
// penalty is applied only through ReportDefault.
func (s *Service) IsOverdue(ctx context.Context, agentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, err := s.repo.GetLoan(ctx, agentID)
	if err != nil {
		return false
	}
	return loan.Overdue(s.clock.Now(), s.policy.GracePeriod)
}

// GetLoan returns the agent's loan slot, or false when it is empty.
func (s *Service) GetLoan(ctx context.Context, agentID string) (*Loan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, err := s.repo.GetLoan(ctx, agentID)
	if err != nil {
		return nil, false
	}
	return loan, true
}

// PoolUtilization returns the lent-out share of the pool in percent.
func (s *Service) PoolUtilization(ctx context.Context) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deps, err := s.requireInitialized()
	if err != nil {
		return 0, err
	}
	balance, err := deps.Ledger.Balance(ctx, deps.SelfID)
	if err != nil {
		return 0, err
	}
	pool, err := s.poolLocked(ctx)
	if err != nil {
		return 0, err
	}
	return s.policy.Utilization(pool.Outstanding, balance), nil
}

// MaxLoanForScore exposes the tier table.
func (s *Service) MaxLoanForScore(score uint32) int64 {
	return s.policy.MaxLoanForScore(score)
}

// PoolBalance returns the pool's liquid balance.
func (s *Service) PoolBalance(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deps, err := s.requireInitialized()
	if err != nil {
		return 0, err
	}
	return deps.Ledger.Balance(ctx, deps.SelfID)
}
