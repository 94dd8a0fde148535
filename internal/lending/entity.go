package lending

// Loan is the per-agent loan slot. Each opened loan is a distinct instance
// with its own ULID and its own penalty flag, so a default on one loan never
// shadows or suppresses a default on a later one.
type Loan struct {
	ID             string `yaml:"id"`
	AgentID        string `yaml:"agent_id"`
	Amount         int64  `yaml:"amount"`
	Repaid         bool   `yaml:"repaid"`
	PenaltyApplied bool   `yaml:"penalty_applied"`
	CreatedAt      uint64 `yaml:"created_at"`
	DueDate        uint64 `yaml:"due_date"`
}

// Active reports whether the loan still holds principal.
func (l *Loan) Active() bool {
	return !l.Repaid
}

// Overdue reports whether the loan is past its grace deadline at now.
func (l *Loan) Overdue(now, gracePeriod uint64) bool {
	return l.Active() && now > l.DueDate+gracePeriod
}

// Pool is the lending pool aggregate, maintained on every loan open and
// close so utilization is computed from real data.
type Pool struct {
	Outstanding int64 `yaml:"outstanding"`
}

// Config is the engine's one-time setup record.
type Config struct {
	Admin         string `yaml:"admin"`
	SelfID        string `yaml:"self_id"`
	InitializedAt uint64 `yaml:"initialized_at"`
}
