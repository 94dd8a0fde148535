package lending

import (
	"github.com/kazz187/lendguild/internal/config"
	"github.com/kazz187/lendguild/internal/reputation"
)

// Policy holds the risk parameters the engine prices loans with: the tier
// table, the repayment reputation deltas and the time windows they key on,
// and the pool utilization ceiling.
type Policy struct {
	Tier1MaxLoan int64
	Tier2MaxLoan int64
	Tier3MaxLoan int64
	Tier4MaxLoan int64

	OnTimeBonus    int32
	EarlyBonus     int32
	LatePenalty    int32
	DefaultPenalty int32

	GracePeriod      uint64
	EarlyThreshold   uint64
	DefaultDuration  uint64
	MaxUtilizationPc uint32
}

func PolicyFromEnv(env *config.PolicyEnv) Policy {
	return Policy{
		Tier1MaxLoan:     env.Tier1MaxLoan,
		Tier2MaxLoan:     env.Tier2MaxLoan,
		Tier3MaxLoan:     env.Tier3MaxLoan,
		Tier4MaxLoan:     env.Tier4MaxLoan,
		OnTimeBonus:      env.OnTimeBonus,
		EarlyBonus:       env.EarlyBonus,
		LatePenalty:      env.LatePenalty,
		DefaultPenalty:   env.DefaultPenalty,
		GracePeriod:      env.GracePeriod,
		EarlyThreshold:   env.EarlyThreshold,
		DefaultDuration:  env.DefaultDuration,
		MaxUtilizationPc: env.MaxUtilizationPc,
	}
}

// MaxLoanForScore maps a reputation score to the largest loan the tier
// table allows. Scores outside the ledger's domain map to 0.
func (p Policy) MaxLoanForScore(score uint32) int64 {
	switch {
	case score <= 49:
		return 0
	case score <= 59:
		return p.Tier1MaxLoan
	case score <= 74:
		return p.Tier2MaxLoan
	case score <= 89:
		return p.Tier3MaxLoan
	case score <= uint32(reputation.MaxScore):
		return p.Tier4MaxLoan
	default:
		return 0
	}
}

// RepaymentDelta computes the reputation delta for a repayment at now
// against dueDate. The default band is checked first: it spans the widest
// range and would otherwise be shadowed by the on-time band.
func (p Policy) RepaymentDelta(now, dueDate uint64) int32 {
	switch {
	case now > dueDate+p.GracePeriod:
		return p.DefaultPenalty
	case now+p.EarlyThreshold <= dueDate:
		return p.EarlyBonus
	case now <= dueDate+p.GracePeriod:
		return p.OnTimeBonus
	default:
		return p.LatePenalty
	}
}

// Utilization returns the lent-out share of the pool in percent. An empty
// pool reads as fully utilized.
func (p Policy) Utilization(outstanding, balance int64) uint32 {
	total := outstanding + balance
	if total <= 0 {
		return 100
	}
	return uint32(outstanding * 100 / total)
}
