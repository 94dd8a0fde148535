package lending

import "testing"

func testPolicy() Policy {
	return Policy{
		Tier1MaxLoan:     5_000_000,
		Tier2MaxLoan:     20_000_000,
		Tier3MaxLoan:     50_000_000,
		Tier4MaxLoan:     100_000_000,
		OnTimeBonus:      8,
		EarlyBonus:       12,
		LatePenalty:      -5,
		DefaultPenalty:   -25,
		GracePeriod:      24 * 60 * 60,
		EarlyThreshold:   12 * 60 * 60,
		DefaultDuration:  7 * 24 * 60 * 60,
		MaxUtilizationPc: 80,
	}
}

func TestMaxLoanForScore(t *testing.T) {
	p := testPolicy()

	tests := []struct {
		score uint32
		want  int64
	}{
		{0, 0},
		{49, 0},
		{50, 5_000_000},
		{59, 5_000_000},
		{60, 20_000_000},
		{74, 20_000_000},
		{75, 50_000_000},
		{89, 50_000_000},
		{90, 100_000_000},
		{100, 100_000_000},
		{101, 0}, // outside the score domain
		{200, 0},
	}
	for _, tt := range tests {
		if got := p.MaxLoanForScore(tt.score); got != tt.want {
			t.Errorf("MaxLoanForScore(%d) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestMaxLoanForScoreMonotonic(t *testing.T) {
	p := testPolicy()
	prev := int64(0)
	for score := uint32(0); score <= 100; score++ {
		limit := p.MaxLoanForScore(score)
		if limit < prev {
			t.Fatalf("tier limit decreased at score %d: %d < %d", score, limit, prev)
		}
		prev = limit
	}
}

func TestRepaymentDelta(t *testing.T) {
	p := testPolicy()
	due := uint64(1_700_000_000)
	grace := p.GracePeriod
	early := p.EarlyThreshold

	tests := []struct {
		name string
		now  uint64
		want int32
	}{
		{"well before early threshold", due - early - 1, 12},
		{"exactly at early threshold", due - early, 12},
		{"just inside early window", due - early + 1, 8},
		{"exactly at due date", due, 8},
		{"one second late, inside grace", due + 1, 8},
		{"at grace deadline", due + grace, 8},
		{"one second past grace", due + grace + 1, -25},
		{"long past grace", due + 30*grace, -25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.RepaymentDelta(tt.now, due); got != tt.want {
				t.Errorf("RepaymentDelta(now=%d, due=%d) = %d, want %d", tt.now, due, got, tt.want)
			}
		})
	}
}

func TestUtilization(t *testing.T) {
	p := testPolicy()

	tests := []struct {
		name        string
		outstanding int64
		balance     int64
		want        uint32
	}{
		{"empty pool", 0, 0, 100},
		{"nothing lent", 0, 100, 0},
		{"one fifth lent", 20, 80, 20},
		{"everything lent", 100, 0, 100},
		{"above ceiling", 90, 10, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Utilization(tt.outstanding, tt.balance); got != tt.want {
				t.Errorf("Utilization(%d, %d) = %d, want %d", tt.outstanding, tt.balance, got, tt.want)
			}
		})
	}
}
