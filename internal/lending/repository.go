package lending

import "context"

type Repository interface {
	GetConfig(ctx context.Context) (*Config, error)
	PutConfig(ctx context.Context, c *Config) error
	GetLoan(ctx context.Context, agentID string) (*Loan, error)
	PutLoan(ctx context.Context, l *Loan) error
	GetPool(ctx context.Context) (*Pool, error)
	PutPool(ctx context.Context, p *Pool) error
}
