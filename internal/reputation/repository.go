package reputation

import "context"

type Repository interface {
	GetAdmin(ctx context.Context) (*Admin, error)
	PutAdmin(ctx context.Context, a *Admin) error
	GetScore(ctx context.Context, agentID string) (*Score, error)
	PutScore(ctx context.Context, s *Score) error
	GetCaller(ctx context.Context, id string) (*Caller, error)
	PutCaller(ctx context.Context, c *Caller) error
	DeleteCaller(ctx context.Context, id string) error
}
