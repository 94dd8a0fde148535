package delegation

import "context"

type Repository interface {
	Get(ctx context.Context, id string) (*Agent, error)
	Put(ctx context.Context, a *Agent) error
}
