package repositoryimpl

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/lendguild/internal/lending"
	"github.com/kazz187/lendguild/pkg/cerr"
	"github.com/kazz187/lendguild/pkg/storage"
)

const (
	loansPrefix = "loans"
	configPath  = "lending_config.yaml"
	poolPath    = "lending_pool.yaml"
)

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func loanPath(agentID string) string {
	return fmt.Sprintf("%s/%s.yaml", loansPrefix, agentID)
}

func (r *YAMLRepository) GetConfig(ctx context.Context) (*lending.Config, error) {
	data, err := r.storage.Read(ctx, configPath)
	if err != nil {
		return nil, cerr.WrapStorageReadError("lending config", err)
	}
	var c lending.Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal config: %w", err))
	}
	return &c, nil
}

func (r *YAMLRepository) PutConfig(ctx context.Context, c *lending.Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal config: %w", err))
	}
	if err := r.storage.Write(ctx, configPath, data); err != nil {
		return cerr.WrapStorageWriteError("lending config", err)
	}
	return nil
}

func (r *YAMLRepository) GetLoan(ctx context.Context, agentID string) (*lending.Loan, error) {
	data, err := r.storage.Read(ctx, loanPath(agentID))
	if err != nil {
		return nil, cerr.WrapStorageReadError("loan", err)
	}
	var l lending.Loan
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal loan: %w", err))
	}
	return &l, nil
}

func (r *YAMLRepository) PutLoan(ctx context.Context, l *lending.Loan) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal loan: %w", err))
	}
	if err := r.storage.Write(ctx, loanPath(l.AgentID), data); err != nil {
		return cerr.WrapStorageWriteError("loan", err)
	}
	return nil
}

func (r *YAMLRepository) GetPool(ctx context.Context) (*lending.Pool, error) {
	data, err := r.storage.Read(ctx, poolPath)
	if err != nil {
		return nil, cerr.WrapStorageReadError("lending pool", err)
	}
	var p lending.Pool
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal pool: %w", err))
	}
	return &p, nil
}

func (r *YAMLRepository) PutPool(ctx context.Context, p *lending.Pool) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal pool: %w", err))
	}
	if err := r.storage.Write(ctx, poolPath, data); err != nil {
		return cerr.WrapStorageWriteError("lending pool", err)
	}
	return nil
}
