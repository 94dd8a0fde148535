package repositoryimpl

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/lendguild/internal/reputation"
	"github.com/kazz187/lendguild/pkg/cerr"
	"github.com/kazz187/lendguild/pkg/storage"
)

const (
	scoresPrefix  = "scores"
	callersPrefix = "approved_callers"
	adminPath     = "reputation_admin.yaml"
)

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func scorePath(agentID string) string {
	return fmt.Sprintf("%s/%s.yaml", scoresPrefix, agentID)
}

func callerPath(id string) string {
	return fmt.Sprintf("%s/%s.yaml", callersPrefix, id)
}

func (r *YAMLRepository) GetAdmin(ctx context.Context) (*reputation.Admin, error) {
	data, err := r.storage.Read(ctx, adminPath)
	if err != nil {
		return nil, cerr.WrapStorageReadError("reputation admin", err)
	}
	var a reputation.Admin
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal admin: %w", err))
	}
	return &a, nil
}

func (r *YAMLRepository) PutAdmin(ctx context.Context, a *reputation.Admin) error {
	data, err := yaml.Marshal(a)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal admin: %w", err))
	}
	if err := r.storage.Write(ctx, adminPath, data); err != nil {
		return cerr.WrapStorageWriteError("reputation admin", err)
	}
	return nil
}

func (r *YAMLRepository) GetScore(ctx context.Context, agentID string) (*reputation.Score, error) {
	data, err := r.storage.Read(ctx, scorePath(agentID))
	if err != nil {
		return nil, cerr.WrapStorageReadError("score", err)
	}
	var s reputation.Score
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal score: %w", err))
	}
	return &s, nil
}

func (r *YAMLRepository) PutScore(ctx context.Context, s *reputation.Score) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal score: %w", err))
	}
	if err := r.storage.Write(ctx, scorePath(s.AgentID), data); err != nil {
		return cerr.WrapStorageWriteError("score", err)
	}
	return nil
}

func (r *YAMLRepository) GetCaller(ctx context.Context, id string) (*reputation.Caller, error) {
	data, err := r.storage.Read(ctx, callerPath(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("approved caller", err)
	}
	var c reputation.Caller
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal caller: %w", err))
	}
	return &c, nil
}

func (r *YAMLRepository) PutCaller(ctx context.Context, c *reputation.Caller) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal caller: %w", err))
	}
	if err := r.storage.Write(ctx, callerPath(c.ID), data); err != nil {
		return cerr.WrapStorageWriteError("approved caller", err)
	}
	return nil
}

func (r *YAMLRepository) DeleteCaller(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, callerPath(id)); err != nil {
		return cerr.WrapStorageDeleteError("approved caller", err)
	}
	return nil
}
