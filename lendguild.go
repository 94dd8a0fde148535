// Package lendguild assembles the delegation registry, reputation ledger
// and lending engine into one embeddable protocol instance. The embedding
// process supplies an authenticator for its own trust boundary and calls
// the service methods directly; there is no network surface here.
package lendguild

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kazz187/lendguild/internal/clock"
	"github.com/kazz187/lendguild/internal/config"
	"github.com/kazz187/lendguild/internal/delegation"
	delegationrepo "github.com/kazz187/lendguild/internal/delegation/repositoryimpl"
	"github.com/kazz187/lendguild/internal/eventbus"
	"github.com/kazz187/lendguild/internal/identity"
	"github.com/kazz187/lendguild/internal/lending"
	lendingrepo "github.com/kazz187/lendguild/internal/lending/repositoryimpl"
	"github.com/kazz187/lendguild/internal/reputation"
	reputationrepo "github.com/kazz187/lendguild/internal/reputation/repositoryimpl"
	"github.com/kazz187/lendguild/internal/token"
	"github.com/kazz187/lendguild/pkg/cerr"
	"github.com/kazz187/lendguild/pkg/clog"
	"github.com/kazz187/lendguild/pkg/storage"
)

// Protocol is one wired instance of the three services sharing a clock,
// an event bus and a token ledger.
type Protocol struct {
	Delegation *delegation.Service
	Reputation *reputation.Service
	Lending    *lending.Service
	Ledger     token.Ledger
	Bus        *eventbus.Bus
}

// New builds a Protocol from env. Dependencies between the services are
// not bound here: the engine stays inert until Lending.Initialize (or
// Rebind after a restart) is called with the collaborator set.
func New(ctx context.Context, env *config.Env, auth identity.Authenticator) (*Protocol, error) {
	store, err := NewStorage(ctx, config.StorageEnvFromEnv(env))
	if err != nil {
		return nil, err
	}

	clk := clock.New()
	bus := eventbus.New()
	policy := lending.PolicyFromEnv(config.PolicyEnvFromEnv(env))

	return &Protocol{
		Delegation: delegation.NewService(delegationrepo.NewYAMLRepository(store), auth, clk, bus),
		Reputation: reputation.NewService(reputationrepo.NewYAMLRepository(store), auth, clk, bus),
		Lending:    lending.NewService(lendingrepo.NewYAMLRepository(store), auth, clk, bus, policy),
		Ledger:     token.NewYAMLLedger(store),
		Bus:        bus,
	}, nil
}

// NewStorage selects the storage backend from env.
func NewStorage(ctx context.Context, env *config.StorageEnv) (storage.Storage, error) {
	switch env.Type {
	case "s3":
		s, err := storage.NewS3Storage(ctx, env.S3Bucket, env.S3Prefix, env.S3Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 storage: %w", err)
		}
		return s, nil
	default:
		s, err := storage.NewLocalStorage(env.BaseDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create local storage: %w", err)
		}
		return s, nil
	}
}

// SetupLogger installs the process-wide slog logger: text for local
// development, JSON elsewhere, both folding context attributes into each
// record.
func SetupLogger(env *config.BaseEnv) {
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))
}

// LogResult logs the outcome of a protocol operation at a level derived
// from its error code. Policy rejections are routine traffic and stay at
// Info; only system faults surface as errors.
func LogResult(ctx context.Context, op string, err error) {
	if err == nil {
		slog.Log(ctx, slog.LevelDebug, op)
		return
	}
	code := cerr.CodeOf(err)
	clog.AddError(ctx, err)
	slog.Log(ctx, clog.CodeToLevel(code).SlogLevel(), op, "code", code.String())
}
