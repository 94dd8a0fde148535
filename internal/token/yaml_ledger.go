package token

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/lendguild/pkg/cerr"
	"github.com/kazz187/lendguild/pkg/storage"
)

const balancesPrefix = "balances"

// Account is the stored balance record for one identity.
type Account struct {
	ID      string `yaml:"id"`
	Balance int64  `yaml:"balance"`
}

// YAMLLedger is a storage-backed Ledger with one YAML record per account.
// Transfers are serialized so a debit and credit land together.
type YAMLLedger struct {
	mu      sync.Mutex
	storage storage.Storage
}

func NewYAMLLedger(s storage.Storage) *YAMLLedger {
	return &YAMLLedger{storage: s}
}

func path(account string) string {
	return fmt.Sprintf("%s/%s.yaml", balancesPrefix, account)
}

func (l *YAMLLedger) load(ctx context.Context, account string) (*Account, error) {
	data, err := l.storage.Read(ctx, path(account))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &Account{ID: account}, nil
		}
		return nil, cerr.WrapStorageReadError("account", err)
	}
	var a Account
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal account: %w", err))
	}
	return &a, nil
}

func (l *YAMLLedger) store(ctx context.Context, a *Account) error {
	data, err := yaml.Marshal(a)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal account: %w", err))
	}
	if err := l.storage.Write(ctx, path(a.ID), data); err != nil {
		return cerr.WrapStorageWriteError("account", err)
	}
	return nil
}

func (l *YAMLLedger) Balance(ctx context.Context, account string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, err := l.load(ctx, account)
	if err != nil {
		return 0, err
	}
	return a.Balance, nil
}

func (l *YAMLLedger) Transfer(ctx context.Context, from, to string, amount int64) error {
	if amount <= 0 {
		return cerr.NewError(cerr.InvalidArgument, "transfer amount must be positive", nil)
	}
	if from == to {
		return cerr.NewError(cerr.InvalidArgument, "transfer to self", nil)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	src, err := l.load(ctx, from)
	if err != nil {
		return err
	}
	if src.Balance < amount {
		return cerr.NewError(cerr.InvalidState, fmt.Sprintf("insufficient balance in %s", from), nil)
	}
	dst, err := l.load(ctx, to)
	if err != nil {
		return err
	}

	src.Balance -= amount
	dst.Balance += amount
	if err := l.store(ctx, src); err != nil {
		return err
	}
	if err := l.store(ctx, dst); err != nil {
		// Restore the debit so a failed credit does not burn funds.
		src.Balance += amount
		if rbErr := l.store(ctx, src); rbErr != nil {
			return cerr.NewError(cerr.Internal, "server error",
				fmt.Errorf("credit failed and debit rollback failed: %w", errors.Join(err, rbErr)))
		}
		return err
	}
	return nil
}

// Mint credits freshly issued funds to an account. Funding the lending pool
// goes through here.
func (l *YAMLLedger) Mint(ctx context.Context, account string, amount int64) error {
	if amount <= 0 {
		return cerr.NewError(cerr.InvalidArgument, "mint amount must be positive", nil)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	a, err := l.load(ctx, account)
	if err != nil {
		return err
	}
	a.Balance += amount
	return l.store(ctx, a)
}
