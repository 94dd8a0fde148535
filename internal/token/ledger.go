package token

import "context"

// Ledger moves a fungible balance between accounts. The lending engine
// drives it to disburse and collect loan principal; it never inspects the
// ledger's internals beyond these two calls.
type Ledger interface {
	Balance(ctx context.Context, account string) (int64, error)
	Transfer(ctx context.Context, from, to string, amount int64) error
}
