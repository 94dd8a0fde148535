package clock

import (
	"sync"

	bclock "github.com/benbjohnson/clock"
)

// Clock supplies the ledger timestamp the time-based loan rules run on.
type Clock interface {
	Now() uint64
}

// LedgerClock wraps a wall clock and clamps the reported timestamp so it
// never decreases across calls within the process lifetime.
type LedgerClock struct {
	mu    sync.Mutex
	inner bclock.Clock
	last  uint64
}

// New returns a LedgerClock backed by the system clock.
func New() *LedgerClock {
	return &LedgerClock{inner: bclock.New()}
}

// NewWith returns a LedgerClock backed by the given clock. Tests pass a
// *clock.Mock here.
func NewWith(inner bclock.Clock) *LedgerClock {
	return &LedgerClock{inner: inner}
}

func (c *LedgerClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := uint64(c.inner.Now().Unix())
	if now < c.last {
		return c.last
	}
	c.last = now
	return now
}
