package guard

import (
	"context"
	"sync"

	"github.com/flipcoin/miniapp/internal/domain"
)

// InFlight allows one pending action per key, so a second tap on a game
// button while a round is still resolving is refused.
type InFlight struct {
	mu      sync.Mutex
	pending map[string]bool
}

// NewInFlight creates an empty in-flight guard.
func NewInFlight() *InFlight {
	return &InFlight{
		pending: make(map[string]bool),
	}
}

// Check claims key. It is refused while a previous claim is not released.
func (g *InFlight) Check(_ context.Context, key string) domain.GuardResult {
	if key == "" {
		return domain.GuardResult{Allowed: true}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending[key] {
		return domain.GuardResult{
			Allowed: false,
			Reason:  "previous " + key + " round still in progress",
			Guard:   "in_flight",
		}
	}

	g.pending[key] = true
	return domain.GuardResult{Allowed: true}
}

// Release frees key.
func (g *InFlight) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pending, key)
}
