package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flipcoin/miniapp/internal/domain"
)

// LimitTracker caches the daily play counters. Counters reset when the UTC
// calendar day changes, the same boundary the server resets on. The server's
// numbers replace the cache whenever they arrive.
type LimitTracker struct {
	mu     sync.Mutex
	limits domain.Limits
	day    string
	now    func() time.Time
}

// NewLimitTracker starts with zeroed counters and default maxima.
func NewLimitTracker() *LimitTracker {
	lt := &LimitTracker{now: time.Now}
	lt.limits = domain.DefaultLimits()
	lt.day = dayOf(lt.now())
	return lt
}

// Check refuses a play when the cached counter is at its maximum.
func (lt *LimitTracker) Check(_ context.Context, game domain.GameType) domain.GuardResult {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.rollLocked()

	l := lt.limits[game]
	if l.Reached() {
		return domain.GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("daily limit reached: %d/%d", l.Current, l.Max),
			Guard:   "daily_limit",
		}
	}
	return domain.GuardResult{Allowed: true}
}

// Record stores the counter reported after a play. A zero max keeps the
// known maximum.
func (lt *LimitTracker) Record(game domain.GameType, playsToday, maxPlays int) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.rollLocked()

	l := lt.limits[game]
	l.Current = playsToday
	if maxPlays > 0 {
		l.Max = maxPlays
	}
	lt.limits[game] = l
}

// Increment counts one local play and returns the new counter.
func (lt *LimitTracker) Increment(game domain.GameType) domain.Limit {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.rollLocked()

	l := lt.limits[game]
	l.Current++
	lt.limits[game] = l
	return l
}

// Replace swaps in the server's counters.
func (lt *LimitTracker) Replace(limits domain.Limits) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	next := domain.DefaultLimits()
	for g, l := range limits {
		next[g] = l
	}
	lt.limits = next
	lt.day = dayOf(lt.now())
}

// Snapshot returns a copy of the counters.
func (lt *LimitTracker) Snapshot() domain.Limits {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.rollLocked()

	out := make(domain.Limits, len(lt.limits))
	for g, l := range lt.limits {
		out[g] = l
	}
	return out
}

// Reset zeroes every counter.
func (lt *LimitTracker) Reset() {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.limits = domain.DefaultLimits()
	lt.day = dayOf(lt.now())
}

func (lt *LimitTracker) rollLocked() {
	today := dayOf(lt.now())
	if today == lt.day {
		return
	}
	for g, l := range lt.limits {
		l.Current = 0
		lt.limits[g] = l
	}
	lt.day = today
}

func dayOf(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
