package profile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flipcoin/miniapp/internal/domain"
)

// Change reasons carried on every notification.
const (
	ReasonUpdate  = "update"
	ReasonTokens  = "tokens"
	ReasonLogin   = "login"
	ReasonLogout  = "logout"
	ReasonServer  = "server_sync"
	ReasonBalance = "balance_sync"
)

// Change is a profile-change notification. It carries the full snapshot so
// subscribers never read back into the manager.
type Change struct {
	Profile       domain.UserProfile `json:"profile"`
	Authenticated bool               `json:"authenticated"`
	Reason        string             `json:"reason"`
	At            time.Time          `json:"at"`
}

// Subscription is one observer of profile changes. C is closed on
// Unsubscribe or hub shutdown.
type Subscription struct {
	ID string
	C  <-chan Change
	ch chan Change
}

// Hub fans changes out to subscribers. Sends never block the publisher: a
// subscriber whose buffer is full loses its oldest pending change, so a slow
// reader always ends up seeing the latest snapshot.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	closed bool
	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]*Subscription),
		logger: logger,
	}
}

// Subscribe registers an observer with the given buffer size (minimum 1).
func (h *Hub) Subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Change, buffer)
	sub := &Subscription{ID: uuid.New().String(), C: ch, ch: ch}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return sub
	}
	h.subs[sub.ID] = sub
	return sub
}

// Unsubscribe removes an observer and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.ch)
	}
}

// Publish delivers a change to every subscriber.
func (h *Hub) Publish(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		select {
		case sub.ch <- c:
			continue
		default:
		}
		select {
		case <-sub.ch:
			h.logger.Debug("subscriber lagging, dropped stale change", "subscription", sub.ID)
		default:
		}
		select {
		case sub.ch <- c:
		default:
			h.logger.Warn("change dropped", "subscription", sub.ID, "reason", c.Reason)
		}
	}
}

// Count returns the number of active subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Shutdown closes every subscription. Later publishes are dropped.
func (h *Hub) Shutdown(_ context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs {
		close(sub.ch)
		delete(h.subs, id)
	}
	h.closed = true
}
