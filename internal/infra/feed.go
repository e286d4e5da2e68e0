package infra

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/flipcoin/miniapp/internal/profile"
)

// ChangeSource is the part of profile.Manager the feed listens to.
type ChangeSource interface {
	Subscribe(buffer int) *profile.Subscription
	Unsubscribe(sub *profile.Subscription)
}

// Publisher sends one keyed message to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// changeEvent is the message written for every profile change.
type changeEvent struct {
	EventID    uuid.UUID      `json:"event_id"`
	EventType  string         `json:"event_type"`
	ProfileID  int64          `json:"profile_id"`
	Payload    profile.Change `json:"payload"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// ChangeFeed forwards profile changes to a message topic, keyed by profile id.
type ChangeFeed struct {
	source ChangeSource
	pub    Publisher
	topic  string
	logger *slog.Logger
	done   chan struct{}
}

// NewChangeFeed creates a feed. Call Start to begin forwarding.
func NewChangeFeed(source ChangeSource, pub Publisher, topic string, logger *slog.Logger) *ChangeFeed {
	return &ChangeFeed{
		source: source,
		pub:    pub,
		topic:  topic,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start subscribes and forwards changes in a goroutine until ctx is
// cancelled or the source closes the subscription.
func (f *ChangeFeed) Start(ctx context.Context) {
	sub := f.source.Subscribe(32)
	f.logger.Info("change feed started", "topic", f.topic)

	go func() {
		defer close(f.done)
		defer f.source.Unsubscribe(sub)

		for {
			select {
			case <-ctx.Done():
				f.logger.Info("change feed stopped")
				return
			case c, ok := <-sub.C:
				if !ok {
					f.logger.Info("change feed source closed")
					return
				}
				f.publish(ctx, c)
			}
		}
	}()
}

// Done is closed once the forwarding goroutine has exited.
func (f *ChangeFeed) Done() <-chan struct{} { return f.done }

func (f *ChangeFeed) publish(ctx context.Context, c profile.Change) {
	msg, err := json.Marshal(changeEvent{
		EventID:    uuid.New(),
		EventType:  "profile." + c.Reason,
		ProfileID:  c.Profile.ID,
		Payload:    c,
		OccurredAt: c.At,
	})
	if err != nil {
		f.logger.Error("encode profile change", "error", err)
		return
	}

	key := []byte(strconv.FormatInt(c.Profile.ID, 10))
	if err := f.pub.Publish(ctx, f.topic, key, msg); err != nil {
		f.logger.Warn("profile change publish failed", "reason", c.Reason, "error", err)
	}
}
