package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flipcoin/miniapp/internal/domain"
)

// Keys of the persisted layout. Absence of either is the guest state.
const (
	ProfileKey = "userProfile"
	TokenKey   = "token"
)

// ProfileStore persists the user profile and the session token.
// Only the profile manager writes through it.
type ProfileStore struct {
	kv     KV
	logger *slog.Logger
}

// NewProfileStore wraps a KV backend.
func NewProfileStore(kv KV, logger *slog.Logger) *ProfileStore {
	return &ProfileStore{kv: kv, logger: logger}
}

// Load returns the persisted profile, or nil when there is none.
// Corrupt or unreadable data is logged and reported as absent.
func (s *ProfileStore) Load(ctx context.Context) *domain.UserProfile {
	p, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("stored profile unusable, falling back to defaults",
			"error", err, "code", domain.CodeOf(err))
		return nil
	}
	return p
}

func (s *ProfileStore) load(ctx context.Context) (*domain.UserProfile, error) {
	data, err := s.kv.Get(ctx, ProfileKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var p domain.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, domain.ErrStorageCorrupt(ProfileKey, err)
	}
	normalized, ok := domain.Normalize(p)
	if !ok {
		return nil, domain.ErrStorageCorrupt(ProfileKey, fmt.Errorf("negative token balance %d", p.FlipTokens))
	}
	return &normalized, nil
}

// Save writes the profile.
func (s *ProfileStore) Save(ctx context.Context, p domain.UserProfile) error {
	if err := SetJSON(ctx, s.kv, ProfileKey, p, 0); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// LoadToken returns the session token, or "" when there is none.
func (s *ProfileStore) LoadToken(ctx context.Context) string {
	data, err := s.kv.Get(ctx, TokenKey)
	if errors.Is(err, ErrNotFound) {
		return ""
	}
	if err != nil {
		s.logger.Warn("stored token unreadable, starting unauthenticated", "error", err)
		return ""
	}
	return string(data)
}

// SaveToken writes the session token.
func (s *ProfileStore) SaveToken(ctx context.Context, token string) error {
	if err := s.kv.Set(ctx, TokenKey, []byte(token), 0); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Clear removes both the profile and the token. The token goes last so a
// failed clear never leaves a guest token with a signed-in profile.
func (s *ProfileStore) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, ProfileKey); err != nil {
		return fmt.Errorf("clear profile: %w", err)
	}
	if err := s.kv.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
