package profile

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/flipcoin/miniapp/internal/auth"
	"github.com/flipcoin/miniapp/internal/domain"
)

// Store is the durable medium the manager writes through to.
type Store interface {
	Load(ctx context.Context) *domain.UserProfile
	Save(ctx context.Context, p domain.UserProfile) error
	LoadToken(ctx context.Context) string
	SaveToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Manager is the single owner of the user profile and session. Every
// mutation runs under one lock, is persisted before it becomes visible, and
// is published to subscribers afterwards.
type Manager struct {
	mu      sync.Mutex
	store   Store
	hub     *Hub
	logger  *slog.Logger
	profile domain.UserProfile
	session domain.Session
	now     func() time.Time
}

// NewManager restores the persisted state. Missing or unusable data starts
// the default guest profile.
func NewManager(ctx context.Context, store Store, logger *slog.Logger) *Manager {
	m := &Manager{
		store:   store,
		hub:     NewHub(logger),
		logger:  logger,
		profile: domain.DefaultProfile(),
		now:     time.Now,
	}

	token := store.LoadToken(ctx)
	m.session = auth.SessionFromToken(token)
	if p := store.Load(ctx); p != nil {
		m.profile = *p
	}

	logger.Info("profile restored",
		"authenticated", m.session.Authenticated,
		"profile_id", m.profile.ID,
		"version", m.profile.Version,
	)
	if m.session.Expired(m.now()) {
		logger.Warn("stored session token has expired", "expired_at", m.session.ExpiresAt)
	}
	return m
}

// Current returns the live snapshot.
func (m *Manager) Current() domain.UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile
}

// Session returns the current session.
func (m *Manager) Session() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Token returns the bearer token, or "" for guests. It satisfies the remote
// client's token source.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Token
}

// Authenticated reports whether a session token is held.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Authenticated
}

// Update merges patch into the profile. Either every field lands or none does.
func (m *Manager) Update(ctx context.Context, patch domain.ProfilePatch) (domain.UserProfile, error) {
	if err := patch.Validate(); err != nil {
		return m.Current(), err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if patch.Empty() {
		return m.profile, nil
	}
	next := domain.Merge(m.profile, patch)
	if err := m.commitLocked(ctx, next, ReasonUpdate); err != nil {
		return m.profile, err
	}
	return next, nil
}

// SetLanguage changes the UI language.
func (m *Manager) SetLanguage(ctx context.Context, lang domain.Language) (domain.UserProfile, error) {
	return m.Update(ctx, domain.ProfilePatch{Language: &lang})
}

// SetSoundEnabled toggles sound effects.
func (m *Manager) SetSoundEnabled(ctx context.Context, enabled bool) (domain.UserProfile, error) {
	return m.Update(ctx, domain.ProfilePatch{SoundEnabled: &enabled})
}

// SetNickname changes the display nickname.
func (m *Manager) SetNickname(ctx context.Context, nickname string) (domain.UserProfile, error) {
	return m.Update(ctx, domain.ProfilePatch{Nickname: &nickname})
}

// AddTokens applies a balance delta. A debit that would go below zero fails
// with INSUFFICIENT_BALANCE and a credit past MaxInt64 fails with
// VALIDATION_ERROR. Either way the profile is unchanged.
func (m *Manager) AddTokens(ctx context.Context, delta int64) (domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if delta == 0 {
		return m.profile, nil
	}
	current := m.profile.FlipTokens
	if delta > 0 && current > math.MaxInt64-delta {
		return m.profile, domain.ErrValidation("token balance would overflow")
	}
	if delta < 0 && delta < -current {
		requested := int64(math.MaxInt64)
		if delta != math.MinInt64 {
			requested = -delta
		}
		return m.profile, domain.ErrInsufficientBalance(current, requested)
	}
	balance := current + delta

	next := m.profile
	next.FlipTokens = balance
	if err := m.commitLocked(ctx, next, ReasonTokens); err != nil {
		return m.profile, err
	}
	return next, nil
}

// Login stores the token and replaces the profile with the server's copy.
func (m *Manager) Login(ctx context.Context, token string, p domain.UserProfile) (domain.UserProfile, error) {
	if token == "" {
		return m.Current(), domain.ErrValidation("session token is required")
	}
	next, ok := domain.Normalize(p)
	if !ok {
		return m.Current(), domain.ErrServer("login returned an invalid profile", nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(ctx, next); err != nil {
		return m.profile, domain.ErrStorage("persist profile", err)
	}
	if err := m.store.SaveToken(ctx, token); err != nil {
		if rbErr := m.store.Save(ctx, m.profile); rbErr != nil {
			m.logger.Error("failed to restore profile after token write failure", "error", rbErr)
		}
		return m.profile, domain.ErrStorage("persist token", err)
	}

	m.profile = next
	m.session = auth.SessionFromToken(token)
	m.logger.Info("logged in", "profile_id", next.ID, "subject", m.session.Subject)
	m.publishLocked(ReasonLogin)
	return next, nil
}

// Logout clears the store and resets to the guest profile.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		return domain.ErrStorage("clear profile", err)
	}
	m.profile = domain.DefaultProfile()
	m.session = domain.NewSession("")
	m.logger.Info("logged out")
	m.publishLocked(ReasonLogout)
	return nil
}

// ApplyServer replaces the profile with an authoritative server snapshot.
// It reports false when the snapshot was discarded: the session ended while
// the request was in flight, or the snapshot carries a version not newer
// than the one already applied. Unversioned snapshots always apply.
func (m *Manager) ApplyServer(ctx context.Context, p domain.UserProfile) (bool, error) {
	next, ok := domain.Normalize(p)
	if !ok {
		return false, domain.ErrServer("server returned a negative balance", nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.acceptLocked(next.Version, "profile") {
		return false, nil
	}
	if next.Version == 0 {
		next.Version = m.profile.Version
	}
	if err := m.commitLocked(ctx, next, ReasonServer); err != nil {
		return false, err
	}
	return true, nil
}

// ApplyBalance replaces the balance with a server-confirmed value under the
// same version rule as ApplyServer.
func (m *Manager) ApplyBalance(ctx context.Context, balance, version int64) (bool, error) {
	if balance < 0 {
		return false, domain.ErrServer("server returned a negative balance", nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.acceptLocked(version, "balance") {
		return false, nil
	}
	next := m.profile
	next.FlipTokens = balance
	if version > 0 {
		next.Version = version
	}
	if next == m.profile {
		return true, nil
	}
	if err := m.commitLocked(ctx, next, ReasonBalance); err != nil {
		return false, err
	}
	return true, nil
}

// Subscribe registers a change observer.
func (m *Manager) Subscribe(buffer int) *Subscription {
	return m.hub.Subscribe(buffer)
}

// Unsubscribe removes a change observer.
func (m *Manager) Unsubscribe(sub *Subscription) {
	m.hub.Unsubscribe(sub.ID)
}

// Close ends every subscription.
func (m *Manager) Close(ctx context.Context) {
	m.hub.Shutdown(ctx)
}

func (m *Manager) acceptLocked(version int64, what string) bool {
	if !m.session.Authenticated {
		m.logger.Debug("discarding server "+what+" received without a session", "version", version)
		return false
	}
	if version > 0 && version <= m.profile.Version {
		m.logger.Debug("discarding stale server "+what,
			"version", version,
			"current_version", m.profile.Version,
		)
		return false
	}
	return true
}

// commitLocked persists next and only then makes it visible.
func (m *Manager) commitLocked(ctx context.Context, next domain.UserProfile, reason string) error {
	if err := m.store.Save(ctx, next); err != nil {
		m.logger.Error("profile write failed, change discarded", "error", err, "reason", reason)
		return domain.ErrStorage("persist profile", err)
	}
	m.profile = next
	m.publishLocked(reason)
	return nil
}

func (m *Manager) publishLocked(reason string) {
	m.hub.Publish(Change{
		Profile:       m.profile,
		Authenticated: m.session.Authenticated,
		Reason:        reason,
		At:            m.now(),
	})
}
