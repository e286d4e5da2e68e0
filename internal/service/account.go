package service

import (
	"context"
	"log/slog"

	"github.com/flipcoin/miniapp/internal/domain"
	"github.com/flipcoin/miniapp/internal/guard"
	"github.com/flipcoin/miniapp/internal/profile"
)

// AccountService signs users in and out and keeps the profile in step with
// the server.
type AccountService struct {
	profile   *profile.Manager
	remote    AccountAPI
	limits    *guard.LimitTracker
	completed *guard.CompletedTasks
	logger    *slog.Logger
}

// NewAccountService creates an AccountService.
func NewAccountService(
	mgr *profile.Manager,
	remote AccountAPI,
	limits *guard.LimitTracker,
	completed *guard.CompletedTasks,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		profile:   mgr,
		remote:    remote,
		limits:    limits,
		completed: completed,
		logger:    logger,
	}
}

// Login signs in with Telegram credentials and adopts the server profile.
func (s *AccountService) Login(ctx context.Context, creds domain.Credentials) (domain.UserProfile, error) {
	token, p, err := s.remote.Login(ctx, creds)
	if err != nil {
		return domain.UserProfile{}, err
	}
	p, err = s.profile.Login(ctx, token, p)
	if err != nil {
		return domain.UserProfile{}, err
	}
	s.limits.Reset()
	s.completed.Reset()
	return p, nil
}

// Logout drops the session and all cached per-user state.
func (s *AccountService) Logout(ctx context.Context) error {
	if err := s.profile.Logout(ctx); err != nil {
		return err
	}
	s.limits.Reset()
	s.completed.Reset()
	return nil
}

// Refresh fetches the server profile and applies it.
func (s *AccountService) Refresh(ctx context.Context) (domain.UserProfile, error) {
	p, err := s.remote.FetchProfile(ctx)
	if err != nil {
		return s.profile.Current(), err
	}
	if _, err := s.profile.ApplyServer(ctx, p); err != nil {
		return s.profile.Current(), err
	}
	return s.profile.Current(), nil
}

// UpdatePreferences applies patch locally, then sends it to the server when
// signed in and adopts the echoed profile. A remote failure keeps the local
// change and is returned alongside the current profile.
func (s *AccountService) UpdatePreferences(ctx context.Context, patch domain.ProfilePatch) (domain.UserProfile, error) {
	p, err := s.profile.Update(ctx, patch)
	if err != nil {
		return p, err
	}
	remotePatch := domain.ProfilePatch{Nickname: patch.Nickname, Language: patch.Language, SoundEnabled: patch.SoundEnabled}
	if !s.profile.Authenticated() || remotePatch.Empty() {
		return p, nil
	}

	server, err := s.remote.PatchProfile(ctx, remotePatch)
	if err != nil {
		s.logger.Warn("profile patch not confirmed by server", "error", err)
		return s.profile.Current(), err
	}
	if _, err := s.profile.ApplyServer(ctx, server); err != nil {
		return s.profile.Current(), err
	}
	return s.profile.Current(), nil
}

// SetLanguage changes the language.
func (s *AccountService) SetLanguage(ctx context.Context, lang domain.Language) (domain.UserProfile, error) {
	return s.UpdatePreferences(ctx, domain.ProfilePatch{Language: &lang})
}

// SetSoundEnabled toggles sound.
func (s *AccountService) SetSoundEnabled(ctx context.Context, enabled bool) (domain.UserProfile, error) {
	return s.UpdatePreferences(ctx, domain.ProfilePatch{SoundEnabled: &enabled})
}

// SetNickname renames the user.
func (s *AccountService) SetNickname(ctx context.Context, nickname string) (domain.UserProfile, error) {
	return s.UpdatePreferences(ctx, domain.ProfilePatch{Nickname: &nickname})
}

// ApplyReferral redeems a referral code and applies the new balance.
func (s *AccountService) ApplyReferral(ctx context.Context, code string) (domain.ReferralBonus, error) {
	bonus, err := s.remote.ApplyReferral(ctx, code)
	if err != nil {
		return domain.ReferralBonus{}, err
	}
	if _, err := s.profile.ApplyBalance(ctx, bonus.Balance, bonus.Version); err != nil {
		s.logger.Warn("referral balance not applied", "error", err)
	}
	return bonus, nil
}
