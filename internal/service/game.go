package service

import (
	"context"
	"log/slog"

	"github.com/flipcoin/miniapp/internal/domain"
	"github.com/flipcoin/miniapp/internal/game"
	"github.com/flipcoin/miniapp/internal/guard"
	"github.com/flipcoin/miniapp/internal/profile"
)

// GameService runs a round of any game. Signed-in users play on the server,
// which owns the outcome and the reward; guests play locally.
type GameService struct {
	profile  *profile.Manager
	remote   GameAPI
	resolver *game.Resolver
	limits   *guard.LimitTracker
	inflight *guard.InFlight
	logger   *slog.Logger
}

// NewGameService creates a GameService.
func NewGameService(
	mgr *profile.Manager,
	remote GameAPI,
	resolver *game.Resolver,
	limits *guard.LimitTracker,
	logger *slog.Logger,
) *GameService {
	return &GameService{
		profile:  mgr,
		remote:   remote,
		resolver: resolver,
		limits:   limits,
		inflight: guard.NewInFlight(),
		logger:   logger,
	}
}

// Play plays one round of g. question is only used by the magic ball.
func (s *GameService) Play(ctx context.Context, g domain.GameType, question string) (domain.PlayResult, error) {
	if _, err := domain.ParseGameType(string(g)); err != nil {
		return domain.PlayResult{}, domain.ErrValidation(err.Error())
	}
	if res := s.inflight.Check(ctx, string(g)); !res.Allowed {
		return domain.PlayResult{}, domain.ErrValidation(res.Reason)
	}
	defer s.inflight.Release(string(g))

	// Signed-in plays are limited by the server, which answers 429.
	if s.profile.Authenticated() {
		return s.playRemote(ctx, g, question)
	}
	if res := s.limits.Check(ctx, g); !res.Allowed {
		return domain.PlayResult{}, domain.ErrDailyLimitReached(res.Reason)
	}
	return s.playLocal(ctx, g, question)
}

func (s *GameService) playRemote(ctx context.Context, g domain.GameType, question string) (domain.PlayResult, error) {
	res, err := s.remote.PlayGame(ctx, g, question)
	if err != nil {
		if domain.IsCode(err, domain.CodeDailyLimitReached) {
			l := s.limits.Snapshot()[g]
			s.limits.Record(g, l.Max, l.Max)
		}
		return domain.PlayResult{}, err
	}
	s.limits.Record(g, res.PlaysToday, res.MaxPlays)

	if res.Balance != nil {
		if _, err := s.profile.ApplyBalance(ctx, *res.Balance, res.Version); err != nil {
			s.logger.Warn("confirmed balance not applied", "game", g, "error", err)
		}
		return res, nil
	}

	// No balance in the response: fall back to crediting the reward locally.
	if _, err := s.profile.AddTokens(ctx, res.Outcome.TokensEarned); err != nil {
		s.logger.Warn("play reward not applied", "game", g, "error", err)
	}
	return res, nil
}

func (s *GameService) playLocal(ctx context.Context, g domain.GameType, question string) (domain.PlayResult, error) {
	outcome, err := s.resolver.Play(ctx, g, s.profile.Current().Language, question)
	if err != nil {
		return domain.PlayResult{}, err
	}
	if _, err := s.profile.AddTokens(ctx, outcome.TokensEarned); err != nil {
		return domain.PlayResult{}, err
	}
	l := s.limits.Increment(g)

	s.logger.Debug("local play", "game", g, "outcome", outcome.Label)
	return domain.PlayResult{
		Outcome:    outcome,
		PlaysToday: l.Current,
		MaxPlays:   l.Max,
	}, nil
}

// Limits returns today's counters: the server's when signed in, the local
// cache otherwise.
func (s *GameService) Limits(ctx context.Context) (domain.Limits, error) {
	if !s.profile.Authenticated() {
		return s.limits.Snapshot(), nil
	}
	limits, err := s.remote.FetchLimits(ctx)
	if err != nil {
		return nil, err
	}
	s.limits.Replace(limits)
	return s.limits.Snapshot(), nil
}

// History returns recent plays recorded by the server.
func (s *GameService) History(ctx context.Context, g domain.GameType, limit int) ([]domain.GameHistoryEntry, error) {
	return s.remote.FetchGameHistory(ctx, g, limit)
}
