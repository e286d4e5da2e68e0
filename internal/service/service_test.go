package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipcoin/miniapp/internal/domain"
	"github.com/flipcoin/miniapp/internal/game"
	"github.com/flipcoin/miniapp/internal/guard"
	"github.com/flipcoin/miniapp/internal/profile"
	"github.com/flipcoin/miniapp/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newManager(t *testing.T) *profile.Manager {
	t.Helper()
	ps := store.NewProfileStore(store.NewMemoryKV(), testLogger())
	m := profile.NewManager(context.Background(), ps, testLogger())
	t.Cleanup(func() { m.Close(context.Background()) })
	return m
}

func signIn(t *testing.T, m *profile.Manager, balance, version int64) {
	t.Helper()
	_, err := m.Login(context.Background(), "tok", domain.UserProfile{ID: 1, Nickname: "alice", FlipTokens: balance, Version: version})
	require.NoError(t, err)
}

func int64Ptr(v int64) *int64 { return &v }

// fakeRemote implements every remote interface with canned answers.
type fakeRemote struct {
	play        domain.PlayResult
	playErr     error
	playCalls   int
	limits      domain.Limits
	tasks       []domain.Task
	completion  domain.TaskCompletion
	completeErr error
	loginToken  string
	loginUser   domain.UserProfile
	profile     domain.UserProfile
	patched     *domain.ProfilePatch
	patchErr    error
	referral    domain.ReferralBonus
	redemption  domain.Redemption
	payment     domain.Payment
}

func (f *fakeRemote) PlayGame(_ context.Context, g domain.GameType, _ string) (domain.PlayResult, error) {
	f.playCalls++
	if f.playErr != nil {
		return domain.PlayResult{}, f.playErr
	}
	res := f.play
	res.Outcome.Game = g
	return res, nil
}

func (f *fakeRemote) FetchLimits(context.Context) (domain.Limits, error) { return f.limits, nil }

func (f *fakeRemote) FetchGameHistory(context.Context, domain.GameType, int) ([]domain.GameHistoryEntry, error) {
	return nil, nil
}

func (f *fakeRemote) FetchTasks(context.Context) ([]domain.Task, error) { return f.tasks, nil }

func (f *fakeRemote) CompleteTask(_ context.Context, id int64) (domain.TaskCompletion, error) {
	if f.completeErr != nil {
		return domain.TaskCompletion{}, f.completeErr
	}
	c := f.completion
	c.TaskID = id
	return c, nil
}

func (f *fakeRemote) FetchCompletedTasks(context.Context) ([]domain.CompletedTask, error) {
	return nil, nil
}

func (f *fakeRemote) Login(context.Context, domain.Credentials) (string, domain.UserProfile, error) {
	return f.loginToken, f.loginUser, nil
}

func (f *fakeRemote) FetchProfile(context.Context) (domain.UserProfile, error) { return f.profile, nil }

func (f *fakeRemote) PatchProfile(_ context.Context, p domain.ProfilePatch) (domain.UserProfile, error) {
	f.patched = &p
	if f.patchErr != nil {
		return domain.UserProfile{}, f.patchErr
	}
	return domain.Merge(f.profile, p), nil
}

func (f *fakeRemote) ApplyReferral(context.Context, string) (domain.ReferralBonus, error) {
	return f.referral, nil
}

func (f *fakeRemote) FetchRewards(context.Context) ([]domain.Reward, error) { return nil, nil }

func (f *fakeRemote) RedeemReward(_ context.Context, id int64) (domain.Redemption, error) {
	r := f.redemption
	r.RewardID = id
	return r, nil
}

func (f *fakeRemote) FetchRedeemedRewards(context.Context) ([]domain.RedeemedReward, error) {
	return nil, nil
}

func (f *fakeRemote) FetchPackages(context.Context) ([]domain.TokenPackage, error) { return nil, nil }

func (f *fakeRemote) CreatePayment(_ context.Context, id string) (domain.Payment, error) {
	if id == "" {
		return domain.Payment{}, domain.ErrValidation("package id is required")
	}
	return f.payment, nil
}

func (f *fakeRemote) FetchPaymentHistory(context.Context, int) ([]domain.Payment, error) {
	return nil, nil
}

func newGameService(t *testing.T, remote *fakeRemote) (*GameService, *profile.Manager, *guard.LimitTracker) {
	t.Helper()
	m := newManager(t)
	limits := guard.NewLimitTracker()
	resolver := game.NewResolver(game.NewSeededSource(1, 2))
	return NewGameService(m, remote, resolver, limits, testLogger()), m, limits
}

// --- GameService ---

func TestGameService_GuestPlaysLocally(t *testing.T) {
	remote := &fakeRemote{}
	svc, m, _ := newGameService(t, remote)
	ctx := context.Background()

	res, err := svc.Play(ctx, domain.GameTarotCard, "")
	require.NoError(t, err)
	assert.Equal(t, domain.GameTarotCard, res.Outcome.Game)
	assert.Equal(t, int64(1), res.Outcome.TokensEarned)
	assert.Equal(t, 1, res.PlaysToday)
	assert.Equal(t, 20, res.MaxPlays)
	assert.Nil(t, res.Balance)
	assert.Equal(t, int64(1), m.Current().FlipTokens)
	assert.Zero(t, remote.playCalls)
}

func TestGameService_GuestDailyLimit(t *testing.T) {
	svc, m, limits := newGameService(t, &fakeRemote{})
	limits.Record(domain.GameFlipCoin, 50, 50)

	_, err := svc.Play(context.Background(), domain.GameFlipCoin, "")
	assert.True(t, domain.IsCode(err, domain.CodeDailyLimitReached))
	assert.Equal(t, int64(0), m.Current().FlipTokens)
}

func TestGameService_GuestMagicBallNeedsQuestion(t *testing.T) {
	svc, m, limits := newGameService(t, &fakeRemote{})

	_, err := svc.Play(context.Background(), domain.GameMagicBall, "")
	assert.True(t, domain.IsCode(err, domain.CodeValidation))
	assert.Equal(t, int64(0), m.Current().FlipTokens)
	assert.Equal(t, 0, limits.Snapshot()[domain.GameMagicBall].Current)
}

func TestGameService_RemotePlayAppliesConfirmedBalance(t *testing.T) {
	remote := &fakeRemote{play: domain.PlayResult{
		Outcome:    domain.GameOutcome{Label: "heads", TokensEarned: 1},
		PlaysToday: 7, MaxPlays: 50, Balance: int64Ptr(121), Version: 3,
	}}
	svc, m, limits := newGameService(t, remote)
	signIn(t, m, 120, 2)

	res, err := svc.Play(context.Background(), domain.GameFlipCoin, "")
	require.NoError(t, err)
	assert.Equal(t, "heads", res.Outcome.Label)
	assert.Equal(t, int64(121), m.Current().FlipTokens)
	assert.Equal(t, int64(3), m.Current().Version)
	assert.Equal(t, domain.Limit{Current: 7, Max: 50}, limits.Snapshot()[domain.GameFlipCoin])
}

func TestGameService_RemotePlayWithoutBalanceCreditsLocally(t *testing.T) {
	remote := &fakeRemote{play: domain.PlayResult{Outcome: domain.GameOutcome{TokensEarned: 2}, PlaysToday: 1, MaxPlays: 30}}
	svc, m, _ := newGameService(t, remote)
	signIn(t, m, 10, 0)

	_, err := svc.Play(context.Background(), domain.GameMagicBall, "Really?")
	require.NoError(t, err)
	assert.Equal(t, int64(12), m.Current().FlipTokens)
}

func TestGameService_RemoteDailyLimitDecidedByServer(t *testing.T) {
	ctx := context.Background()

	t.Run("429 is recorded in the cache", func(t *testing.T) {
		remote := &fakeRemote{playErr: domain.ErrDailyLimitReached("Daily limit reached")}
		svc, m, limits := newGameService(t, remote)
		signIn(t, m, 10, 0)

		_, err := svc.Play(ctx, domain.GameTarotCard, "")
		assert.True(t, domain.IsCode(err, domain.CodeDailyLimitReached))
		assert.Equal(t, domain.Limit{Current: 20, Max: 20}, limits.Snapshot()[domain.GameTarotCard])
		assert.Equal(t, int64(10), m.Current().FlipTokens)
	})

	t.Run("stale local counter does not block the server", func(t *testing.T) {
		remote := &fakeRemote{play: domain.PlayResult{
			Outcome:    domain.GameOutcome{Label: "heads", TokensEarned: 1},
			PlaysToday: 1, MaxPlays: 50, Balance: int64Ptr(11), Version: 1,
		}}
		svc, m, limits := newGameService(t, remote)
		signIn(t, m, 10, 0)
		limits.Record(domain.GameFlipCoin, 50, 50)

		res, err := svc.Play(ctx, domain.GameFlipCoin, "")
		require.NoError(t, err)
		assert.Equal(t, 1, remote.playCalls)
		assert.Equal(t, 1, res.PlaysToday)
		assert.Equal(t, 1, limits.Snapshot()[domain.GameFlipCoin].Current)
		assert.Equal(t, int64(11), m.Current().FlipTokens)
	})
}

func TestGameService_UnknownGame(t *testing.T) {
	svc, _, _ := newGameService(t, &fakeRemote{})
	_, err := svc.Play(context.Background(), domain.GameType("dice"), "")
	assert.True(t, domain.IsCode(err, domain.CodeValidation))
}

func TestGameService_Limits(t *testing.T) {
	remote := &fakeRemote{limits: domain.Limits{domain.GameFlipCoin: {Current: 5, Max: 50}}}
	svc, m, _ := newGameService(t, remote)
	ctx := context.Background()

	limits, err := svc.Limits(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultLimits(), limits)

	signIn(t, m, 0, 0)
	limits, err = svc.Limits(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, limits[domain.GameFlipCoin].Current)
	assert.Equal(t, 30, limits[domain.GameMagicBall].Max)
}

// --- TaskService ---

func TestTaskService_CompleteAppliesBalance(t *testing.T) {
	remote := &fakeRemote{
		tasks:      []domain.Task{{ID: 1}, {ID: 2}},
		completion: domain.TaskCompletion{TokensAwarded: 5, Balance: 25, Version: 4},
	}
	m := newManager(t)
	signIn(t, m, 20, 3)
	svc := NewTaskService(m, remote, guard.NewCompletedTasks(), testLogger())
	ctx := context.Background()

	tasks, err := svc.List(ctx)
	require.NoError(t, err)

	done, err := svc.Complete(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), done.TokensAwarded)
	assert.Equal(t, int64(25), m.Current().FlipTokens)
	assert.Equal(t, []domain.Task{{ID: 1}}, svc.Visible(tasks))

	_, err = svc.Complete(ctx, 2)
	assert.True(t, domain.IsCode(err, domain.CodeTaskAlreadyCompleted))

	_, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, svc.Visible(tasks), 2)
}

func TestTaskService_ServerSaysAlreadyCompleted(t *testing.T) {
	remote := &fakeRemote{completeErr: domain.ErrTaskAlreadyCompleted("Task already completed")}
	m := newManager(t)
	signIn(t, m, 20, 0)
	completed := guard.NewCompletedTasks()
	svc := NewTaskService(m, remote, completed, testLogger())

	_, err := svc.Complete(context.Background(), 9)
	assert.True(t, domain.IsCode(err, domain.CodeTaskAlreadyCompleted))
	assert.True(t, completed.Has(9))
	assert.Equal(t, int64(20), m.Current().FlipTokens)
}

// --- AccountService ---

func newAccountService(t *testing.T, remote *fakeRemote) (*AccountService, *profile.Manager, *guard.LimitTracker) {
	t.Helper()
	m := newManager(t)
	limits := guard.NewLimitTracker()
	return NewAccountService(m, remote, limits, guard.NewCompletedTasks(), testLogger()), m, limits
}

func TestAccountService_LoginLogout(t *testing.T) {
	remote := &fakeRemote{
		loginToken: "jwt",
		loginUser:  domain.UserProfile{ID: 4, Nickname: "bob", FlipTokens: 80, Language: domain.LanguageRU, Role: domain.RoleUser},
	}
	svc, m, limits := newAccountService(t, remote)
	ctx := context.Background()
	limits.Increment(domain.GameFlipCoin)

	p, err := svc.Login(ctx, domain.Credentials{ID: "4"})
	require.NoError(t, err)
	assert.Equal(t, "bob", p.Nickname)
	assert.True(t, m.Authenticated())
	assert.Equal(t, domain.DefaultLimits(), limits.Snapshot())

	require.NoError(t, svc.Logout(ctx))
	assert.False(t, m.Authenticated())
	assert.Equal(t, domain.DefaultProfile(), m.Current())
}

func TestAccountService_RefreshReconcilesOptimisticBalance(t *testing.T) {
	remote := &fakeRemote{profile: domain.UserProfile{ID: 1, Nickname: "alice", FlipTokens: 120, Version: 2}}
	svc, m, _ := newAccountService(t, remote)
	signIn(t, m, 120, 1)
	ctx := context.Background()

	_, err := m.AddTokens(ctx, 5)
	require.NoError(t, err)

	p, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(120), p.FlipTokens)
}

func TestAccountService_UpdatePreferences(t *testing.T) {
	t.Run("guest stays local", func(t *testing.T) {
		remote := &fakeRemote{}
		svc, m, _ := newAccountService(t, remote)

		p, err := svc.SetLanguage(context.Background(), domain.LanguageRU)
		require.NoError(t, err)
		assert.Equal(t, domain.LanguageRU, p.Language)
		assert.Equal(t, domain.LanguageRU, m.Current().Language)
		assert.Nil(t, remote.patched)
	})

	t.Run("signed in adopts server echo", func(t *testing.T) {
		remote := &fakeRemote{profile: domain.UserProfile{ID: 1, Nickname: "alice", FlipTokens: 120, Language: domain.LanguageEN}}
		svc, m, _ := newAccountService(t, remote)
		signIn(t, m, 125, 0)

		p, err := svc.SetSoundEnabled(context.Background(), false)
		require.NoError(t, err)
		require.NotNil(t, remote.patched)
		assert.False(t, p.SoundEnabled)
		assert.Equal(t, int64(120), p.FlipTokens)
	})

	t.Run("remote failure keeps local change", func(t *testing.T) {
		remote := &fakeRemote{patchErr: domain.ErrServer("request timed out", nil)}
		svc, m, _ := newAccountService(t, remote)
		signIn(t, m, 5, 0)

		p, err := svc.SetNickname(context.Background(), "renamed")
		assert.True(t, domain.IsCode(err, domain.CodeServerError))
		assert.Equal(t, "renamed", p.Nickname)
		assert.Equal(t, "renamed", m.Current().Nickname)
	})

	t.Run("invalid patch touches nothing", func(t *testing.T) {
		remote := &fakeRemote{}
		svc, m, _ := newAccountService(t, remote)
		signIn(t, m, 5, 0)

		_, err := svc.SetLanguage(context.Background(), domain.Language("xx"))
		assert.True(t, domain.IsCode(err, domain.CodeValidation))
		assert.Nil(t, remote.patched)
		assert.Equal(t, domain.LanguageEN, m.Current().Language)
	})
}

func TestAccountService_ApplyReferral(t *testing.T) {
	remote := &fakeRemote{referral: domain.ReferralBonus{TokensEarned: 20, Balance: 40}}
	svc, m, _ := newAccountService(t, remote)
	signIn(t, m, 20, 0)

	bonus, err := svc.ApplyReferral(context.Background(), "carol")
	require.NoError(t, err)
	assert.Equal(t, int64(20), bonus.TokensEarned)
	assert.Equal(t, int64(40), m.Current().FlipTokens)
}

// --- ShopService ---

func TestShopService_GuestRedeem(t *testing.T) {
	m := newManager(t)
	svc := NewShopService(m, &fakeRemote{}, testLogger())
	ctx := context.Background()

	_, err := svc.Redeem(ctx, 1)
	assert.True(t, domain.IsCode(err, domain.CodeInsufficientBalance))

	_, err = m.AddTokens(ctx, 70)
	require.NoError(t, err)
	r, err := svc.Redeem(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.Redemption{RewardID: 1, TokensSpent: 50, Balance: 20}, r)
	assert.Equal(t, int64(20), m.Current().FlipTokens)

	_, err = svc.Redeem(ctx, 99)
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
}

func TestShopService_SignedInRedeem(t *testing.T) {
	m := newManager(t)
	signIn(t, m, 150, 1)
	svc := NewShopService(m, &fakeRemote{redemption: domain.Redemption{TokensSpent: 100, Balance: 50, Version: 2}}, testLogger())

	r, err := svc.Redeem(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), r.RewardID)
	assert.Equal(t, int64(50), m.Current().FlipTokens)
}

func TestShopService_CatalogsAndPurchase(t *testing.T) {
	m := newManager(t)
	remote := &fakeRemote{payment: domain.Payment{ID: 31, Tokens: 300, Status: domain.PaymentStatusPending}}
	svc := NewShopService(m, remote, testLogger())
	ctx := context.Background()

	rewards, err := svc.Rewards(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.RewardCatalog, rewards)

	pkgs, err := svc.Packages(ctx)
	require.NoError(t, err)
	assert.Len(t, pkgs, 4)

	signIn(t, m, 10, 0)
	p, err := svc.Purchase(ctx, "medium")
	require.NoError(t, err)
	assert.Equal(t, int64(31), p.ID)
	assert.Equal(t, int64(10), m.Current().FlipTokens)
}
