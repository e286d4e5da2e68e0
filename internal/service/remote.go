package service

import (
	"context"

	"github.com/flipcoin/miniapp/internal/domain"
)

// The remote interfaces below are the slices of api.Client each service uses.

// GameAPI plays rounds and reads play counters on the server.
type GameAPI interface {
	PlayGame(ctx context.Context, game domain.GameType, question string) (domain.PlayResult, error)
	FetchLimits(ctx context.Context) (domain.Limits, error)
	FetchGameHistory(ctx context.Context, game domain.GameType, limit int) ([]domain.GameHistoryEntry, error)
}

// TaskAPI lists and completes tasks.
type TaskAPI interface {
	FetchTasks(ctx context.Context) ([]domain.Task, error)
	CompleteTask(ctx context.Context, taskID int64) (domain.TaskCompletion, error)
	FetchCompletedTasks(ctx context.Context) ([]domain.CompletedTask, error)
}

// AccountAPI covers sign-in and the server copy of the profile.
type AccountAPI interface {
	Login(ctx context.Context, creds domain.Credentials) (string, domain.UserProfile, error)
	FetchProfile(ctx context.Context) (domain.UserProfile, error)
	PatchProfile(ctx context.Context, patch domain.ProfilePatch) (domain.UserProfile, error)
	ApplyReferral(ctx context.Context, code string) (domain.ReferralBonus, error)
}

// ShopAPI covers the reward shop and token purchases.
type ShopAPI interface {
	FetchRewards(ctx context.Context) ([]domain.Reward, error)
	RedeemReward(ctx context.Context, rewardID int64) (domain.Redemption, error)
	FetchRedeemedRewards(ctx context.Context) ([]domain.RedeemedReward, error)
	FetchPackages(ctx context.Context) ([]domain.TokenPackage, error)
	CreatePayment(ctx context.Context, packageID string) (domain.Payment, error)
	FetchPaymentHistory(ctx context.Context, limit int) ([]domain.Payment, error)
}
