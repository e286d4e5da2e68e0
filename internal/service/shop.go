package service

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/flipcoin/miniapp/internal/domain"
	"github.com/flipcoin/miniapp/internal/profile"
)

// ShopService covers the reward shop and token purchases.
type ShopService struct {
	profile *profile.Manager
	remote  ShopAPI
	logger  *slog.Logger
}

// NewShopService creates a ShopService.
func NewShopService(mgr *profile.Manager, remote ShopAPI, logger *slog.Logger) *ShopService {
	return &ShopService{profile: mgr, remote: remote, logger: logger}
}

// Rewards returns the server shop when signed in, the built-in catalog otherwise.
func (s *ShopService) Rewards(ctx context.Context) ([]domain.Reward, error) {
	if !s.profile.Authenticated() {
		return domain.RewardCatalog, nil
	}
	return s.remote.FetchRewards(ctx)
}

// Redeem buys a reward. Signed-in users are debited by the server; guests
// are debited locally and refused when the balance is too low.
func (s *ShopService) Redeem(ctx context.Context, rewardID int64) (domain.Redemption, error) {
	if s.profile.Authenticated() {
		r, err := s.remote.RedeemReward(ctx, rewardID)
		if err != nil {
			return domain.Redemption{}, err
		}
		if _, err := s.profile.ApplyBalance(ctx, r.Balance, r.Version); err != nil {
			s.logger.Warn("redemption balance not applied", "reward_id", rewardID, "error", err)
		}
		return r, nil
	}

	reward, ok := domain.FindReward(rewardID)
	if !ok {
		return domain.Redemption{}, domain.ErrNotFound("reward", strconv.FormatInt(rewardID, 10))
	}
	p, err := s.profile.AddTokens(ctx, -reward.Cost)
	if err != nil {
		return domain.Redemption{}, err
	}
	return domain.Redemption{RewardID: rewardID, TokensSpent: reward.Cost, Balance: p.FlipTokens}, nil
}

// Redeemed returns the redemption history.
func (s *ShopService) Redeemed(ctx context.Context) ([]domain.RedeemedReward, error) {
	return s.remote.FetchRedeemedRewards(ctx)
}

// Packages returns the purchasable token packages.
func (s *ShopService) Packages(ctx context.Context) ([]domain.TokenPackage, error) {
	if !s.profile.Authenticated() {
		return domain.TokenPackages, nil
	}
	return s.remote.FetchPackages(ctx)
}

// Purchase starts a payment. The balance is unchanged until the provider
// confirms and the profile is refreshed.
func (s *ShopService) Purchase(ctx context.Context, packageID string) (domain.Payment, error) {
	p, err := s.remote.CreatePayment(ctx, packageID)
	if err != nil {
		return domain.Payment{}, err
	}
	s.logger.Info("payment created", "payment_id", p.ID, "package", packageID)
	return p, nil
}

// Payments returns recent payments.
func (s *ShopService) Payments(ctx context.Context, limit int) ([]domain.Payment, error) {
	return s.remote.FetchPaymentHistory(ctx, limit)
}
