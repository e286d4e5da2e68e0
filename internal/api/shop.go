package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/flipcoin/miniapp/internal/domain"
)

// FetchRewards returns the reward shop. Names arrive already localized to
// the user's language.
func (c *Client) FetchRewards(ctx context.Context) ([]domain.Reward, error) {
	var resp struct {
		Rewards []rewardDTO `json:"rewards"`
	}
	if err := c.do(ctx, call{op: opFetchRewards, method: http.MethodGet, path: "/rewards/"}, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Reward, 0, len(resp.Rewards))
	for _, r := range resp.Rewards {
		out = append(out, domain.Reward{
			ID:          r.ID,
			Name:        domain.Localized{EN: r.Name},
			Description: domain.Localized{EN: r.Description},
			Image:       r.Image,
			Cost:        r.Cost,
		})
	}
	return out, nil
}

// RedeemReward buys a reward; the server debits the balance.
func (c *Client) RedeemReward(ctx context.Context, rewardID int64) (domain.Redemption, error) {
	if rewardID <= 0 {
		return domain.Redemption{}, domain.ErrValidation("invalid reward id")
	}

	var resp struct {
		TokensSpent int64 `json:"tokens_spent"`
		balanceDTO
	}
	err := c.do(ctx, call{
		op:       opRedeemReward,
		method:   http.MethodPost,
		path:     fmt.Sprintf("/rewards/%d/redeem", rewardID),
		mutating: true,
	}, &resp)
	if err != nil {
		return domain.Redemption{}, err
	}
	balance, err := resp.balance(opRedeemReward)
	if err != nil {
		return domain.Redemption{}, err
	}
	return domain.Redemption{
		RewardID:    rewardID,
		TokensSpent: resp.TokensSpent,
		Balance:     balance,
		Version:     resp.Version,
	}, nil
}

// FetchRedeemedRewards returns the redemption history.
func (c *Client) FetchRedeemedRewards(ctx context.Context) ([]domain.RedeemedReward, error) {
	var resp struct {
		Redeemed []redeemedDTO `json:"redeemed_rewards"`
	}
	if err := c.do(ctx, call{op: opRedeemedRewards, method: http.MethodGet, path: "/rewards/history"}, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.RedeemedReward, 0, len(resp.Redeemed))
	for _, r := range resp.Redeemed {
		out = append(out, domain.RedeemedReward{
			ID:          r.ID,
			RewardID:    r.RewardID,
			Name:        domain.Localized{EN: r.NameEN, RU: r.NameRU},
			TokensSpent: r.TokensSpent,
			RedeemedAt:  r.RedeemedAt.Time,
		})
	}
	return out, nil
}

// FetchPackages returns the purchasable token packages.
func (c *Client) FetchPackages(ctx context.Context) ([]domain.TokenPackage, error) {
	var resp struct {
		Packages []domain.TokenPackage `json:"packages"`
	}
	if err := c.do(ctx, call{op: opFetchPackages, method: http.MethodGet, path: "/payments/packages"}, &resp); err != nil {
		return nil, err
	}
	if resp.Packages == nil {
		return []domain.TokenPackage{}, nil
	}
	return resp.Packages, nil
}

// CreatePayment starts a purchase. The balance is not touched: tokens are
// credited once the payment provider confirms, and show up on the next
// profile fetch.
func (c *Client) CreatePayment(ctx context.Context, packageID string) (domain.Payment, error) {
	packageID = strings.TrimSpace(packageID)
	if packageID == "" {
		return domain.Payment{}, domain.ErrValidation("package id is required")
	}

	var resp paymentDTO
	err := c.do(ctx, call{
		op:       opCreatePayment,
		method:   http.MethodPost,
		path:     "/payments/create",
		body:     map[string]string{"package_id": packageID},
		mutating: true,
	}, &resp)
	if err != nil {
		return domain.Payment{}, err
	}
	p := resp.toDomain()
	if p.ID == 0 {
		return domain.Payment{}, domain.ErrServer("payment response has no id", nil)
	}
	return p, nil
}

// FetchPaymentHistory returns recent payments, newest first.
func (c *Client) FetchPaymentHistory(ctx context.Context, limit int) ([]domain.Payment, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var resp struct {
		Payments []paymentDTO `json:"payments"`
	}
	if err := c.do(ctx, call{op: opPaymentHistory, method: http.MethodGet, path: "/payments/history", query: q}, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Payment, 0, len(resp.Payments))
	for _, p := range resp.Payments {
		out = append(out, p.toDomain())
	}
	return out, nil
}
