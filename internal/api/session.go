package api

import (
	"context"
	"net/http"

	"github.com/flipcoin/miniapp/internal/domain"
)

// Login exchanges Telegram credentials for a session token and the user's
// profile.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (string, domain.UserProfile, error) {
	if err := domain.ValidateCredentials(creds); err != nil {
		return "", domain.UserProfile{}, domain.ErrInvalidCredentials(err.Error())
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		userEnvelope
	}
	err := c.do(ctx, call{
		op:       opLogin,
		method:   http.MethodPost,
		path:     "/auth/login",
		body:     creds,
		public:   true,
		mutating: true,
	}, &resp)
	if err != nil {
		return "", domain.UserProfile{}, err
	}
	if resp.AccessToken == "" {
		return "", domain.UserProfile{}, domain.ErrServer("login response has no token", nil)
	}
	profile, err := resp.profile(opLogin)
	if err != nil {
		return "", domain.UserProfile{}, err
	}
	return resp.AccessToken, profile, nil
}

// FetchProfile returns the server's copy of the profile.
func (c *Client) FetchProfile(ctx context.Context) (domain.UserProfile, error) {
	var resp userEnvelope
	if err := c.do(ctx, call{op: opFetchProfile, method: http.MethodGet, path: "/auth/profile"}, &resp); err != nil {
		return domain.UserProfile{}, err
	}
	return resp.profile(opFetchProfile)
}

// PatchProfile sends the changed preferences and returns the merged profile
// echoed by the server. A patch touching only the balance is rejected:
// balances change only through server-side actions.
func (c *Client) PatchProfile(ctx context.Context, patch domain.ProfilePatch) (domain.UserProfile, error) {
	if err := patch.Validate(); err != nil {
		return domain.UserProfile{}, err
	}
	dto := newProfilePatchDTO(patch)
	if dto.Nickname == nil && dto.Language == nil && dto.SoundEnabled == nil {
		return domain.UserProfile{}, domain.ErrValidation("nothing to update")
	}

	var resp userEnvelope
	err := c.do(ctx, call{
		op:       opPatchProfile,
		method:   http.MethodPatch,
		path:     "/auth/profile",
		body:     dto,
		mutating: true,
	}, &resp)
	if err != nil {
		return domain.UserProfile{}, err
	}
	return resp.profile(opPatchProfile)
}

// ApplyReferral redeems a referral code and returns the new balance.
func (c *Client) ApplyReferral(ctx context.Context, code string) (domain.ReferralBonus, error) {
	if err := domain.ValidateReferralCode(code); err != nil {
		return domain.ReferralBonus{}, domain.ErrInvalidReferralCode(err.Error())
	}

	var resp struct {
		TokensEarned int64 `json:"tokens_earned"`
		balanceDTO
	}
	err := c.do(ctx, call{
		op:       opReferral,
		method:   http.MethodPost,
		path:     "/auth/referral",
		body:     map[string]string{"referral_code": code},
		mutating: true,
	}, &resp)
	if err != nil {
		return domain.ReferralBonus{}, err
	}
	balance, err := resp.balance(opReferral)
	if err != nil {
		return domain.ReferralBonus{}, err
	}
	return domain.ReferralBonus{TokensEarned: resp.TokensEarned, Balance: balance, Version: resp.Version}, nil
}
