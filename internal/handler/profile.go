package handler

import (
	"net/http"

	"github.com/flipcoin/miniapp/internal/domain"
	"github.com/flipcoin/miniapp/internal/profile"
	"github.com/flipcoin/miniapp/internal/service"
)

// ProfileHandler exposes the profile state and the account flows.
type ProfileHandler struct {
	profile *profile.Manager
	account *service.AccountService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(mgr *profile.Manager, account *service.AccountService) *ProfileHandler {
	return &ProfileHandler{profile: mgr, account: account}
}

// profileResponse is the shape of every profile read.
type profileResponse struct {
	Profile domain.UserProfile `json:"profile"`
	Session domain.Session     `json:"session"`
}

func (h *ProfileHandler) snapshot(p domain.UserProfile) profileResponse {
	return profileResponse{Profile: p, Session: h.profile.Session()}
}

// GetProfile handles GET /profile.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.snapshot(h.profile.Current()))
}

// UpdateProfile handles PATCH /profile.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProfilePatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if patch.Empty() {
		RespondError(w, domain.ErrValidation("no field to update"))
		return
	}

	p, err := h.account.UpdatePreferences(r.Context(), patch)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, h.snapshot(p))
}

type addTokensRequest struct {
	Delta int64 `json:"delta"`
}

// AddTokens handles POST /profile/tokens.
func (h *ProfileHandler) AddTokens(w http.ResponseWriter, r *http.Request) {
	var req addTokensRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.profile.AddTokens(r.Context(), req.Delta)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, h.snapshot(p))
}

// Refresh handles POST /profile/refresh.
func (h *ProfileHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	p, err := h.account.Refresh(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, h.snapshot(p))
}

// Login handles POST /auth/login.
func (h *ProfileHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if !decodeBody(w, r, &creds) {
		return
	}

	p, err := h.account.Login(r.Context(), creds)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, h.snapshot(p))
}

// Logout handles POST /auth/logout.
func (h *ProfileHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.account.Logout(r.Context()); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, h.snapshot(h.profile.Current()))
}

type referralRequest struct {
	Code string `json:"code"`
}

// ApplyReferral handles POST /referral.
func (h *ProfileHandler) ApplyReferral(w http.ResponseWriter, r *http.Request) {
	var req referralRequest
	if !decodeBody(w, r, &req) {
		return
	}

	bonus, err := h.account.ApplyReferral(r.Context(), req.Code)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, bonus)
}
