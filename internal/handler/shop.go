package handler

import (
	"net/http"
	"strings"

	"github.com/flipcoin/miniapp/internal/domain"
	"github.com/flipcoin/miniapp/internal/service"
)

// ShopHandler handles reward and payment endpoints.
type ShopHandler struct {
	shop *service.ShopService
}

// NewShopHandler creates a new ShopHandler.
func NewShopHandler(shop *service.ShopService) *ShopHandler {
	return &ShopHandler{shop: shop}
}

// Rewards handles GET /rewards.
func (h *ShopHandler) Rewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.shop.Rewards(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, rewards)
}

// Redeem handles POST /rewards/{id}/redeem.
func (h *ShopHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	res, err := h.shop.Redeem(r.Context(), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, res)
}

// Redeemed handles GET /rewards/redeemed.
func (h *ShopHandler) Redeemed(w http.ResponseWriter, r *http.Request) {
	items, err := h.shop.Redeemed(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, items)
}

// Packages handles GET /payments/packages.
func (h *ShopHandler) Packages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.shop.Packages(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, pkgs)
}

type purchaseRequest struct {
	PackageID string `json:"package_id"`
}

// Purchase handles POST /payments.
func (h *ShopHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.PackageID) == "" {
		RespondError(w, domain.ErrValidation("package_id is required"))
		return
	}

	p, err := h.shop.Purchase(r.Context(), req.PackageID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, p)
}

// Payments handles GET /payments/history.
func (h *ShopHandler) Payments(w http.ResponseWriter, r *http.Request) {
	items, err := h.shop.Payments(r.Context(), queryLimit(r, 10))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, items)
}
