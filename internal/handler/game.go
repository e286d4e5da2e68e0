package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/flipcoin/miniapp/internal/domain"
	"github.com/flipcoin/miniapp/internal/service"
)

// GameHandler handles play and limit endpoints.
type GameHandler struct {
	games *service.GameService
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(games *service.GameService) *GameHandler {
	return &GameHandler{games: games}
}

type playRequest struct {
	Question string `json:"question"`
}

// Play handles POST /games/{game}/play.
func (h *GameHandler) Play(w http.ResponseWriter, r *http.Request) {
	game, err := domain.ParseGameType(chi.URLParam(r, "game"))
	if err != nil {
		RespondError(w, domain.ErrValidation(err.Error()))
		return
	}

	var req playRequest
	if err := DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	res, err := h.games.Play(r.Context(), game, req.Question)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, res)
}

// Limits handles GET /games/limits.
func (h *GameHandler) Limits(w http.ResponseWriter, r *http.Request) {
	limits, err := h.games.Limits(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, limits)
}

// History handles GET /games/history?game=&limit=.
func (h *GameHandler) History(w http.ResponseWriter, r *http.Request) {
	var game domain.GameType
	if g := r.URL.Query().Get("game"); g != "" {
		parsed, err := domain.ParseGameType(g)
		if err != nil {
			RespondError(w, domain.ErrValidation(err.Error()))
			return
		}
		game = parsed
	}

	entries, err := h.games.History(r.Context(), game, queryLimit(r, 20))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, entries)
}

// queryLimit parses ?limit=, clamped to 1..100.
func queryLimit(r *http.Request, def int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 100 {
		return n
	}
	return def
}
