package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/flipcoin/miniapp/internal/domain"
)

var playPaths = map[domain.GameType]string{
	domain.GameFlipCoin:  "/games/flip-coin",
	domain.GameMagicBall: "/games/magic-ball",
	domain.GameTarotCard: "/games/tarot-card",
}

// PlayGame plays one server-authoritative round. question is required for
// the magic ball and ignored otherwise.
func (c *Client) PlayGame(ctx context.Context, game domain.GameType, question string) (domain.PlayResult, error) {
	path, ok := playPaths[game]
	if !ok {
		return domain.PlayResult{}, domain.ErrValidation("unknown game type: " + string(game))
	}

	var body interface{}
	if game == domain.GameMagicBall {
		question = strings.TrimSpace(question)
		if question == "" {
			return domain.PlayResult{}, domain.ErrValidation("question is required")
		}
		body = map[string]string{"question": question}
	}

	var resp playDTO
	err := c.do(ctx, call{
		op:       opPlayGame,
		method:   http.MethodPost,
		path:     path,
		body:     body,
		mutating: true,
	}, &resp)
	if err != nil {
		return domain.PlayResult{}, err
	}
	if resp.CurrentBalance != nil && *resp.CurrentBalance < 0 {
		return domain.PlayResult{}, domain.ErrServer("play response has a negative balance", nil)
	}
	return resp.toDomain(game), nil
}

// FetchLimits returns today's play counters. Games missing from the response
// keep their default maxima.
func (c *Client) FetchLimits(ctx context.Context) (domain.Limits, error) {
	var resp struct {
		Limits map[string]domain.Limit `json:"limits"`
	}
	if err := c.do(ctx, call{op: opFetchLimits, method: http.MethodGet, path: "/games/limits"}, &resp); err != nil {
		return nil, err
	}

	limits := domain.DefaultLimits()
	for name, l := range resp.Limits {
		game, err := domain.ParseGameType(name)
		if err != nil {
			continue
		}
		limits[game] = l
	}
	return limits, nil
}

// FetchGameHistory returns the most recent plays, newest first. An empty
// game returns every game; limit <= 0 uses the server default.
func (c *Client) FetchGameHistory(ctx context.Context, game domain.GameType, limit int) ([]domain.GameHistoryEntry, error) {
	q := url.Values{}
	if game != "" {
		if _, err := domain.ParseGameType(string(game)); err != nil {
			return nil, domain.ErrValidation(err.Error())
		}
		q.Set("game_type", string(game))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var resp struct {
		History []historyDTO `json:"history"`
	}
	if err := c.do(ctx, call{op: opGameHistory, method: http.MethodGet, path: "/games/history", query: q}, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.GameHistoryEntry, 0, len(resp.History))
	for _, h := range resp.History {
		out = append(out, domain.GameHistoryEntry{
			ID:           h.ID,
			Game:         domain.GameType(h.GameType),
			Result:       h.Result,
			TokensEarned: h.TokensEarned,
			PlayedAt:     h.PlayedAt.Time,
		})
	}
	return out, nil
}
