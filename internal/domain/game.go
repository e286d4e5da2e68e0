package domain

import (
	"fmt"
	"time"
)

// GameType identifies a mini-game.
type GameType string

const (
	GameFlipCoin  GameType = "flip_coin"
	GameMagicBall GameType = "magic_ball"
	GameTarotCard GameType = "tarot_card"
)

// GameTypes lists every game in menu order.
var GameTypes = []GameType{GameFlipCoin, GameMagicBall, GameTarotCard}

// ParseGameType validates a game type string.
func ParseGameType(s string) (GameType, error) {
	g := GameType(s)
	for _, known := range GameTypes {
		if g == known {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown game type: %q", s)
}

// Reward returns the tokens the server credits for one play.
func (g GameType) Reward() int64 {
	switch g {
	case GameFlipCoin:
		return 1
	case GameMagicBall:
		return 2
	case GameTarotCard:
		return 3
	default:
		return 0
	}
}

// LocalReward returns the tokens credited for a play resolved without the
// server. Every game pays one token offline.
func (g GameType) LocalReward() int64 {
	if _, err := ParseGameType(string(g)); err != nil {
		return 0
	}
	return 1
}

// DefaultDailyMax is the per-day play cap assumed until the server reports limits.
func (g GameType) DefaultDailyMax() int {
	switch g {
	case GameFlipCoin:
		return 50
	case GameMagicBall:
		return 30
	case GameTarotCard:
		return 20
	default:
		return 0
	}
}

// Localized holds a text in every supported language.
type Localized struct {
	EN string `json:"en"`
	RU string `json:"ru"`
}

// In returns the text for lang, falling back to English.
func (l Localized) In(lang Language) string {
	if lang == LanguageRU && l.RU != "" {
		return l.RU
	}
	return l.EN
}

// GameOutcome is a single immutable draw.
type GameOutcome struct {
	Game GameType `json:"game"`
	// ID is the index of the outcome within its set (1-based), 0 if the server did not say.
	ID           int    `json:"id"`
	Label        string `json:"label"`
	Text         string `json:"text,omitempty"`
	TokensEarned int64  `json:"tokens_earned"`
}

// PlayResult is what a play returns to a view.
type PlayResult struct {
	Outcome    GameOutcome `json:"outcome"`
	PlaysToday int         `json:"plays_today"`
	MaxPlays   int         `json:"max_plays"`
	// Balance is the server-confirmed balance, nil for local plays.
	Balance *int64 `json:"balance,omitempty"`
	Version int64  `json:"version,omitempty"`
}

// Limit is the daily play counter of one game.
type Limit struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// Reached reports whether no plays remain today.
func (l Limit) Reached() bool {
	return l.Max > 0 && l.Current >= l.Max
}

// Limits maps a game to its daily counter.
type Limits map[GameType]Limit

// DefaultLimits returns zeroed counters with the default daily maxima.
func DefaultLimits() Limits {
	out := make(Limits, len(GameTypes))
	for _, g := range GameTypes {
		out[g] = Limit{Max: g.DefaultDailyMax()}
	}
	return out
}

// GameHistoryEntry is one past play as recorded by the server.
type GameHistoryEntry struct {
	ID           int64     `json:"id"`
	Game         GameType  `json:"game_type"`
	Result       string    `json:"result"`
	TokensEarned int64     `json:"tokens_earned"`
	PlayedAt     time.Time `json:"played_at"`
}
