package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/flipcoin/miniapp/internal/domain"
)

// userDTO is the server's user object.
type userDTO struct {
	ID           int64      `json:"id"`
	TelegramID   flexString `json:"telegram_id"`
	Nickname     string     `json:"nickname"`
	FlipTokens   int64      `json:"flip_tokens"`
	Language     string     `json:"language"`
	SoundEnabled bool       `json:"sound_enabled"`
	Role         string     `json:"role"`
	Version      int64      `json:"version"`
}

func (u userDTO) toDomain() domain.UserProfile {
	return domain.UserProfile{
		ID:           u.ID,
		TelegramID:   string(u.TelegramID),
		Nickname:     u.Nickname,
		FlipTokens:   u.FlipTokens,
		Language:     domain.ParseLanguage(u.Language),
		SoundEnabled: u.SoundEnabled,
		Role:         domain.Role(u.Role),
		Version:      u.Version,
	}
}

type userEnvelope struct {
	User *userDTO `json:"user"`
}

func (e userEnvelope) profile(op string) (domain.UserProfile, error) {
	if e.User == nil {
		return domain.UserProfile{}, domain.ErrServer(op+" response has no user", nil)
	}
	if e.User.FlipTokens < 0 {
		return domain.UserProfile{}, domain.ErrServer(op+" response has a negative balance", nil)
	}
	return e.User.toDomain(), nil
}

// profilePatchDTO carries the fields the server lets a user change. The
// balance is never patched remotely.
type profilePatchDTO struct {
	Nickname     *string `json:"nickname,omitempty"`
	Language     *string `json:"language,omitempty"`
	SoundEnabled *bool   `json:"sound_enabled,omitempty"`
}

func newProfilePatchDTO(p domain.ProfilePatch) profilePatchDTO {
	dto := profilePatchDTO{Nickname: p.Nickname, SoundEnabled: p.SoundEnabled}
	if p.Language != nil {
		lang := string(*p.Language)
		dto.Language = &lang
	}
	return dto
}

// flexString decodes a JSON string or number into a string.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("telegram id: %w", err)
	}
	*s = flexString(n.String())
	return nil
}

// isoTime decodes timestamps with or without a zone offset. Naive
// timestamps are taken as UTC.
type isoTime struct {
	time.Time
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t *isoTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	for _, layout := range isoLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

func (t isoTime) ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

// playDTO is the union of the three play responses.
type playDTO struct {
	Result         string `json:"result"`
	Question       string `json:"question"`
	TokensEarned   int64  `json:"tokens_earned"`
	CurrentBalance *int64 `json:"current_balance"`
	PlaysToday     int    `json:"plays_today"`
	MaxPlays       int    `json:"max_plays"`
	Version        int64  `json:"version"`
	Card           *struct {
		ID      int    `json:"id"`
		Name    string `json:"name"`
		Meaning string `json:"meaning"`
	} `json:"card"`
}

func (p playDTO) toDomain(game domain.GameType) domain.PlayResult {
	outcome := domain.GameOutcome{
		Game:         game,
		Label:        p.Result,
		TokensEarned: p.TokensEarned,
	}
	switch game {
	case domain.GameMagicBall:
		outcome.Text = p.Result
	case domain.GameTarotCard:
		if p.Card != nil {
			outcome.ID = p.Card.ID
			outcome.Label = p.Card.Name
			outcome.Text = p.Card.Meaning
		}
	}
	return domain.PlayResult{
		Outcome:    outcome,
		PlaysToday: p.PlaysToday,
		MaxPlays:   p.MaxPlays,
		Balance:    p.CurrentBalance,
		Version:    p.Version,
	}
}

type historyDTO struct {
	ID           int64   `json:"id"`
	GameType     string  `json:"game_type"`
	Result       string  `json:"result"`
	TokensEarned int64   `json:"tokens_earned"`
	PlayedAt     isoTime `json:"played_at"`
}

type completedTaskDTO struct {
	ID            int64   `json:"id"`
	TaskID        int64   `json:"task_id"`
	TitleEN       string  `json:"title_en"`
	TitleRU       string  `json:"title_ru"`
	Type          string  `json:"type"`
	TokensAwarded int64   `json:"tokens_awarded"`
	CompletedAt   isoTime `json:"completed_at"`
}

type rewardDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Cost        int64  `json:"cost"`
}

type redeemedDTO struct {
	ID          int64   `json:"id"`
	RewardID    int64   `json:"reward_id"`
	NameEN      string  `json:"name_en"`
	NameRU      string  `json:"name_ru"`
	TokensSpent int64   `json:"tokens_spent"`
	RedeemedAt  isoTime `json:"redeemed_at"`
}

type paymentDTO struct {
	ID           int64   `json:"id"`
	PaymentID    int64   `json:"payment_id"`
	Amount       float64 `json:"amount"`
	Tokens       int64   `json:"tokens"`
	TokensAmount int64   `json:"tokens_amount"`
	Status       string  `json:"status"`
	PaymentURL   string  `json:"telegram_payment_url"`
	CreatedAt    isoTime `json:"created_at"`
	CompletedAt  isoTime `json:"completed_at"`
}

func (p paymentDTO) toDomain() domain.Payment {
	out := domain.Payment{
		ID:          p.ID,
		Amount:      p.Amount,
		Tokens:      p.Tokens,
		Status:      domain.PaymentStatus(p.Status),
		PaymentURL:  p.PaymentURL,
		CreatedAt:   p.CreatedAt.ptr(),
		CompletedAt: p.CompletedAt.ptr(),
	}
	if out.ID == 0 {
		out.ID = p.PaymentID
	}
	if out.Tokens == 0 {
		out.Tokens = p.TokensAmount
	}
	return out
}

// balanceDTO is the tail every balance-changing response carries.
type balanceDTO struct {
	CurrentBalance *int64 `json:"current_balance"`
	Version        int64  `json:"version"`
}

func (b balanceDTO) balance(op string) (int64, error) {
	if b.CurrentBalance == nil {
		return 0, domain.ErrServer(op+" response has no balance", nil)
	}
	if *b.CurrentBalance < 0 {
		return 0, domain.ErrServer(op+" response has a negative balance", nil)
	}
	return *b.CurrentBalance, nil
}
