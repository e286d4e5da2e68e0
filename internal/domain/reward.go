package domain

import "time"

// Reward is an item that can be bought with tokens.
type Reward struct {
	ID          int64     `json:"id"`
	Name        Localized `json:"name"`
	Description Localized `json:"description"`
	Image       string    `json:"image,omitempty"`
	Cost        int64     `json:"cost"`
}

// Redemption is the result of buying a reward.
type Redemption struct {
	RewardID    int64 `json:"reward_id"`
	TokensSpent int64 `json:"tokens_spent"`
	Balance     int64 `json:"balance"`
	Version     int64 `json:"version,omitempty"`
}

// ReferralBonus is the result of applying a referral code.
type ReferralBonus struct {
	TokensEarned int64 `json:"tokens_earned"`
	Balance      int64 `json:"balance"`
	Version      int64 `json:"version,omitempty"`
}

// RedeemedReward is an entry of the redemption history.
type RedeemedReward struct {
	ID          int64     `json:"id"`
	RewardID    int64     `json:"reward_id"`
	Name        Localized `json:"name"`
	TokensSpent int64     `json:"tokens_spent"`
	RedeemedAt  time.Time `json:"redeemed_at"`
}

// RewardCatalog is the built-in shop offered to guests.
var RewardCatalog = []Reward{
	{
		ID:          1,
		Name:        Localized{EN: "Coin Sticker Pack", RU: "Стикерпак \"Монетки\""},
		Description: Localized{EN: "10 coin-themed stickers for Telegram", RU: "Набор из 10 стикеров с монетками для Telegram"},
		Image:       "🎭",
		Cost:        50,
	},
	{
		ID:          2,
		Name:        Localized{EN: "VIP Status", RU: "VIP статус"},
		Description: Localized{EN: "Special status in the app and access to exclusive games", RU: "Особый статус в приложении и доступ к эксклюзивным играм"},
		Image:       "👑",
		Cost:        100,
	},
	{
		ID:          3,
		Name:        Localized{EN: "Custom Theme", RU: "Кастомная тема"},
		Description: Localized{EN: "Unique theme for the application", RU: "Уникальная тема оформления для приложения"},
		Image:       "🎨",
		Cost:        75,
	},
	{
		ID:          4,
		Name:        Localized{EN: "Premium Avatar", RU: "Премиум аватар"},
		Description: Localized{EN: "Exclusive avatar for your profile", RU: "Эксклюзивный аватар для вашего профиля"},
		Image:       "🧩",
		Cost:        60,
	},
}

// FindReward looks a reward up in the built-in catalog.
func FindReward(id int64) (Reward, bool) {
	for _, r := range RewardCatalog {
		if r.ID == id {
			return r, true
		}
	}
	return Reward{}, false
}
