package domain

import "time"

// PaymentStatus tracks the payment lifecycle on the server.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// TokenPackage is a purchasable bundle of tokens.
type TokenPackage struct {
	ID          string    `json:"id"`
	Tokens      int64     `json:"tokens"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	Description Localized `json:"description"`
}

// Payment is a purchase initiated by the client. Tokens are credited only
// after the payment provider confirms it out of band.
type Payment struct {
	ID          int64         `json:"id"`
	Amount      float64       `json:"amount"`
	Tokens      int64         `json:"tokens"`
	Status      PaymentStatus `json:"status"`
	PaymentURL  string        `json:"payment_url,omitempty"`
	CreatedAt   *time.Time    `json:"created_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// TokenPackages is the built-in package list shown before the server's copy loads.
var TokenPackages = []TokenPackage{
	{ID: "small", Tokens: 100, Price: 1.99, Currency: "USD", Description: Localized{EN: "100 FLIP tokens", RU: "100 FLIP токенов"}},
	{ID: "medium", Tokens: 300, Price: 4.99, Currency: "USD", Description: Localized{EN: "300 FLIP tokens", RU: "300 FLIP токенов"}},
	{ID: "large", Tokens: 500, Price: 7.99, Currency: "USD", Description: Localized{EN: "500 FLIP tokens", RU: "500 FLIP токенов"}},
	{ID: "premium", Tokens: 1000, Price: 14.99, Currency: "USD", Description: Localized{EN: "1000 FLIP tokens", RU: "1000 FLIP токенов"}},
}
