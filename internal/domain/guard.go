package domain

// GuardResult is the outcome of a client-side guard check.
type GuardResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Guard   string `json:"guard,omitempty"` // which guard blocked
}
