package domain

import "time"

// Language is a supported UI language code.
type Language string

const (
	LanguageEN Language = "en"
	LanguageRU Language = "ru"
)

// Role is assigned by the server and never changed by local intents.
type Role string

const (
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
	RoleTester Role = "tester"
)

// GuestNickname is shown until a profile is loaded or logged in.
const GuestNickname = "Guest"

// UserProfile is the client-side profile snapshot, persisted as JSON.
type UserProfile struct {
	ID           int64    `json:"id"`
	TelegramID   string   `json:"telegramId"`
	Nickname     string   `json:"nickname"`
	FlipTokens   int64    `json:"flipTokens"`
	Language     Language `json:"language"`
	SoundEnabled bool     `json:"soundEnabled"`
	Role         Role     `json:"role"`
	// Version is the server-issued update version of the last applied
	// server snapshot. Zero means the server did not version it.
	Version int64 `json:"version,omitempty"`
}

// DefaultProfile returns the guest profile used at first start and after logout.
func DefaultProfile() UserProfile {
	return UserProfile{
		Nickname:     GuestNickname,
		Language:     LanguageEN,
		SoundEnabled: true,
		Role:         RoleUser,
	}
}

// ProfilePatch holds the locally mutable fields. Nil fields are left untouched.
// ID, TelegramID and Role are deliberately absent: only a server replace sets them.
type ProfilePatch struct {
	Nickname     *string   `json:"nickname,omitempty"`
	FlipTokens   *int64    `json:"flipTokens,omitempty"`
	Language     *Language `json:"language,omitempty"`
	SoundEnabled *bool     `json:"soundEnabled,omitempty"`
}

// Empty reports whether the patch sets no field.
func (p ProfilePatch) Empty() bool {
	return p.Nickname == nil && p.FlipTokens == nil && p.Language == nil && p.SoundEnabled == nil
}

// Validate checks every set field; a patch is applied whole or not at all.
func (p ProfilePatch) Validate() error {
	if p.Nickname != nil {
		if err := ValidateNickname(*p.Nickname); err != nil {
			return ErrValidation(err.Error())
		}
	}
	if p.FlipTokens != nil && *p.FlipTokens < 0 {
		return ErrValidation("token balance cannot be negative")
	}
	if p.Language != nil {
		if err := ValidateLanguage(*p.Language); err != nil {
			return ErrValidation(err.Error())
		}
	}
	return nil
}

// Merge applies patch over base, field by field. The patch wins for every field it sets.
func Merge(base UserProfile, patch ProfilePatch) UserProfile {
	out := base
	if patch.Nickname != nil {
		out.Nickname = *patch.Nickname
	}
	if patch.FlipTokens != nil {
		out.FlipTokens = *patch.FlipTokens
	}
	if patch.Language != nil {
		out.Language = *patch.Language
	}
	if patch.SoundEnabled != nil {
		out.SoundEnabled = *patch.SoundEnabled
	}
	return out
}

// Normalize repairs fields a stored or remote profile may carry out of range.
// It reports false when the profile cannot be trusted at all.
func Normalize(p UserProfile) (UserProfile, bool) {
	if p.FlipTokens < 0 {
		return p, false
	}
	if ValidateLanguage(p.Language) != nil {
		p.Language = LanguageEN
	}
	if p.Nickname == "" {
		p.Nickname = GuestNickname
	}
	if p.Role == "" {
		p.Role = RoleUser
	}
	return p, true
}

// Session is the authentication evidence held next to the profile.
type Session struct {
	Token         string     `json:"-"`
	Authenticated bool       `json:"authenticated"`
	Subject       string     `json:"subject,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// NewSession derives the authenticated flag from token presence.
func NewSession(token string) Session {
	return Session{Token: token, Authenticated: token != ""}
}

// Expired reports whether a known expiry has passed. Unknown expiry is never expired.
func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// Credentials is the Telegram login payload forwarded to the session endpoint.
type Credentials struct {
	ID           string `json:"id"`
	Username     string `json:"username,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	PhotoURL     string `json:"photo_url,omitempty"`
	AuthDate     int64  `json:"auth_date"`
	Hash         string `json:"hash"`
}

// PreferredLanguage maps a Telegram language_code to a supported language.
func (c Credentials) PreferredLanguage() Language {
	return ParseLanguage(c.LanguageCode)
}
