package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxNicknameLength is the longest nickname accepted, in runes.
const MaxNicknameLength = 32

// ValidateLanguage checks a language code against the supported set.
func ValidateLanguage(lang Language) error {
	switch lang {
	case LanguageEN, LanguageRU:
		return nil
	default:
		return fmt.Errorf("unsupported language: %q", string(lang))
	}
}

// ParseLanguage takes the first two letters of a locale tag and falls back to en.
func ParseLanguage(code string) Language {
	code = strings.ToLower(strings.TrimSpace(code))
	if len(code) > 2 {
		code = code[:2]
	}
	lang := Language(code)
	if ValidateLanguage(lang) != nil {
		return LanguageEN
	}
	return lang
}

// ValidateNickname checks the nickname is 1..MaxNicknameLength runes and not blank.
func ValidateNickname(nickname string) error {
	if strings.TrimSpace(nickname) == "" {
		return fmt.Errorf("nickname is required")
	}
	if n := utf8.RuneCountInString(nickname); n > MaxNicknameLength {
		return fmt.Errorf("nickname too long: %d runes, max %d", n, MaxNicknameLength)
	}
	return nil
}

// ValidateReferralCode checks a referral code is present.
func ValidateReferralCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("referral code is required")
	}
	return nil
}

// ValidateCredentials checks the login payload carries an identity.
func ValidateCredentials(c Credentials) error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("telegram id is required")
	}
	return nil
}
