// Package platform describes the host messenger's web-app bridge. The core
// never depends on it beyond presentational theming.
package platform

import "log/slog"

// ColorScheme is the theme the host reports at start.
type ColorScheme string

const (
	SchemeLight ColorScheme = "light"
	SchemeDark  ColorScheme = "dark"
)

// Bridge is implemented by the host platform when the app runs inside it.
type Bridge interface {
	Ready()
	Expand()
	ColorScheme() ColorScheme
}

// Init signals readiness to the host and returns the scheme to render with.
// A nil bridge or an unknown scheme yields the light scheme.
func Init(b Bridge, logger *slog.Logger) ColorScheme {
	if b == nil {
		logger.Debug("no host bridge, using default theme")
		return SchemeLight
	}
	b.Expand()
	b.Ready()

	switch s := b.ColorScheme(); s {
	case SchemeLight, SchemeDark:
		return s
	default:
		logger.Warn("unknown color scheme from host", "scheme", s)
		return SchemeLight
	}
}

// Static is a Bridge with a fixed scheme, used when the host passes the
// theme as configuration instead of a live object.
type Static struct {
	Scheme ColorScheme
}

func (Static) Ready()                     {}
func (Static) Expand()                    {}
func (s Static) ColorScheme() ColorScheme { return s.Scheme }
