package constants

import "time"

// Session timeouts.
const (
	DefaultSessionTimeout = 30 * time.Minute
	MinSessionTimeout     = 5 * time.Minute
	MaxSessionTimeout     = 24 * time.Hour
	SessionSweepInterval  = time.Minute
)

// Request parameters and cookies carrying the session token.
const (
	SessionQueryParam = "sid"
	SessionCookieName = "wifi_sid"
	LanguageCookie    = "wifi_lang"
)

// ClampSessionTimeout keeps a configured timeout inside the supported window.
// Zero or negative values select the default.
func ClampSessionTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultSessionTimeout
	case d < MinSessionTimeout:
		return MinSessionTimeout
	case d > MaxSessionTimeout:
		return MaxSessionTimeout
	}
	return d
}
