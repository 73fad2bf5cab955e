package domain

import "time"

// TokenTTL is how long a freshly exchanged app token is trusted. It is fixed
// and does not follow the expires_in value returned by Twitch.
const TokenTTL = 3600 * time.Second

// Credentials identify the Twitch application.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

func (c Credentials) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// AccessToken is an app access token and the instant it stops being used.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

// NewAccessToken stamps value with an expiry TokenTTL after now.
func NewAccessToken(value string, now time.Time) AccessToken {
	return AccessToken{Value: value, ExpiresAt: now.Add(TokenTTL)}
}

// ValidAt reports whether the token may still be used at now.
func (t AccessToken) ValidAt(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}

// TokenState is the lifecycle of the cached app token.
type TokenState string

const (
	TokenAbsent  TokenState = "absent"
	TokenValid   TokenState = "valid"
	TokenExpired TokenState = "expired"
)

// StateOf classifies a cached token; ok is false when nothing is cached.
func StateOf(token AccessToken, ok bool, now time.Time) TokenState {
	switch {
	case !ok:
		return TokenAbsent
	case token.ValidAt(now):
		return TokenValid
	default:
		return TokenExpired
	}
}
