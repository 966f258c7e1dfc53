package domain

import "time"

// Platform names the client namespace a session belongs to. WEB refresh
// tokens travel as an httpOnly cookie; MOBILE tokens travel in the body.
type Platform string

const (
	PlatformWeb    Platform = "WEB"
	PlatformMobile Platform = "MOBILE"
)

// PlatformValid reports whether p is a known platform.
func PlatformValid(p Platform) bool {
	return p == PlatformWeb || p == PlatformMobile
}

// Session is the per-(user,platform) authentication state. SessionVersion
// increments on every successful OTP verification, invalidating refresh
// tokens issued under earlier versions. RefreshTokenHash stores the SHA-256
// of the current refresh token; empty means logged out.
type Session struct {
	ID               string
	UserID           string
	Platform         Platform
	SessionID        string
	RefreshTokenHash string
	RefreshExpiresAt *time.Time
	SessionVersion   int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
