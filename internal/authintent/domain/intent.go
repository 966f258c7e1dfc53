package domain

import "time"

// Intent represents a pending login: password accepted, OTP not yet verified.
// ID doubles as the pending token returned to the client. At most one intent
// exists per user; a new login replaces it.
type Intent struct {
	ID        string
	UserID    string
	Email     string
	Platform  string
	ExpiresAt time.Time
	CreatedAt time.Time
}
