package domain

import "time"

// Code represents a pending OTP challenge for an email address (stored in otp_codes table).
// Only the SHA-256 hash of the code is persisted; at most one code is active per email.
type Code struct {
	Email     string
	CodeHash  string
	ExpiresAt time.Time
	CreatedAt time.Time
}
