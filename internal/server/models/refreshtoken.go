package models

import "time"

// RefreshToken is one renewal credential. ID doubles as the jti claim of the
// signed token. Rows are never deleted; RevokedAt flips once and stays set.
type RefreshToken struct {
	ID        string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}
