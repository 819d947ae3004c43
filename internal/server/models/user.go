package models

import "time"

// User is an account record. Generation is a monotonically increasing counter
// embedded in every access token at issuance time; bumping it invalidates all
// outstanding access tokens for the user at once.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Generation   int64
	CreatedAt    time.Time
}
