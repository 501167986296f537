// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Age and the two consent flags exist for legal-consent reasons: accounts
// may only be registered for users aged 15 or older, and data sharing /
// contact permission are opt-in. The minimum age is enforced at signup.
//
// PasswordHash is the bcrypt hash of the user's password. It is tagged
// `json:"-"` so it can never leak through an API response, no matter which
// struct ends up being encoded.
type User struct {
	ID              int64     `json:"id"              db:"id"`
	Username        string    `json:"username"        db:"username"`
	Email           string    `json:"email"           db:"email"`
	PasswordHash    string    `json:"-"               db:"password_hash"`
	Age             int       `json:"age"             db:"age"`
	CanBeContacted  bool      `json:"canBeContacted"  db:"can_be_contacted"`
	CanDataBeShared bool      `json:"canDataBeShared" db:"can_data_be_shared"`
	CreatedAt       time.Time `json:"createdAt"       db:"created_at"`
}

// MinimumAge is the youngest age at which an account may be registered.
const MinimumAge = 15
