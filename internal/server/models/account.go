// Package models contains the persistent record types of the blog backend.
package models

import "time"

// Account is a registered user. PasswordHash is a salted bcrypt hash; the
// plaintext password is never stored or returned.
type Account struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}
