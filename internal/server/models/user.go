package models

import "time"

// User is a registered account. PasswordHash holds the bcrypt digest of the
// password; the plaintext is never stored and the hash is never serialized.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
