package domain

import "time"

// User represents an account. PasswordHash is the bcrypt digest; the
// plaintext is never stored.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
