// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is the credential row: a stable subject id, the unique email used to
// sign in and the bcrypt digest of the password.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	// Age is optional; nil when not provided at sign-up.
	Age       *int
	CreatedAt time.Time
	UpdatedAt time.Time
}
