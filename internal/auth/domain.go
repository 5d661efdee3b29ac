package auth

import "time"

// User represents an authenticatable account.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	RoleLabel    string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
