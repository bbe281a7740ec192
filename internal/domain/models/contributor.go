package models

import "time"

// User is a contributor-facing view of an application user.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	FullName     string    `json:"fullname" db:"full_name"`
	IsRegistered bool      `json:"registered" db:"is_registered"`
	IsActive     bool      `json:"active" db:"is_active"`
	CreatedAt    time.Time `json:"-" db:"created_at"`
}

// Contributor links a user to a node, ordered by Position for display.
type Contributor struct {
	NodeID   string `json:"node_id" db:"node_id"`
	UserID   string `json:"user_id" db:"user_id"`
	Position int    `json:"position" db:"position"`
}
