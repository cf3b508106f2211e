package models

import (
	"time"

	"github.com/google/uuid"
)

// User captures application-facing fields for an authenticated identity.
// Email is stored lowercase so uniqueness is case-insensitive.
type User struct {
	ID           uuid.UUID  `json:"id"`
	FullName     string     `json:"full_name"`
	Email        string     `json:"email"`
	PasswordHash []byte     `json:"-"`
	PasswordSalt []byte     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}
