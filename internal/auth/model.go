package auth

import (
	"time"

	"github.com/google/uuid"
)

type AdminUser struct {
	ID                  uuid.UUID
	Email               string
	Name                string
	PasswordHash        string
	IsActive            bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
