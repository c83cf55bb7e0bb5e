package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrAdminNotFound = errors.New("admin user not found")

// Repository contains all DB interactions for admin accounts.
type Repository interface {
	GetAdminByEmail(ctx context.Context, email string) (*AdminUser, error)
	GetAdminByID(ctx context.Context, id uuid.UUID) (*AdminUser, error)

	// Login bookkeeping. lockedUntil is nil while under the attempt threshold.
	RecordLoginFailure(ctx context.Context, id uuid.UUID, attempts int, lockedUntil *time.Time) error
	RecordLoginSuccess(ctx context.Context, id uuid.UUID, at time.Time) error

	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}
