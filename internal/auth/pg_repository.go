package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const adminColumns = `id, email, name, password_hash, is_active,
		failed_login_attempts, locked_until, last_login_at, created_at, updated_at`

func scanAdmin(row pgx.Row) (*AdminUser, error) {
	var u AdminUser

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&u.IsActive,
		&u.FailedLoginAttempts,
		&u.LockedUntil,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}

	return &u, nil
}

func (r *PgRepository) GetAdminByEmail(ctx context.Context, email string) (*AdminUser, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+adminColumns+`
		FROM admin_users
		WHERE lower(email) = lower($1)
	`, email)
	return scanAdmin(row)
}

func (r *PgRepository) GetAdminByID(ctx context.Context, id uuid.UUID) (*AdminUser, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+adminColumns+`
		FROM admin_users
		WHERE id = $1
	`, id)
	return scanAdmin(row)
}

func (r *PgRepository) RecordLoginFailure(ctx context.Context, id uuid.UUID, attempts int, lockedUntil *time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE admin_users
		SET failed_login_attempts = $2,
		    locked_until = $3,
		    updated_at = now()
		WHERE id = $1
	`, id, attempts, lockedUntil)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAdminNotFound
	}
	return nil
}

func (r *PgRepository) RecordLoginSuccess(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE admin_users
		SET failed_login_attempts = 0,
		    locked_until = NULL,
		    last_login_at = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAdminNotFound
	}
	return nil
}

func (r *PgRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE admin_users
		SET password_hash = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAdminNotFound
	}
	return nil
}
