package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type stubAdminRepo struct {
	users map[uuid.UUID]*AdminUser
}

func (r *stubAdminRepo) GetAdminByEmail(_ context.Context, email string) (*AdminUser, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrAdminNotFound
}

func (r *stubAdminRepo) GetAdminByID(_ context.Context, id uuid.UUID) (*AdminUser, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, ErrAdminNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *stubAdminRepo) RecordLoginFailure(_ context.Context, id uuid.UUID, attempts int, lockedUntil *time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return ErrAdminNotFound
	}
	u.FailedLoginAttempts = attempts
	u.LockedUntil = lockedUntil
	return nil
}

func (r *stubAdminRepo) RecordLoginSuccess(_ context.Context, id uuid.UUID, at time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return ErrAdminNotFound
	}
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LastLoginAt = &at
	return nil
}

func (r *stubAdminRepo) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return ErrAdminNotFound
	}
	u.PasswordHash = hash
	return nil
}

func newAuthFixture(t *testing.T) (*Service, *stubAdminRepo, uuid.UUID) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	id := uuid.New()
	repo := &stubAdminRepo{users: map[uuid.UUID]*AdminUser{
		id: {
			ID:           id,
			Email:        "admin@clinic.example",
			Name:         "Admin",
			PasswordHash: string(hash),
			IsActive:     true,
		},
	}}

	svc := NewService(repo, "test-secret", zap.NewNop())
	return svc, repo, id
}

func TestLoginSuccessIssuesVerifiableToken(t *testing.T) {
	svc, repo, id := newAuthFixture(t)

	token, user, err := svc.Login(context.Background(), "admin@clinic.example", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, id, user.ID)
	require.NotNil(t, repo.users[id].LastLoginAt)

	verified, err := svc.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, id, verified.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, repo, id := newAuthFixture(t)

	_, _, err := svc.Login(context.Background(), "admin@clinic.example", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 1, repo.users[id].FailedLoginAttempts)
	assert.Nil(t, repo.users[id].LockedUntil)
}

func TestLoginLocksAfterFiveFailures(t *testing.T) {
	svc, repo, id := newAuthFixture(t)

	for i := 0; i < 5; i++ {
		_, _, err := svc.Login(context.Background(), "admin@clinic.example", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	locked := repo.users[id]
	assert.Equal(t, 5, locked.FailedLoginAttempts)
	require.NotNil(t, locked.LockedUntil)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), *locked.LockedUntil, time.Minute)

	// Even the right password is rejected while locked.
	_, _, err := svc.Login(context.Background(), "admin@clinic.example", "correct horse")
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestLoginLockExpires(t *testing.T) {
	svc, repo, id := newAuthFixture(t)

	past := time.Now().Add(-time.Minute)
	repo.users[id].LockedUntil = &past
	repo.users[id].FailedLoginAttempts = 5

	_, user, err := svc.Login(context.Background(), "admin@clinic.example", "correct horse")
	require.NoError(t, err)
	assert.Zero(t, repo.users[user.ID].FailedLoginAttempts)
	assert.Nil(t, repo.users[user.ID].LockedUntil)
}

func TestLoginSuccessResetsFailureCount(t *testing.T) {
	svc, repo, id := newAuthFixture(t)

	_, _, _ = svc.Login(context.Background(), "admin@clinic.example", "wrong")
	_, _, err := svc.Login(context.Background(), "admin@clinic.example", "correct horse")
	require.NoError(t, err)
	assert.Zero(t, repo.users[id].FailedLoginAttempts)
}

func TestLoginInactiveOrUnknownUser(t *testing.T) {
	svc, repo, id := newAuthFixture(t)

	_, _, err := svc.Login(context.Background(), "nobody@clinic.example", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	repo.users[id].IsActive = false
	_, _, err = svc.Login(context.Background(), "admin@clinic.example", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	token, _, err := svc.Login(context.Background(), "admin@clinic.example", "correct horse")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	_, err = svc.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenRejectsGarbageAndWrongSecret(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.VerifyToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewService(&stubAdminRepo{users: map[uuid.UUID]*AdminUser{}}, "other-secret", zap.NewNop())
	token, _, err := svc.Login(context.Background(), "admin@clinic.example", "correct horse")
	require.NoError(t, err)
	_, err = other.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestChangePassword(t *testing.T) {
	svc, repo, id := newAuthFixture(t)

	err := svc.ChangePassword(context.Background(), id, "correct horse", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	err = svc.ChangePassword(context.Background(), id, "wrong", "longenoughpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = svc.ChangePassword(context.Background(), id, "correct horse", "longenoughpassword")
	require.NoError(t, err)

	require.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(repo.users[id].PasswordHash), []byte("longenoughpassword")))
}
