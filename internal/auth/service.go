package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// Account lockout: 5 consecutive failures lock the account for 30 minutes.
	maxFailedAttempts = 5
	lockoutDuration   = 30 * time.Minute

	tokenTTL          = 24 * time.Hour
	minPasswordLength = 8
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is temporarily locked")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", minPasswordLength)
)

// Service authenticates admin users and issues HMAC-signed session tokens.
type Service struct {
	repo   Repository
	secret []byte
	log    *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, secret string, log *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		secret: []byte(secret),
		log:    log,
		now:    time.Now,
	}
}

// Login verifies credentials and returns a signed bearer token. Lockout state
// is checked before the password so a locked account leaks nothing about
// whether the password was right.
func (s *Service) Login(ctx context.Context, email, password string) (string, *AdminUser, error) {
	user, err := s.repo.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("load admin user: %w", err)
	}
	if !user.IsActive {
		return "", nil, ErrInvalidCredentials
	}

	now := s.now()
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return "", nil, ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		attempts := user.FailedLoginAttempts + 1
		var lockedUntil *time.Time
		if attempts >= maxFailedAttempts {
			until := now.Add(lockoutDuration)
			lockedUntil = &until
			s.log.Warn("admin account locked",
				zap.String("email", user.Email), zap.Time("until", until))
		}
		if err := s.repo.RecordLoginFailure(ctx, user.ID, attempts, lockedUntil); err != nil {
			s.log.Error("record login failure", zap.Error(err))
		}
		return "", nil, ErrInvalidCredentials
	}

	if err := s.repo.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		s.log.Error("record login success", zap.Error(err))
	}

	token, err := s.issueToken(user, now)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	return token, user, nil
}

func (s *Service) issueToken(user *AdminUser, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyToken validates the signature and expiry, then loads the admin user.
func (s *Service) VerifyToken(ctx context.Context, tokenString string) (*AdminUser, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetAdminByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load admin user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}

	return user, nil
}

// ChangePassword re-verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	user, err := s.repo.GetAdminByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("load admin user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("store password hash: %w", err)
	}

	s.log.Info("admin password changed", zap.String("admin_id", userID.String()))
	return nil
}

// HashPassword is used by seeding and account provisioning.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
