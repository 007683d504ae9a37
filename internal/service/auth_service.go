package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/desaconnect/complaint-service/internal/auth"
	"github.com/desaconnect/complaint-service/internal/repository"
	apperrors "github.com/desaconnect/complaint-service/pkg/util/errorutil"
)

// AuthService handles the admin login flow: verify credentials against
// the roster, open a revocable session, and hand back the signed
// session token for the cookie.
type AuthService struct {
	admins   repository.AdminRepository
	sessions *auth.SessionStore
	tokens   *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(admins repository.AdminRepository, sessions *auth.SessionStore, tokens *auth.TokenManager) *AuthService {
	return &AuthService{admins: admins, sessions: sessions, tokens: tokens}
}

// Login verifies the credentials and returns a session token. Every
// failure mode reads the same to the caller; whether an email is on
// the roster is not leaked.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	normalized := auth.NormalizeEmail(email)
	if normalized == "" || password == "" {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	entry, err := s.admins.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return "", time.Time{}, apperrors.NewDependencyFailure(err)
	}
	if entry.PasswordHash == nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(*entry.PasswordHash, password); err != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	sessionID, err := s.sessions.Create(ctx, normalized)
	if err != nil {
		return "", time.Time{}, apperrors.NewDependencyFailure(err)
	}
	token, expiresAt, err := s.tokens.GenerateSessionToken(normalized, sessionID)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	return token, expiresAt, nil
}

// Logout revokes the session behind the given token. An already dead
// session is not an error.
func (s *AuthService) Logout(ctx context.Context, tokenStr string) error {
	claims, err := s.tokens.ParseSessionToken(tokenStr)
	if err != nil {
		return nil
	}
	return s.sessions.Delete(ctx, claims.SessionID)
}
