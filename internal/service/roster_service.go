package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/desaconnect/complaint-service/internal/auth"
	"github.com/desaconnect/complaint-service/internal/domain"
	"github.com/desaconnect/complaint-service/internal/events"
	"github.com/desaconnect/complaint-service/internal/repository"
	apperrors "github.com/desaconnect/complaint-service/pkg/util/errorutil"
)

// BatchAddResult reports the outcome for one email of a batch add.
type BatchAddResult struct {
	Email string `json:"email"`
	Added bool   `json:"added"`
	Error string `json:"error,omitempty"`
}

// RosterService manages the admin allow-list. The route guard has
// already authorized the caller before any of these run.
type RosterService struct {
	admins     repository.AdminRepository
	authorizer *auth.Authorizer
	sessions   *auth.SessionStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// RosterDependencies bundles requirements for the roster service.
type RosterDependencies struct {
	AdminRepo  repository.AdminRepository
	Authorizer *auth.Authorizer
	Sessions   *auth.SessionStore
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	BcryptCost int
}

// NewRosterService constructs the service.
func NewRosterService(deps RosterDependencies) *RosterService {
	return &RosterService{
		admins:     deps.AdminRepo,
		authorizer: deps.Authorizer,
		sessions:   deps.Sessions,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		bcryptCost: deps.BcryptCost,
	}
}

// AddAdmin grants admin access to an email. Password is optional; a
// passwordless entry can only sign in through the identity provider.
func (s *RosterService) AddAdmin(ctx context.Context, callerEmail, newEmail, password string) (*domain.AdminEntry, error) {
	normalized := auth.NormalizeEmail(newEmail)
	if !auth.ValidEmail(normalized) {
		return nil, apperrors.NewValidationError("invalid email address", map[string]any{"email": newEmail})
	}

	entry := &domain.AdminEntry{Email: normalized}
	if password != "" {
		hash, err := auth.HashPassword(password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		entry.PasswordHash = &hash
	}

	if err := s.admins.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateAdmin) {
			return nil, apperrors.NewConflict("email is already an admin", map[string]any{"email": normalized})
		}
		return nil, apperrors.NewDependencyFailure(err)
	}

	// A previously cached negative answer must not outlive the grant.
	s.authorizer.Invalidate(normalized)

	s.publish(ctx, events.Event{
		Type:    events.EventAdminAdded,
		Actor:   auth.NormalizeEmail(callerEmail),
		Payload: events.AdminRosterPayload{Email: normalized},
	})
	return entry, nil
}

// RemoveAdmin revokes admin access. Self-removal and removing the last
// admin are both rejected; submission back-references are cleared in
// the same transaction as the roster delete.
func (s *RosterService) RemoveAdmin(ctx context.Context, callerEmail, targetEmail string) error {
	caller := auth.NormalizeEmail(callerEmail)
	target := auth.NormalizeEmail(targetEmail)
	if target == caller {
		return apperrors.NewConflict("cannot remove yourself from the admin roster", nil)
	}

	if err := s.admins.RemoveWithCascade(ctx, target); err != nil {
		switch {
		case errors.Is(err, repository.ErrLastAdmin):
			return apperrors.NewConflict("cannot remove the last admin", nil)
		case errors.Is(err, pgx.ErrNoRows):
			return apperrors.NewNotFound("admin", map[string]any{"email": target})
		default:
			return apperrors.NewDependencyFailure(err)
		}
	}

	// Revoke immediately rather than waiting out the cache TTL.
	s.authorizer.Invalidate(target)
	if s.sessions != nil {
		if err := s.sessions.DeleteByEmail(ctx, target); err != nil {
			s.logger.Warn("failed to revoke sessions for removed admin",
				zap.String("email", target), zap.Error(err))
		}
	}

	s.publish(ctx, events.Event{
		Type:    events.EventAdminRemoved,
		Actor:   caller,
		Payload: events.AdminRosterPayload{Email: target},
	})
	return nil
}

// AddAdminsBatch attempts each candidate independently and reports a
// per-email outcome instead of failing the whole batch on one entry.
func (s *RosterService) AddAdminsBatch(ctx context.Context, callerEmail string, emails []string) []BatchAddResult {
	results := make([]BatchAddResult, 0, len(emails))
	seen := make(map[string]struct{}, len(emails))

	for _, raw := range emails {
		normalized := auth.NormalizeEmail(raw)
		if _, dup := seen[normalized]; dup {
			results = append(results, BatchAddResult{Email: normalized, Error: "duplicate in request"})
			continue
		}
		seen[normalized] = struct{}{}

		if _, err := s.AddAdmin(ctx, callerEmail, raw, ""); err != nil {
			results = append(results, BatchAddResult{Email: normalized, Error: apperrors.ToDomainError(err).Message})
			continue
		}
		results = append(results, BatchAddResult{Email: normalized, Added: true})
	}
	return results
}

// ListAdmins returns the current roster.
func (s *RosterService) ListAdmins(ctx context.Context) ([]domain.AdminEntry, error) {
	entries, err := s.admins.List(ctx)
	if err != nil {
		return nil, apperrors.NewDependencyFailure(err)
	}
	return entries, nil
}

func (s *RosterService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
