package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound signals a session ID with no live Redis record,
// either expired or explicitly revoked.
var ErrSessionNotFound = errors.New("admin session not found")

const (
	sessionKeyPrefix   = "admin_session:"
	sessionEmailPrefix = "admin_sessions_by_email:"
)

// SessionStore keeps admin login sessions in Redis so they survive
// process restarts and can be revoked server-side, e.g. when an admin
// is removed from the roster while still holding a cookie.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore builds a store with the given session lifetime.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &SessionStore{client: client, ttl: ttl}
}

// Create stores a new session for the email and returns its ID.
func (s *SessionStore) Create(ctx context.Context, email string) (string, error) {
	sessionID := uuid.NewString()
	if err := s.client.Set(ctx, sessionKeyPrefix+sessionID, email, s.ttl).Err(); err != nil {
		return "", err
	}
	emailKey := sessionEmailPrefix + email
	if err := s.client.SAdd(ctx, emailKey, sessionID).Err(); err != nil {
		return "", err
	}
	// The index lives as long as the longest-lived session it tracks.
	_ = s.client.Expire(ctx, emailKey, s.ttl).Err()
	return sessionID, nil
}

// Get resolves a session ID to the email it was issued for.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (string, error) {
	email, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}
	return email, nil
}

// Delete revokes one session.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	email, err := s.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return err
	}
	return s.client.SRem(ctx, sessionEmailPrefix+email, sessionID).Err()
}

// DeleteByEmail revokes every live session for an email. Called when an
// admin is removed from the roster.
func (s *SessionStore) DeleteByEmail(ctx context.Context, email string) error {
	emailKey := sessionEmailPrefix + email
	sessionIDs, err := s.client.SMembers(ctx, emailKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	for _, sessionID := range sessionIDs {
		if err := s.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
			return err
		}
	}
	return s.client.Del(ctx, emailKey).Err()
}
