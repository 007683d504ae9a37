package auth

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RosterLookup is the slice of the admin repository the authorizer
// needs: an exact-match existence check on a normalized email.
type RosterLookup interface {
	Exists(ctx context.Context, email string) (bool, error)
}

type cacheEntry struct {
	isAdmin  bool
	cachedAt time.Time
}

// Authorizer answers "is this email an admin" against the roster,
// caching results in a TTL map so repeated checks within the window
// cost no store round trip. The allow-list changes rarely; the small
// staleness window is the accepted trade.
type Authorizer struct {
	mu      sync.Mutex
	entries map[string]cacheEntry

	roster RosterLookup
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewAuthorizer builds an authorizer with the given cache TTL.
func NewAuthorizer(roster RosterLookup, ttl time.Duration, logger *zap.Logger) *Authorizer {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Authorizer{
		entries: make(map[string]cacheEntry),
		roster:  roster,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

// WithClock overrides the time source. Used by tests to control TTL expiry.
func (a *Authorizer) WithClock(now func() time.Time) *Authorizer {
	a.now = now
	return a
}

// IsAuthorizedAdmin reports whether the email is on the admin roster.
// Both positive and negative roster answers are cached; store errors
// resolve false without touching the cache (fail-closed).
func (a *Authorizer) IsAuthorizedAdmin(ctx context.Context, email string) bool {
	normalized := NormalizeEmail(email)
	if normalized == "" || !ValidEmail(normalized) {
		return false
	}

	a.mu.Lock()
	entry, ok := a.entries[normalized]
	a.mu.Unlock()
	if ok && a.now().Sub(entry.cachedAt) < a.ttl {
		return entry.isAdmin
	}

	isAdmin, err := a.roster.Exists(ctx, normalized)
	if err != nil {
		a.logger.Error("admin roster lookup failed", zap.String("email", normalized), zap.Error(err))
		return false
	}

	a.mu.Lock()
	a.entries[normalized] = cacheEntry{isAdmin: isAdmin, cachedAt: a.now()}
	a.mu.Unlock()
	return isAdmin
}

// Invalidate drops the cached answer for one email.
func (a *Authorizer) Invalidate(email string) {
	normalized := NormalizeEmail(email)
	a.mu.Lock()
	delete(a.entries, normalized)
	a.mu.Unlock()
}

// InvalidateAll empties the cache.
func (a *Authorizer) InvalidateAll() {
	a.mu.Lock()
	a.entries = make(map[string]cacheEntry)
	a.mu.Unlock()
}
