// Package auth owns the staff token pair: expiry decisions, the serialized
// refresh flight, and durable persistence of the pair across restarts.
package auth

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bekzodm/murojaat-desk/internal/domain"
	"github.com/bekzodm/murojaat-desk/internal/repository/kv"
)

const (
	keyAccessToken  = "auth:access_token"
	keyRefreshToken = "auth:refresh_token"
	keyIdentifier   = "auth:identifier"

	// Tokens within this window of their real expiry are treated as already
	// expired, so a request never races an imminent expiry.
	defaultSafetyWindow = 5 * time.Minute

	// How long a decoded expiry verdict may be reused before re-decoding.
	defaultCacheTTL = 30 * time.Second
)

// ErrRefreshRejected must be returned by a Refresher when the backend answers
// 401/403: the refresh token itself is dead and the pair must be cleared.
var ErrRefreshRejected = errors.New("refresh token rejected")

// Refresher exchanges a refresh token for a new access token. The production
// implementation is api.Client.RefreshToken.
type Refresher func(ctx context.Context, refreshToken string) (string, error)

type expiryEntry struct {
	expired    bool
	realExpiry time.Time
	cachedAt   time.Time
}

// TokenStore holds the tab-wide token pair. All reads and writes go through
// it; refresh is serialized so that any number of concurrent ValidToken
// callers produce at most one refresh request on the wire.
type TokenStore struct {
	mu          sync.RWMutex
	pair        domain.TokenPair
	identifier  string
	expiryCache map[string]expiryEntry

	safetyWindow time.Duration
	cacheTTL     time.Duration

	flight   singleflight.Group
	refresh  Refresher
	store    kv.Store
	onLogout func()

	now func() time.Time
}

type Option func(*TokenStore)

func WithSafetyWindow(d time.Duration) Option { return func(s *TokenStore) { s.safetyWindow = d } }
func WithCacheTTL(d time.Duration) Option     { return func(s *TokenStore) { s.cacheTTL = d } }
func WithClock(now func() time.Time) Option   { return func(s *TokenStore) { s.now = now } }

// WithLogoutHook registers the hard-logout signal: called after the pair has
// been cleared because refresh was rejected or retry recovery failed.
func WithLogoutHook(fn func()) Option { return func(s *TokenStore) { s.onLogout = fn } }

// NewTokenStore rehydrates any persisted pair from store. A persistence read
// failure only means starting logged out.
func NewTokenStore(store kv.Store, refresh Refresher, opts ...Option) *TokenStore {
	s := &TokenStore{
		expiryCache:  make(map[string]expiryEntry),
		safetyWindow: defaultSafetyWindow,
		cacheTTL:     defaultCacheTTL,
		refresh:      refresh,
		store:        store,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	ctx := context.Background()
	if access, ok, err := store.Get(ctx, keyAccessToken); err == nil && ok {
		s.pair.Access = access
	}
	if refreshTok, ok, err := store.Get(ctx, keyRefreshToken); err == nil && ok {
		s.pair.Refresh = refreshTok
	}
	if ident, ok, err := store.Get(ctx, keyIdentifier); err == nil && ok {
		s.identifier = ident
	}
	return s
}

// SetPair installs a freshly issued pair (login) and persists it.
func (s *TokenStore) SetPair(ctx context.Context, pair domain.TokenPair, identifier string) {
	s.mu.Lock()
	s.pair = pair
	s.identifier = identifier
	s.expiryCache = make(map[string]expiryEntry)
	s.mu.Unlock()

	s.persist(ctx, pair, identifier)
}

// Pair returns a snapshot of the current pair.
func (s *TokenStore) Pair() domain.TokenPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair
}

func (s *TokenStore) Identifier() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identifier
}

// IsExpired reports whether token should be treated as expired. Any decode
// failure counts as expired. Verdicts are cached per token for cacheTTL,
// except that a cached "still valid" is abandoned as soon as the wall clock
// passes the token's real expiry. The whole token is the cache key: rotated
// tokens from one backend share their header, so any shorter prefix would
// let one token's verdict answer for another.
func (s *TokenStore) IsExpired(token string) bool {
	if token == "" {
		return true
	}
	now := s.now()

	s.mu.RLock()
	entry, ok := s.expiryCache[token]
	s.mu.RUnlock()
	if ok && now.Sub(entry.cachedAt) < s.cacheTTL {
		if entry.expired || now.Before(entry.realExpiry) {
			return entry.expired
		}
		// Cached as valid but the real expiry has passed: drop the entry.
	}

	expiry, err := tokenExpiry(token)
	var verdict expiryEntry
	if err != nil {
		verdict = expiryEntry{expired: true, cachedAt: now}
	} else {
		verdict = expiryEntry{
			expired:    !now.Add(s.safetyWindow).Before(expiry),
			realExpiry: expiry,
			cachedAt:   now,
		}
	}

	s.mu.Lock()
	s.expiryCache[token] = verdict
	s.mu.Unlock()
	return verdict.expired
}

// ValidToken returns a usable access token, refreshing first if the current
// one is expired. Concurrent callers while a refresh is in flight all wait on
// that same flight; the flight slot is released (success or failure) before
// any new refresh can start.
func (s *TokenStore) ValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	access := s.pair.Access
	s.mu.RUnlock()

	if access != "" && !s.IsExpired(access) {
		return access, nil
	}
	return s.Refresh(ctx)
}

// Refresh rotates the access token using the stored refresh token. A
// rejected refresh (401/403 upstream) clears the pair and fires the logout
// hook; a transport failure leaves the pair intact so a later call can retry.
func (s *TokenStore) Refresh(ctx context.Context) (string, error) {
	token, err, _ := s.flight.Do("refresh", func() (interface{}, error) {
		s.mu.RLock()
		refreshTok := s.pair.Refresh
		s.mu.RUnlock()

		if refreshTok == "" {
			return "", domain.ErrNotAuthenticated
		}

		access, err := s.refresh(ctx, refreshTok)
		if err != nil {
			if errors.Is(err, ErrRefreshRejected) {
				log.Printf("[AUTH] Refresh rejected, clearing session: %v", err)
				s.Logout(context.Background())
				return "", domain.ErrSessionExpired
			}
			log.Printf("[AUTH] Refresh failed (will retry later): %v", err)
			return "", err
		}

		s.mu.Lock()
		s.pair.Access = access
		// Reset verdicts alongside the rotation: the retired token's
		// "expired" entry must never answer for the new one.
		s.expiryCache = make(map[string]expiryEntry)
		pair := s.pair
		identifier := s.identifier
		s.mu.Unlock()

		s.persist(ctx, pair, identifier)
		return access, nil
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

// Logout clears the pair and the expiry cache atomically, then removes the
// persisted copies. The logout hook fires once the state is already clean so
// no stale cache entry can report a cleared token as valid.
func (s *TokenStore) Logout(ctx context.Context) {
	s.mu.Lock()
	s.pair = domain.TokenPair{}
	s.identifier = ""
	s.expiryCache = make(map[string]expiryEntry)
	hook := s.onLogout
	s.mu.Unlock()

	if err := s.store.Del(ctx, keyAccessToken, keyRefreshToken, keyIdentifier); err != nil {
		log.Printf("[AUTH] Warning: failed to clear persisted tokens: %v", err)
	}
	if hook != nil {
		hook()
	}
}

func (s *TokenStore) persist(ctx context.Context, pair domain.TokenPair, identifier string) {
	if err := s.store.Set(ctx, keyAccessToken, pair.Access); err != nil {
		log.Printf("[AUTH] Warning: failed to persist access token: %v", err)
	}
	if err := s.store.Set(ctx, keyRefreshToken, pair.Refresh); err != nil {
		log.Printf("[AUTH] Warning: failed to persist refresh token: %v", err)
	}
	if err := s.store.Set(ctx, keyIdentifier, identifier); err != nil {
		log.Printf("[AUTH] Warning: failed to persist identifier: %v", err)
	}
}
