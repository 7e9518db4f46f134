// Package tokens persists the access credential and decodes the identifier
// embedded in it.
//
// The credential expiry is computed locally and is advisory: it keeps stale
// tokens away from callers, it does not revoke anything server-side. Read
// paths never return errors. Storage failures are logged and treated as
// "no credential".
package tokens

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dmitrijs2005/socguard/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/socguard/internal/common"
	"github.com/dmitrijs2005/socguard/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// CookieExpirer expires every session cookie it holds.
type CookieExpirer interface {
	ExpireAll() int
}

type credential struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

type Store struct {
	mu sync.Mutex

	repo      metadata.Repository
	secondary metadata.Repository
	cookies   CookieExpirer

	ttl time.Duration
	now func() time.Time
	log logging.Logger
}

type Option func(*Store)

func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithSecondary mirrors Clear into a second repository.
func WithSecondary(r metadata.Repository) Option {
	return func(s *Store) { s.secondary = r }
}

// WithCookies makes Clear expire every cookie held by c.
func WithCookies(c CookieExpirer) Option {
	return func(s *Store) { s.cookies = c }
}

func New(repo metadata.Repository, opts ...Option) *Store {
	s := &Store{
		repo: repo,
		ttl:  common.DefaultTokenTTL,
		now:  time.Now,
		log:  logging.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("component", "tokens")
	return s
}

// Save stores token with an expiry of now + TTL. Write failures are logged.
func (s *Store) Save(ctx context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := credential{Token: token, ExpiresAt: s.now().Add(s.ttl).UnixMilli()}
	data, err := json.Marshal(c)
	if err != nil {
		s.log.Error(ctx, "failed to encode credential", "error", err)
		return
	}
	if err := s.repo.Set(ctx, common.CredentialKey, data); err != nil {
		s.log.Error(ctx, "failed to persist credential", "error", err)
	}
}

// load returns the live credential. Expired or unreadable records are purged.
// Must be called with s.mu held.
func (s *Store) load(ctx context.Context) (credential, bool) {
	data, err := s.repo.Get(ctx, common.CredentialKey)
	if err != nil {
		s.log.Error(ctx, "failed to read credential", "error", err)
		return credential{}, false
	}
	if data == nil {
		return credential{}, false
	}

	var c credential
	if err := json.Unmarshal(data, &c); err != nil || c.Token == "" {
		s.log.Warn(ctx, "corrupted credential record, purging", "error", err)
		s.clearLocked(ctx)
		return credential{}, false
	}

	if c.ExpiresAt <= s.now().UnixMilli() {
		s.log.Info(ctx, "credential expired, purging")
		s.clearLocked(ctx)
		return credential{}, false
	}
	return c, true
}

// Get returns the stored token if it has not expired.
func (s *Store) Get(ctx context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.load(ctx)
	return c.Token, ok
}

func (s *Store) IsAuthenticated(ctx context.Context) bool {
	_, ok := s.Get(ctx)
	return ok
}

// RemainingSeconds returns the whole seconds left before the credential
// expires.
func (s *Store) RemainingSeconds(ctx context.Context) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.load(ctx)
	if !ok {
		return 0, false
	}
	return max(0, (c.ExpiresAt-s.now().UnixMilli())/1000), true
}

// Identifier decodes the token without verifying its signature and returns
// the string claim payload.identifier.
func (s *Store) Identifier(ctx context.Context) (string, bool) {
	token, ok := s.Get(ctx)
	if !ok {
		return "", false
	}

	id, err := identifierFromToken(token)
	if err != nil {
		s.log.Warn(ctx, "failed to decode identifier from token", "error", err)
		return "", false
	}
	return id, true
}

func identifierFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", err
	}

	payload, ok := claims["payload"].(map[string]any)
	if !ok {
		return "", common.ErrInvalidToken
	}
	id, ok := payload["identifier"].(string)
	if !ok || id == "" {
		return "", common.ErrInvalidToken
	}
	return id, nil
}

// Clear removes the credential and the cached profile, expires cookies and
// repeats the removal on the secondary repository. Safe to call repeatedly.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(ctx)
}

func (s *Store) clearLocked(ctx context.Context) {
	if err := s.repo.Delete(ctx, common.CredentialKey, common.ProfileKey); err != nil {
		s.log.Error(ctx, "failed to delete credential", "error", err)
	}

	if s.cookies != nil {
		if n := s.cookies.ExpireAll(); n > 0 {
			s.log.Debug(ctx, "expired cookies", "count", n)
		}
	}

	if s.secondary != nil {
		if err := s.secondary.Delete(ctx, common.CredentialKey, common.ProfileKey); err != nil {
			s.log.Error(ctx, "failed to delete credential from secondary storage", "error", err)
		}
	}
}
