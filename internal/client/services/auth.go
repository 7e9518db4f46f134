// Package services contains application services for the socguard client.
// This file defines the auth coordinator: the single owner of "who is logged
// in", composing the token store, the login rate limiter and the idle
// session monitor around an AuthBackend.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/socguard/internal/client/activity"
	"github.com/dmitrijs2005/socguard/internal/client/client"
	"github.com/dmitrijs2005/socguard/internal/client/metrics"
	"github.com/dmitrijs2005/socguard/internal/client/models"
	"github.com/dmitrijs2005/socguard/internal/client/ratelimit"
	"github.com/dmitrijs2005/socguard/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/socguard/internal/common"
	"github.com/dmitrijs2005/socguard/internal/logging"
)

// ErrClosed is returned by Login when the coordinator was closed while the
// backend call was in flight. The result is discarded.
var ErrClosed = errors.New("auth coordinator closed")

// Route is a navigation target signalled after login and logout.
type Route string

const (
	RouteDashboard Route = "/dashboard"
	RouteLogin     Route = "/login"
)

// Navigator receives navigation signals. It is called without internal
// locks held and may call back into the coordinator.
type Navigator func(Route)

// RateLimitedError is returned by Login when the identifier is locked out.
type RateLimitedError struct {
	WaitSeconds int64
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s, retry in %ds", common.ErrRateLimited, e.WaitSeconds)
}

func (e *RateLimitedError) Unwrap() error { return common.ErrRateLimited }

type TokenStore interface {
	Save(ctx context.Context, token string)
	IsAuthenticated(ctx context.Context) bool
	Identifier(ctx context.Context) (string, bool)
	RemainingSeconds(ctx context.Context) (int64, bool)
	Clear(ctx context.Context)
}

type RateLimiter interface {
	CheckAndRecord(ctx context.Context, identifier string) ratelimit.Decision
	Reset(ctx context.Context, identifier string)
	Blocked(ctx context.Context) []ratelimit.Lockout
}

type SessionMonitor interface {
	Init(ctx context.Context, onExpired func()) (dispose func())
	Clear(ctx context.Context)
	State() activity.State
}

// State is what the rest of the application may observe.
type State struct {
	User            *models.User
	IsLoading       bool
	IsAuthenticated bool
}

// Status extends State with diagnostics for the CLI.
type Status struct {
	State
	TokenIdentifier string
	TokenRemaining  int64
	HasToken        bool
	MonitorState    activity.State
	Lockouts        []ratelimit.Lockout
}

type Deps struct {
	Backend  client.AuthBackend
	Repo     metadata.Repository
	Tokens   TokenStore
	Limiter  RateLimiter
	Monitor  SessionMonitor
	Navigate Navigator
	Metrics  *metrics.SessionMetrics
	Logger   logging.Logger
}

type AuthCoordinator struct {
	backend  client.AuthBackend
	repo     metadata.Repository
	tokens   TokenStore
	limiter  RateLimiter
	monitor  SessionMonitor
	navigate Navigator
	metrics  *metrics.SessionMetrics
	log      logging.Logger

	mu      sync.Mutex
	user    *models.User
	loading int
	dispose func()
	closed  bool
}

// NewAuthCoordinator builds the coordinator and restores a persisted session.
func NewAuthCoordinator(ctx context.Context, d Deps) *AuthCoordinator {
	a := &AuthCoordinator{
		backend:  d.Backend,
		repo:     d.Repo,
		tokens:   d.Tokens,
		limiter:  d.Limiter,
		monitor:  d.Monitor,
		navigate: d.Navigate,
		metrics:  d.Metrics,
		log:      d.Logger,
	}
	if a.navigate == nil {
		a.navigate = func(Route) {}
	}
	if a.log == nil {
		a.log = logging.NewNop()
	}
	a.log = a.log.With("component", "auth")

	a.bootstrap(ctx)
	return a
}

func (a *AuthCoordinator) beginLoading() {
	a.mu.Lock()
	a.loading++
	a.mu.Unlock()
}

func (a *AuthCoordinator) endLoading() {
	a.mu.Lock()
	a.loading--
	a.mu.Unlock()
}

func (a *AuthCoordinator) bootstrap(ctx context.Context) {
	a.beginLoading()
	defer a.endLoading()

	if !a.tokens.IsAuthenticated(ctx) {
		a.log.Debug(ctx, "no valid credential, starting unauthenticated")
		return
	}

	data, err := a.repo.Get(ctx, common.ProfileKey)
	if err != nil {
		a.log.Error(ctx, "failed to read cached profile, starting unauthenticated", "error", err)
		return
	}
	if data == nil {
		a.log.Warn(ctx, "credential present without cached profile, starting unauthenticated")
		return
	}

	user, err := models.ParseUser(data)
	if err != nil {
		a.log.Warn(ctx, "corrupted cached profile, purging", "error", err)
		if err := a.repo.Delete(ctx, common.ProfileKey); err != nil {
			a.log.Error(ctx, "failed to purge cached profile", "error", err)
		}
		return
	}

	a.mu.Lock()
	a.user = &user
	a.startMonitorLocked(ctx)
	a.mu.Unlock()

	a.log.Info(ctx, "session restored", "identifier", user.Identifier)
}

// startMonitorLocked must be called with a.mu held.
func (a *AuthCoordinator) startMonitorLocked(ctx context.Context) {
	if a.dispose != nil {
		a.dispose()
	}
	a.dispose = a.monitor.Init(ctx, a.onSessionExpired)
}

func (a *AuthCoordinator) onSessionExpired() {
	ctx := context.Background()
	a.log.Info(ctx, "session idle timeout reached, logging out")
	a.metrics.SessionExpired()
	a.Logout(ctx)
}

// Login authenticates identifier against the backend. Backend failures are
// reported as common.ErrAuthenticationFailed; the detail is only logged.
// A locked-out identifier yields a *RateLimitedError.
func (a *AuthCoordinator) Login(ctx context.Context, identifier, secret string) error {
	a.beginLoading()
	defer a.endLoading()

	d := a.limiter.CheckAndRecord(ctx, identifier)
	if d.FailedOpen {
		a.metrics.RateLimitFailOpen()
	}
	if !d.Allowed {
		a.log.Warn(ctx, "login rate limited", "identifier", identifier, "wait_seconds", d.WaitSeconds)
		a.metrics.Login(metrics.OutcomeRateLimited)
		return &RateLimitedError{WaitSeconds: d.WaitSeconds}
	}

	res, err := a.backend.Login(ctx, identifier, secret)
	if err == nil && res == nil {
		err = client.ErrInvalidResponse
	}
	if err == nil {
		err = res.Profile.Validate()
	}
	if err != nil {
		a.log.Warn(ctx, "login failed", "identifier", identifier, "error", err)
		a.metrics.Login(metrics.OutcomeFailed)
		return common.ErrAuthenticationFailed
	}

	if a.isClosed() {
		a.log.Info(ctx, "coordinator closed during login, discarding result", "identifier", identifier)
		return ErrClosed
	}

	a.tokens.Save(ctx, res.Token)
	a.saveProfile(ctx, res.Profile)
	a.limiter.Reset(ctx, identifier)

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	user := res.Profile
	a.user = &user
	a.startMonitorLocked(ctx)
	a.mu.Unlock()

	a.metrics.Login(metrics.OutcomeSuccess)
	a.log.Info(ctx, "login succeeded", "identifier", identifier, "role", user.Role)
	a.navigate(RouteDashboard)
	return nil
}

func (a *AuthCoordinator) saveProfile(ctx context.Context, u models.User) {
	data, err := json.Marshal(u)
	if err != nil {
		a.log.Error(ctx, "failed to encode profile", "error", err)
		return
	}
	if err := a.repo.Set(ctx, common.ProfileKey, data); err != nil {
		a.log.Error(ctx, "failed to persist profile", "error", err)
	}
}

// Logout ends the session: it stops the idle watch, removes the activity
// record, the credential, the profile and cookies, and signals navigation to
// the login route. Safe to call when already logged out.
func (a *AuthCoordinator) Logout(ctx context.Context) {
	a.mu.Lock()
	dispose := a.dispose
	a.dispose = nil
	a.mu.Unlock()

	if dispose != nil {
		dispose()
	}
	a.monitor.Clear(ctx)
	a.tokens.Clear(ctx)

	a.mu.Lock()
	hadUser := a.user != nil
	a.user = nil
	closed := a.closed
	a.mu.Unlock()

	if hadUser {
		a.metrics.Logout()
		a.log.Info(ctx, "logged out")
	}
	if !closed {
		a.navigate(RouteLogin)
	}
}

// State returns a snapshot. IsAuthenticated requires both a user and a live
// credential.
func (a *AuthCoordinator) State(ctx context.Context) State {
	a.mu.Lock()
	var user *models.User
	if a.user != nil {
		u := *a.user
		user = &u
	}
	loading := a.loading > 0
	a.mu.Unlock()

	return State{
		User:            user,
		IsLoading:       loading,
		IsAuthenticated: user != nil && a.tokens.IsAuthenticated(ctx),
	}
}

func (a *AuthCoordinator) Status(ctx context.Context) Status {
	st := Status{State: a.State(ctx), MonitorState: a.monitor.State()}
	st.TokenRemaining, st.HasToken = a.tokens.RemainingSeconds(ctx)
	st.TokenIdentifier, _ = a.tokens.Identifier(ctx)
	st.Lockouts = a.limiter.Blocked(ctx)
	return st
}

// Lockouts lists identifiers currently blocked by the rate limiter.
func (a *AuthCoordinator) Lockouts(ctx context.Context) []ratelimit.Lockout {
	return a.limiter.Blocked(ctx)
}

// WipeLocalData logs out and removes every record from the local store,
// rate-limit records included.
func (a *AuthCoordinator) WipeLocalData(ctx context.Context) error {
	a.Logout(ctx)
	if err := a.repo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to wipe local data: %w", err)
	}
	return nil
}

// Ping proxies a liveness check to the backend.
func (a *AuthCoordinator) Ping(ctx context.Context) error {
	return a.backend.Ping(ctx)
}

// Close stops the idle watch and detaches the coordinator. Persisted state
// is left in place so the next start can restore the session. Results of
// logins still in flight are discarded.
func (a *AuthCoordinator) Close() {
	a.mu.Lock()
	a.closed = true
	dispose := a.dispose
	a.dispose = nil
	a.mu.Unlock()

	if dispose != nil {
		dispose()
	}
}

func (a *AuthCoordinator) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}
