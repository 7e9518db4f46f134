// Package ratelimit throttles login attempts per identifier.
//
// Records live in the shared metadata store under ratelimit.<identifier>.
// The limiter is a deterrent, not a security boundary: whenever its own
// state cannot be read it lets the attempt through.
package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/socguard/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/socguard/internal/common"
	"github.com/dmitrijs2005/socguard/internal/logging"
)

var errCorruptedRecord = errors.New("corrupted rate-limit record")

type record struct {
	AttemptCount int    `json:"attemptCount"`
	WindowStart  int64  `json:"windowStart"`
	BlockedUntil *int64 `json:"blockedUntil,omitempty"`
}

// Decision is the outcome of CheckAndRecord. WaitSeconds is zero when no
// wait applies. FailedOpen reports that the limiter could not read its state
// and allowed the attempt by default.
type Decision struct {
	Allowed     bool
	WaitSeconds int64
	FailedOpen  bool
}

// Lockout describes an identifier that is currently blocked.
type Lockout struct {
	Identifier  string
	Until       time.Time
	WaitSeconds int64
}

type Limiter struct {
	mu sync.Mutex

	repo        metadata.Repository
	window      time.Duration
	maxAttempts int
	block       time.Duration
	atomic      bool

	now func() time.Time
	log logging.Logger
}

type Option func(*Limiter)

func WithWindow(d time.Duration) Option {
	return func(l *Limiter) { l.window = d }
}

func WithMaxAttempts(n int) Option {
	return func(l *Limiter) { l.maxAttempts = n }
}

func WithBlockDuration(d time.Duration) Option {
	return func(l *Limiter) { l.block = d }
}

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func WithLogger(log logging.Logger) Option {
	return func(l *Limiter) { l.log = log }
}

// WithAtomicUpdates makes CheckAndRecord use compare-and-swap when the
// repository implements metadata.Updater, so concurrent processes cannot
// lose each other's increments. Without it the last write wins.
func WithAtomicUpdates() Option {
	return func(l *Limiter) { l.atomic = true }
}

func New(repo metadata.Repository, opts ...Option) *Limiter {
	l := &Limiter{
		repo:        repo,
		window:      common.DefaultRateLimitWindow,
		maxAttempts: common.DefaultRateLimitMaxAttempts,
		block:       common.DefaultRateLimitBlock,
		now:         time.Now,
		log:         logging.NewNop(),
	}
	for _, o := range opts {
		o(l)
	}
	l.log = l.log.With("component", "ratelimit")
	return l
}

// CheckAndRecord decides whether identifier may attempt a login now and
// records the attempt.
func (l *Limiter) CheckAndRecord(ctx context.Context, identifier string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UnixMilli()
	key := common.RateLimitKey(identifier)

	if l.atomic {
		if u, ok := l.repo.(metadata.Updater); ok {
			return l.checkAtomic(ctx, u, key, now)
		}
		l.log.Warn(ctx, "repository does not support atomic updates, falling back to last-write-wins")
	}

	data, err := l.repo.Get(ctx, key)
	if err != nil {
		l.log.Error(ctx, "failed to read rate-limit record, allowing attempt", "key", key, "error", err)
		return Decision{Allowed: true, FailedOpen: true}
	}

	rec, err := decode(data)
	if err != nil {
		l.log.Warn(ctx, "corrupted rate-limit record, purging and allowing attempt", "key", key, "error", err)
		if err := l.repo.Delete(ctx, key); err != nil {
			l.log.Error(ctx, "failed to purge rate-limit record", "key", key, "error", err)
		}
		return Decision{Allowed: true, FailedOpen: true}
	}

	next, d := l.evaluate(rec, now)
	if next == nil {
		return d
	}

	out, err := json.Marshal(next)
	if err != nil {
		l.log.Error(ctx, "failed to encode rate-limit record", "key", key, "error", err)
		return d
	}
	if err := l.repo.Set(ctx, key, out); err != nil {
		l.log.Error(ctx, "failed to persist rate-limit record", "key", key, "error", err)
	}
	return d
}

func (l *Limiter) checkAtomic(ctx context.Context, u metadata.Updater, key string, now int64) Decision {
	var (
		d       Decision
		corrupt bool
	)
	err := u.Update(ctx, key, func(current []byte) ([]byte, error) {
		corrupt = false
		rec, err := decode(current)
		if err != nil {
			corrupt = true
			return nil, nil
		}
		var next *record
		next, d = l.evaluate(rec, now)
		if next == nil {
			return current, nil
		}
		return json.Marshal(next)
	})
	if err != nil {
		l.log.Error(ctx, "failed to update rate-limit record, allowing attempt", "key", key, "error", err)
		return Decision{Allowed: true, FailedOpen: true}
	}
	if corrupt {
		l.log.Warn(ctx, "corrupted rate-limit record purged, allowing attempt", "key", key)
		return Decision{Allowed: true, FailedOpen: true}
	}
	return d
}

// evaluate applies one attempt at time now to rec. A nil record result means
// nothing is written.
func (l *Limiter) evaluate(rec *record, now int64) (*record, Decision) {
	if rec == nil {
		return &record{AttemptCount: 1, WindowStart: now}, Decision{Allowed: true}
	}

	if rec.BlockedUntil != nil && now < *rec.BlockedUntil {
		return nil, Decision{Allowed: false, WaitSeconds: ceilSeconds(*rec.BlockedUntil - now)}
	}

	if now-rec.WindowStart > l.window.Milliseconds() {
		return &record{AttemptCount: 1, WindowStart: now}, Decision{Allowed: true}
	}

	if rec.AttemptCount >= l.maxAttempts {
		until := now + l.block.Milliseconds()
		next := *rec
		next.BlockedUntil = &until
		return &next, Decision{Allowed: false, WaitSeconds: l.block.Milliseconds() / 1000}
	}

	next := *rec
	next.AttemptCount++
	return &next, Decision{Allowed: true}
}

// Reset deletes the record of identifier.
func (l *Limiter) Reset(ctx context.Context, identifier string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.repo.Delete(ctx, common.RateLimitKey(identifier)); err != nil {
		l.log.Error(ctx, "failed to reset rate-limit record", "identifier", identifier, "error", err)
	}
}

// Blocked lists identifiers whose block has not yet passed, ordered by
// identifier. Unreadable records are skipped.
func (l *Limiter) Blocked(ctx context.Context) []Lockout {
	l.mu.Lock()
	defer l.mu.Unlock()

	all, err := l.repo.List(ctx, common.RateLimitKeyPrefix)
	if err != nil {
		l.log.Error(ctx, "failed to list rate-limit records", "error", err)
		return nil
	}

	now := l.now().UnixMilli()
	var out []Lockout
	for key, data := range all {
		rec, err := decode(data)
		if err != nil || rec == nil || rec.BlockedUntil == nil || *rec.BlockedUntil <= now {
			continue
		}
		out = append(out, Lockout{
			Identifier:  strings.TrimPrefix(key, common.RateLimitKeyPrefix),
			Until:       time.UnixMilli(*rec.BlockedUntil),
			WaitSeconds: ceilSeconds(*rec.BlockedUntil - now),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out
}

func decode(data []byte) (*record, error) {
	if data == nil {
		return nil, nil
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	if rec.AttemptCount < 1 || rec.WindowStart <= 0 {
		return nil, errCorruptedRecord
	}
	return &rec, nil
}

func ceilSeconds(ms int64) int64 {
	return (ms + 999) / 1000
}
