// Package activity implements idle-session detection.
//
// A Monitor keeps the shared session.activity record fresh while input
// events arrive and reports expiry from a periodic check. Each Init starts a
// watch that moves from Active to Expired at most once; the only way back to
// Active is another Init. Because the record is shared, activity in any
// process using the same store keeps every process's session alive.
package activity

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/socguard/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/socguard/internal/common"
	"github.com/dmitrijs2005/socguard/internal/logging"
	"github.com/google/uuid"
)

type State int32

const (
	StateStopped State = iota
	StateActive
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	default:
		return "stopped"
	}
}

// Ticker is the part of time.Ticker a Monitor needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop() { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

type record struct {
	LastActiveAt int64 `json:"lastActiveAt"`
	ExpiresAt    int64 `json:"expiresAt"`
}

type watch struct {
	id          string
	stop        chan struct{}
	once        sync.Once
	unsubscribe func()
	state       atomic.Int32
}

func (w *watch) State() State { return State(w.state.Load()) }

// expire performs the Active to Expired transition. It reports false if the
// watch was not active.
func (w *watch) expire() bool {
	return w.state.CompareAndSwap(int32(StateActive), int32(StateExpired))
}

type Monitor struct {
	repo   metadata.Repository
	source Source

	idle      time.Duration
	interval  time.Duration
	now       func() time.Time
	newTicker func(time.Duration) Ticker
	log       logging.Logger

	mu    sync.Mutex
	watch *watch
}

type Option func(*Monitor)

func WithIdleTimeout(d time.Duration) Option {
	return func(m *Monitor) { m.idle = d }
}

func WithCheckInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithTicker replaces the ticker constructor used for the periodic check.
func WithTicker(f func(time.Duration) Ticker) Option {
	return func(m *Monitor) { m.newTicker = f }
}

func WithLogger(l logging.Logger) Option {
	return func(m *Monitor) { m.log = l }
}

// New returns a Monitor storing activity in repo and listening to source.
// A nil source means only Touch refreshes activity.
func New(repo metadata.Repository, source Source, opts ...Option) *Monitor {
	m := &Monitor{
		repo:      repo,
		source:    source,
		idle:      common.DefaultIdleTimeout,
		interval:  common.DefaultSessionCheckInterval,
		now:       time.Now,
		newTicker: newTimeTicker,
		log:       logging.NewNop(),
	}
	for _, o := range opts {
		o(m)
	}
	m.log = m.log.With("component", "activity")
	return m
}

// Init refreshes activity and starts a watch. onExpired is called on the
// watch goroutine, at most once, when a periodic check finds the session
// idle. A running watch is disposed first.
//
// The returned disposer stops the check and detaches the listener. It never
// blocks and may be called any number of times, including from onExpired.
func (m *Monitor) Init(ctx context.Context, onExpired func()) (dispose func()) {
	ctx = context.WithoutCancel(ctx)

	m.mu.Lock()
	prev := m.watch
	m.mu.Unlock()
	if prev != nil {
		m.dispose(prev)
	}

	m.Touch(ctx)

	w := &watch{id: uuid.NewString(), stop: make(chan struct{}), unsubscribe: func() {}}
	w.state.Store(int32(StateActive))

	if m.source != nil {
		w.unsubscribe = m.source.Subscribe(func(kind EventKind) {
			if !kind.Qualifying() || w.State() != StateActive {
				return
			}
			m.log.Debug(ctx, "activity", "event", kind.String(), "watch", w.id)
			m.Touch(ctx)
		})
	}

	m.mu.Lock()
	m.watch = w
	m.mu.Unlock()

	ticker := m.newTicker(m.interval)
	go m.run(ctx, w, ticker, onExpired)

	m.log.Info(ctx, "session watch started", "watch", w.id, "idle_timeout", m.idle.String())
	return func() { m.dispose(w) }
}

func (m *Monitor) run(ctx context.Context, w *watch, ticker Ticker, onExpired func()) {
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C():
			select {
			case <-w.stop:
				return
			default:
			}
			if w.State() != StateActive {
				continue
			}
			if !m.IsExpired(ctx) {
				continue
			}
			if w.expire() {
				m.log.Info(ctx, "session expired", "watch", w.id)
				if onExpired != nil {
					onExpired()
				}
			}
		}
	}
}

// dispose moves an active watch to stopped so a check already in flight
// cannot expire it.
func (m *Monitor) dispose(w *watch) {
	w.state.CompareAndSwap(int32(StateActive), int32(StateStopped))
	w.once.Do(func() {
		close(w.stop)
		w.unsubscribe()
	})

	m.mu.Lock()
	if m.watch == w {
		m.watch = nil
	}
	m.mu.Unlock()
}

// State reports the state of the current watch.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watch == nil {
		return StateStopped
	}
	return m.watch.State()
}

// Touch records activity now and pushes the expiry one idle timeout ahead.
func (m *Monitor) Touch(ctx context.Context) {
	now := m.now()
	data, err := json.Marshal(record{
		LastActiveAt: now.UnixMilli(),
		ExpiresAt:    now.Add(m.idle).UnixMilli(),
	})
	if err != nil {
		m.log.Error(ctx, "failed to encode activity record", "error", err)
		return
	}
	if err := m.repo.Set(ctx, common.SessionActivityKey, data); err != nil {
		m.log.Error(ctx, "failed to persist activity record", "error", err)
	}
}

// IsExpired reports whether the activity record is missing, unreadable or
// past its expiry. An unparsable record is purged.
func (m *Monitor) IsExpired(ctx context.Context) bool {
	data, err := m.repo.Get(ctx, common.SessionActivityKey)
	if err != nil {
		m.log.Error(ctx, "failed to read activity record", "error", err)
		return true
	}
	if data == nil {
		return true
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil || rec.ExpiresAt == 0 {
		m.log.Warn(ctx, "corrupted activity record, purging", "error", err)
		m.Clear(ctx)
		return true
	}
	return m.now().UnixMilli() > rec.ExpiresAt
}

// Clear removes the activity record.
func (m *Monitor) Clear(ctx context.Context) {
	if err := m.repo.Delete(ctx, common.SessionActivityKey); err != nil {
		m.log.Error(ctx, "failed to delete activity record", "error", err)
	}
}
