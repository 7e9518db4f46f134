// Package metrics exposes Prometheus counters for the session lifecycle.
// A nil *SessionMetrics is valid and records nothing.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Login outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeFailed      = "failed"
	OutcomeRateLimited = "rate_limited"
)

// Options controls construction of the session collectors.
type Options struct {
	Registerer prometheus.Registerer
	Namespace  string
	Subsystem  string
}

type SessionMetrics struct {
	logins   *prometheus.CounterVec
	failOpen prometheus.Counter
	expiries prometheus.Counter
	logouts  prometheus.Counter
}

// New constructs collectors and registers them with the supplied registerer.
// Collectors that are already registered are reused.
func New(opts Options) (*SessionMetrics, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "socguard"
	}

	subsystem := opts.Subsystem
	if subsystem == "" {
		subsystem = "auth"
	}

	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	logins, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "login_attempts_total",
		Help:      "Login attempts partitioned by outcome.",
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}

	failOpen, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limit_fail_open_total",
		Help:      "Login attempts allowed because the rate-limit state could not be read.",
	}))
	if err != nil {
		return nil, err
	}

	expiries, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "session_expiries_total",
		Help:      "Sessions ended by the idle timeout.",
	}))
	if err != nil {
		return nil, err
	}

	logouts, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "logouts_total",
		Help:      "Logouts, including those triggered by session expiry.",
	}))
	if err != nil {
		return nil, err
	}

	return &SessionMetrics{logins: logins, failOpen: failOpen, expiries: expiries, logouts: logouts}, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return c, fmt.Errorf("register collector: %w", err)
		}
		existing, ok := already.ExistingCollector.(T)
		if !ok {
			return c, fmt.Errorf("existing collector has wrong type %T", already.ExistingCollector)
		}
		return existing, nil
	}
	return c, nil
}

func (m *SessionMetrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *SessionMetrics) RateLimitFailOpen() {
	if m == nil {
		return
	}
	m.failOpen.Inc()
}

func (m *SessionMetrics) SessionExpired() {
	if m == nil {
		return
	}
	m.expiries.Inc()
}

func (m *SessionMetrics) Logout() {
	if m == nil {
		return
	}
	m.logouts.Inc()
}
