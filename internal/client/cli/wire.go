package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/socguard/internal/client/activity"
	"github.com/dmitrijs2005/socguard/internal/client/client"
	"github.com/dmitrijs2005/socguard/internal/client/config"
	"github.com/dmitrijs2005/socguard/internal/client/cookies"
	"github.com/dmitrijs2005/socguard/internal/client/metrics"
	"github.com/dmitrijs2005/socguard/internal/client/ratelimit"
	"github.com/dmitrijs2005/socguard/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/socguard/internal/client/services"
	"github.com/dmitrijs2005/socguard/internal/client/tokens"
	"github.com/dmitrijs2005/socguard/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// Setup builds the App and everything behind it from cfg: the shared store,
// the backend client, the session components and, when configured, the
// metrics endpoint. The returned cleanup releases them in reverse order and
// must be called after App.Run returns.
func Setup(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if log == nil {
		log = logging.NewNop()
	}

	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn(context.Background(), "cleanup failed", "error", err)
			}
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeRepo)

	jar, err := cookies.New()
	if err != nil {
		return fail(err)
	}

	backend, err := openBackend(cfg, jar)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, backend.Close)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(metrics.Options{Registerer: reg})
	if err != nil {
		return fail(err)
	}
	if cfg.MetricsAddr != "" {
		stop, err := serveMetrics(cfg.MetricsAddr, reg, log)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, stop)
	}

	tokenOpts := []tokens.Option{
		tokens.WithTTL(cfg.TokenTTL),
		tokens.WithLogger(log),
		tokens.WithCookies(jar),
	}
	if cfg.StorageDriver != config.StorageMemory {
		// Per-process copy of the session, the counterpart of tab-scoped
		// storage next to the shared store.
		tokenOpts = append(tokenOpts, tokens.WithSecondary(metadata.NewMemoryRepository()))
	}
	store := tokens.New(repo, tokenOpts...)

	limiterOpts := []ratelimit.Option{
		ratelimit.WithWindow(cfg.RateLimitWindow),
		ratelimit.WithMaxAttempts(cfg.RateLimitMaxAttempts),
		ratelimit.WithBlockDuration(cfg.RateLimitBlock),
		ratelimit.WithLogger(log),
	}
	if cfg.AtomicRateLimit {
		limiterOpts = append(limiterOpts, ratelimit.WithAtomicUpdates())
	}
	limiter := ratelimit.New(repo, limiterOpts...)

	bus := activity.NewBus()
	monitor := activity.New(repo, bus,
		activity.WithIdleTimeout(cfg.IdleTimeout),
		activity.WithCheckInterval(cfg.SessionCheckInterval),
		activity.WithLogger(log),
	)

	app := NewApp(cfg, bus, log)
	coord := services.NewAuthCoordinator(ctx, services.Deps{
		Backend:  backend,
		Repo:     repo,
		Tokens:   store,
		Limiter:  limiter,
		Monitor:  monitor,
		Navigate: app.Navigate,
		Metrics:  m,
		Logger:   log,
	})
	app.Attach(coord)

	return app, cleanup, nil
}

func openRepository(ctx context.Context, cfg *config.Config) (metadata.Repository, func() error, error) {
	switch cfg.StorageDriver {
	case config.StorageSQLite:
		db, err := client.InitDatabase(ctx, cfg.StorageDSN)
		if err != nil {
			return nil, nil, err
		}
		return metadata.NewSQLiteRepository(db), db.Close, nil

	case config.StorageRedis:
		rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rc.Ping(ctx).Err(); err != nil {
			_ = rc.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
		}
		return metadata.NewRedisRepository(rc, cfg.RedisPrefix), rc.Close, nil

	case config.StorageMemory:
		return metadata.NewMemoryRepository(), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func openBackend(cfg *config.Config, jar http.CookieJar) (client.AuthBackend, error) {
	switch cfg.Backend {
	case config.BackendGRPC:
		c, err := client.NewGRPCClient(cfg.ServerEndpointAddr)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.BackendHTTP:
		return client.NewHTTPClient(cfg.BackendURL, jar), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func serveMetrics(addr string, g prometheus.Gatherer, log logging.Logger) (func() error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for metrics on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: metrics.Handler(g), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(context.Background(), "metrics server stopped", "error", err)
		}
	}()
	log.Info(context.Background(), "metrics endpoint listening", "addr", ln.Addr().String())

	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}
