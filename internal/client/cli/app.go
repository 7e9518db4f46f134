package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/socguard/internal/client/activity"
	"github.com/dmitrijs2005/socguard/internal/client/config"
	"github.com/dmitrijs2005/socguard/internal/client/ratelimit"
	"github.com/dmitrijs2005/socguard/internal/client/services"
	"github.com/dmitrijs2005/socguard/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Coordinator is the slice of services.AuthCoordinator the CLI drives.
type Coordinator interface {
	Login(ctx context.Context, identifier, secret string) error
	Logout(ctx context.Context)
	State(ctx context.Context) services.State
	Status(ctx context.Context) services.Status
	Lockouts(ctx context.Context) []ratelimit.Lockout
	WipeLocalData(ctx context.Context) error
	Ping(ctx context.Context) error
	Close()
}

// Publisher receives interaction events; activity.Bus satisfies it.
type Publisher interface {
	Publish(kind activity.EventKind)
}

type App struct {
	config   *config.Config
	auth     Coordinator
	activity Publisher
	log      logging.Logger
	reader   *bufio.Reader
	out      io.Writer

	mu    sync.Mutex
	mode  Mode
	route services.Route
}

// NewApp builds an App reading from stdin. Attach must be called before Run.
func NewApp(c *config.Config, pub Publisher, log logging.Logger) *App {
	if log == nil {
		log = logging.NewNop()
	}
	return &App{
		config:   c,
		activity: pub,
		log:      log.With("component", "cli"),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
}

// Attach sets the coordinator and the starting route from its restored
// state. It is separate from NewApp because the coordinator takes
// App.Navigate as its navigator.
func (a *App) Attach(auth Coordinator) {
	route := services.RouteLogin
	if auth.State(context.Background()).IsAuthenticated {
		route = services.RouteDashboard
	}

	a.mu.Lock()
	a.auth = auth
	a.route = route
	a.mu.Unlock()
}

// Navigate records the route the coordinator asked for. The prompt shows
// it, so an idle expiry is visible on the next line without extra output.
func (a *App) Navigate(r services.Route) {
	a.mu.Lock()
	prev := a.route
	a.route = r
	a.mu.Unlock()

	if prev != r {
		a.log.Debug(context.Background(), "navigate", "from", string(prev), "to", string(r))
	}
}

func (a *App) currentRoute() services.Route {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.route
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(ctx, "connectivity changed", "mode", string(mode))
	}
}

func (a *App) currentMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) isLoggedIn() bool {
	return a.auth.State(context.Background()).IsAuthenticated
}

func (a *App) recordActivity() {
	if a.activity != nil {
		a.activity.Publish(activity.KeyDown)
	}
}

func (a *App) getStatus() string {
	var parts []string
	if r := a.currentRoute(); r != "" {
		parts = append(parts, strings.TrimPrefix(string(r), "/"))
	}
	if st := a.auth.State(context.Background()); st.User != nil {
		parts = append(parts, st.User.Identifier)
	}
	if m := a.currentMode(); m != "" {
		parts = append(parts, string(m))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Run starts the connectivity watcher and blocks in the REPL until the user
// exits or stdin closes. The coordinator is closed on return.
func (a *App) Run(ctx context.Context) {
	defer a.auth.Close()

	fmt.Fprintln(a.out, "Welcome to socguard (type 'help' for commands)")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

// StartOnlineStatusWatcher pings the backend every interval and flips Mode
// accordingly until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.auth.Ping(pctx)
			cancel()

			if err != nil {
				a.setMode(ctx, ModeOffline)
			} else {
				a.setMode(ctx, ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}
