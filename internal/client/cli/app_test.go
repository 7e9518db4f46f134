package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/socguard/internal/client/activity"
	"github.com/dmitrijs2005/socguard/internal/client/config"
	"github.com/dmitrijs2005/socguard/internal/client/models"
	"github.com/dmitrijs2005/socguard/internal/client/ratelimit"
	"github.com/dmitrijs2005/socguard/internal/client/services"
	"github.com/dmitrijs2005/socguard/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCoordinator struct {
	mu sync.Mutex

	state    services.State
	status   services.Status
	lockouts []ratelimit.Lockout
	loginErr error
	pingErr  error
	wipeErr  error

	LastIdentifier string
	LastSecret     string
	logouts        int
	wipes          int
	closed         bool
}

func (f *fakeCoordinator) Login(_ context.Context, identifier, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastIdentifier, f.LastSecret = identifier, secret
	if f.loginErr != nil {
		return f.loginErr
	}
	f.state = services.State{User: &models.User{Identifier: identifier, DisplayName: "Alice", Role: "analyst"}, IsAuthenticated: true}
	return nil
}
func (f *fakeCoordinator) Logout(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	f.state = services.State{}
}
func (f *fakeCoordinator) State(context.Context) services.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}
func (f *fakeCoordinator) Status(context.Context) services.Status { return f.status }
func (f *fakeCoordinator) Lockouts(context.Context) []ratelimit.Lockout {
	return f.lockouts
}
func (f *fakeCoordinator) WipeLocalData(context.Context) error {
	f.wipes++
	return f.wipeErr
}
func (f *fakeCoordinator) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}
func (f *fakeCoordinator) Close() { f.closed = true }

type recordingPublisher struct{ kinds []activity.EventKind }

func (p *recordingPublisher) Publish(k activity.EventKind) { p.kinds = append(p.kinds, k) }

func newTestApp(t *testing.T, input string) (*App, *fakeCoordinator, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	cfg := &config.Config{}
	cfg.LoadDefaults()

	fc := &fakeCoordinator{}
	a := NewApp(cfg, &recordingPublisher{}, nil)
	a.reader = bufio.NewReader(strings.NewReader(input))
	a.out = out
	a.Attach(fc)
	return a, fc, out
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := getPassword
	getPassword = func(io.Writer) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = orig })
}

func TestLogin_Success(t *testing.T) {
	stubPassword(t, "pw")
	a, fc, out := newTestApp(t, "alice\n")

	require.NoError(t, a.Login(context.Background()))
	assert.Equal(t, "alice", fc.LastIdentifier)
	assert.Equal(t, "pw", fc.LastSecret)
	assert.Contains(t, out.String(), "Welcome, Alice (analyst)")
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "(login alice)", a.getStatus())

	a.Navigate(services.RouteDashboard)
	a.setMode(context.Background(), ModeOnline)
	assert.Equal(t, "(dashboard alice online)", a.getStatus())
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "rate limited", err: &services.RateLimitedError{WaitSeconds: 900}, want: "Try again in 900 seconds"},
		{name: "bad credentials", err: common.ErrAuthenticationFailed, want: "check your identifier and secret"},
		{name: "other", err: errors.New("closed"), want: "Login failed: closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubPassword(t, "pw")
			a, fc, out := newTestApp(t, "alice\n")
			fc.loginErr = tt.err

			err := a.Login(context.Background())
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, out.String(), tt.want)
			assert.False(t, a.isLoggedIn())
		})
	}
}

func TestLogin_EmptyIdentifier(t *testing.T) {
	stubPassword(t, "pw")
	a, fc, out := newTestApp(t, "\n")

	require.NoError(t, a.Login(context.Background()))
	assert.Empty(t, fc.LastIdentifier)
	assert.Contains(t, out.String(), "must not be empty")
}

func TestWhoAmIAndLogout(t *testing.T) {
	stubPassword(t, "pw")
	a, fc, out := newTestApp(t, "alice\n")
	ctx := context.Background()

	require.NoError(t, a.WhoAmI(ctx))
	assert.Contains(t, out.String(), "Not logged in")

	require.NoError(t, a.Login(ctx))
	out.Reset()
	require.NoError(t, a.WhoAmI(ctx))
	assert.Equal(t, "alice\tAlice\tanalyst\n", out.String())

	require.NoError(t, a.Logout(ctx))
	assert.Equal(t, 1, fc.logouts)
	assert.False(t, a.isLoggedIn())
}

func TestStatusAndLockouts(t *testing.T) {
	a, fc, out := newTestApp(t, "")
	ctx := context.Background()

	fc.status = services.Status{
		State:          services.State{User: &models.User{Identifier: "bob", Role: "lead"}, IsAuthenticated: true},
		HasToken:       true,
		TokenRemaining: 90,
		MonitorState:   activity.StateActive,
		Lockouts:       []ratelimit.Lockout{{Identifier: "eve", WaitSeconds: 30}},
	}
	require.NoError(t, a.Status(ctx))
	assert.Contains(t, out.String(), "authenticated:   true")
	assert.Contains(t, out.String(), "bob (lead)")
	assert.Contains(t, out.String(), "in 1m30s")
	assert.Contains(t, out.String(), "idle monitor:    active")
	assert.Contains(t, out.String(), "locked out:      1")

	out.Reset()
	require.NoError(t, a.Lockouts(ctx))
	assert.Contains(t, out.String(), "No identifiers")

	fc.lockouts = []ratelimit.Lockout{{Identifier: "eve", WaitSeconds: 30}}
	out.Reset()
	require.NoError(t, a.Lockouts(ctx))
	assert.Equal(t, "eve\tretry in 30s\n", out.String())
}

func TestWipe(t *testing.T) {
	a, fc, out := newTestApp(t, "no\nyes\nyes\n")
	ctx := context.Background()

	require.NoError(t, a.Wipe(ctx))
	assert.Contains(t, out.String(), "Cancelled")
	assert.Equal(t, 0, fc.wipes)

	require.NoError(t, a.Wipe(ctx))
	assert.Equal(t, 1, fc.wipes)
	assert.Contains(t, out.String(), "Local data removed")

	fc.wipeErr = errors.New("disk full")
	assert.Error(t, a.Wipe(ctx))
	assert.Contains(t, out.String(), "Wipe failed: disk full")
}

func TestNavigate_SwitchesPromptSilently(t *testing.T) {
	a, _, out := newTestApp(t, "")

	a.Navigate(services.RouteDashboard)
	assert.Equal(t, "(dashboard)", a.getStatus())

	a.Navigate(services.RouteLogin)
	assert.Equal(t, "(login)", a.getStatus())
	assert.Empty(t, out.String())
}

func TestAttach_RestoredSessionStartsOnDashboard(t *testing.T) {
	a := NewApp(&config.Config{}, nil, nil)
	fc := &fakeCoordinator{state: services.State{User: &models.User{Identifier: "bob"}, IsAuthenticated: true}}
	a.Attach(fc)

	assert.Equal(t, services.RouteDashboard, a.currentRoute())
}

func TestGetStatus_Empty(t *testing.T) {
	a, _, _ := newTestApp(t, "")
	assert.Equal(t, "(login)", a.getStatus())

	a.route = ""
	assert.Equal(t, "", a.getStatus())
}

func TestRecordActivity(t *testing.T) {
	a, _, _ := newTestApp(t, "")
	pub := a.activity.(*recordingPublisher)

	a.recordActivity()
	assert.Equal(t, []activity.EventKind{activity.KeyDown}, pub.kinds)
}

func TestStartOnlineStatusWatcher(t *testing.T) {
	a, fc, _ := newTestApp(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.StartOnlineStatusWatcher(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return a.currentMode() == ModeOnline }, time.Second, 5*time.Millisecond)

	fc.mu.Lock()
	fc.pingErr = errors.New("down")
	fc.mu.Unlock()
	assert.Eventually(t, func() bool { return a.currentMode() == ModeOffline }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestRun_ClosesCoordinator(t *testing.T) {
	silencePrintln(t)
	a, fc, _ := newTestApp(t, "status\nexit\n")

	a.Run(context.Background())
	assert.True(t, fc.closed)
}
