package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/socguard/internal/client/services"
	"github.com/dmitrijs2005/socguard/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for an identifier and secret and hands them to the
// coordinator. The secret buffer is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "Enter identifier", a.out)
	if err != nil {
		return err
	}
	if identifier == "" {
		fmt.Fprintln(a.out, "Identifier must not be empty")
		return nil
	}

	secret, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(secret)

	err = a.auth.Login(ctx, identifier, string(secret))

	var limited *services.RateLimitedError
	switch {
	case err == nil:
		st := a.auth.State(ctx)
		if st.User != nil {
			fmt.Fprintf(a.out, "Welcome, %s (%s)\n", st.User.DisplayName, st.User.Role)
		}
	case errors.As(err, &limited):
		fmt.Fprintf(a.out, "Too many login attempts. Try again in %d seconds.\n", limited.WaitSeconds)
	case errors.Is(err, common.ErrAuthenticationFailed):
		fmt.Fprintln(a.out, "Login failed: check your identifier and secret")
	default:
		fmt.Fprintf(a.out, "Login failed: %v\n", err)
	}
	return err
}

func (a *App) Logout(ctx context.Context) error {
	a.auth.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// WhoAmI prints the signed-in operator.
func (a *App) WhoAmI(ctx context.Context) error {
	st := a.auth.State(ctx)
	if !st.IsAuthenticated || st.User == nil {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	fmt.Fprintf(a.out, "%s\t%s\t%s\n", st.User.Identifier, st.User.DisplayName, st.User.Role)
	return nil
}

// Status prints session diagnostics.
func (a *App) Status(ctx context.Context) error {
	st := a.auth.Status(ctx)

	fmt.Fprintf(a.out, "authenticated:   %t\n", st.IsAuthenticated)
	if st.User != nil {
		fmt.Fprintf(a.out, "user:            %s (%s)\n", st.User.Identifier, st.User.Role)
	}
	if st.HasToken {
		fmt.Fprintf(a.out, "token expires:   in %s\n", time.Duration(st.TokenRemaining)*time.Second)
		if st.TokenIdentifier != "" {
			fmt.Fprintf(a.out, "token subject:   %s\n", st.TokenIdentifier)
		}
	} else {
		fmt.Fprintln(a.out, "token:           none")
	}
	fmt.Fprintf(a.out, "idle monitor:    %s\n", st.MonitorState)
	if m := a.currentMode(); m != "" {
		fmt.Fprintf(a.out, "backend:         %s\n", m)
	}
	fmt.Fprintf(a.out, "locked out:      %d\n", len(st.Lockouts))
	return nil
}

// Lockouts prints identifiers blocked by the rate limiter.
func (a *App) Lockouts(ctx context.Context) error {
	list := a.auth.Lockouts(ctx)
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No identifiers are locked out")
		return nil
	}
	for _, l := range list {
		fmt.Fprintf(a.out, "%s\tretry in %ds\n", l.Identifier, l.WaitSeconds)
	}
	return nil
}

// Wipe removes every local record after confirmation.
func (a *App) Wipe(ctx context.Context) error {
	answer, err := getSimpleText(a.reader, "This removes the session and all rate-limit records. Type 'yes' to continue", a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "yes") {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}

	if err := a.auth.WipeLocalData(ctx); err != nil {
		fmt.Fprintf(a.out, "Wipe failed: %v\n", err)
		return err
	}
	fmt.Fprintln(a.out, "Local data removed")
	return nil
}
