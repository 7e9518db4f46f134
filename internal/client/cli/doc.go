// Package cli provides the interactive socguard command-line client.
//
// The App drives a services.AuthCoordinator from a small REPL: login,
// logout, whoami, status, lockouts and wipe. Each command line is published
// as keyboard activity so the idle monitor sees the operator working, and a
// background watcher pings the backend to show online/offline mode in the
// prompt.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
