// Package client contains the transport side of the socguard client.
//
// # Overview
//
// The package provides:
//  1. The AuthBackend contract used by the auth coordinator: Login, Ping
//     and Close.
//  2. A gRPC implementation (GRPCClient) speaking socguard.auth.v1.AuthService
//     with the protobuf stubs from internal/proto/authpb. Status codes are mapped
//     to sentinel errors and every call carries an x-request-id.
//  3. A REST implementation (HTTPClient) with cookie-jar support.
//  4. Local persistence bootstrap (InitDatabase, RunMigrations) wiring the
//     shared SQLite session store with embedded goose migrations.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match
// with errors.Is: ErrUnavailable, ErrUnauthorized, ErrInvalidResponse.
package client
