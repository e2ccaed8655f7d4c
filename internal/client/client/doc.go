// Package client contains the client-side building blocks of the spendkeeper
// CLI.
//
// # Overview
//
// The package provides:
//  1. The Client interface: sign-up, sign-in, logout and refresh, expense
//     transactions and receipts, plus a health probe.
//  2. GRPCClient, its gRPC implementation. It attaches the bearer access
//     token to every call, refreshes an expired session once with the stored
//     refresh token and maps gRPC status codes to sentinel errors.
//  3. InitDatabase and RunMigrations, which open the local SQLite database
//     where the CLI keeps its session between runs.
//
// # Error Handling
//
// Callers match errors with errors.Is: ErrUnavailable, ErrUnauthorized,
// ErrAlreadyExists, ErrInvalidInput, ErrNotFound and ErrNotLoggedIn.
package client
