// Package cli provides the interactive spendkeeper command-line client.
//
// It wires configuration, the local session database, API services and a
// small REPL. A saved session is restored on start, so a user stays signed in
// across runs until logout or until the refresh token is no longer accepted.
//
// Commands:
//   - signup / signin / logout / refresh
//   - add: record a transaction with optional line items
//   - list: show transactions
//   - receipt <transaction-id> <image-path>: upload a receipt image
//   - receipts <transaction-id>: list receipts with download links
//
// A single command may also be passed as program arguments, in which case it
// runs once without the REPL.
package cli
