// Package cli provides the interactive propkeeper command-line client.
//
// It wires configuration, logging, the local SQLite database, the remote
// authority client and the session engine, then runs a REPL that stands in
// for the marketplace UI: it drives every session verb and renders the
// published session state in its prompt.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
