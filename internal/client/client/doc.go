// Package client talks to the remote authority over HTTP/JSON.
//
// HTTPClient implements Client. Every call carries a per-request deadline
// and goes through a circuit breaker; calls are never retried. Failures are
// reported as sentinel errors that callers match with errors.Is:
// ErrUnavailable (transport failure, timeout, open breaker), ErrUnauthorized
// (401/403) and ErrConflict (409). Any other non-2xx response becomes a
// *ServerError carrying the server message.
package client
