// Package session is the engine the UI layer talks to. It owns the published
// session (token, user, status), decides between the remote authority and
// the local credential store, and drives phone verification.
//
// Every verb returns nil or a *Error; raw storage and network errors never
// leave the package. Mutating verbs are serialized, and observers registered
// with Subscribe are notified after each state change.
package session
