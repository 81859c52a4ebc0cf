package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/propkeeper/internal/client/client"
	"github.com/dmitrijs2005/propkeeper/internal/client/verification"
	"github.com/dmitrijs2005/propkeeper/internal/common"
)

type Kind string

const (
	KindValidation         Kind = "VALIDATION"
	KindDuplicate          Kind = "DUPLICATE"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindNetwork            Kind = "NETWORK_ERROR"
	KindServer             Kind = "SERVER_ERROR"
	KindSessionExpired     Kind = "SESSION_EXPIRED"
	KindTooManyAttempts    Kind = "TOO_MANY_ATTEMPTS"
	KindInvalidCode        Kind = "INVALID_CODE"
	KindNotFound           Kind = "NOT_FOUND"
	KindNotAuthenticated   Kind = "NOT_AUTHENTICATED"
	KindInternal           Kind = "INTERNAL"
)

// Error is the only error type returned by Engine verbs. Message is safe to
// show to the user.
type Error struct {
	Kind    Kind
	Message string
	// Remaining is set for KindInvalidCode.
	Remaining int

	cause error
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// IsKind reports whether err is a *Error of kind k.
func IsKind(err error, k Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == k
}

func newError(kind Kind, msg string, cause error) *Error {
	if msg == "" {
		msg = defaultMessages[kind]
	}
	return &Error{Kind: kind, Message: msg, cause: cause}
}

var defaultMessages = map[Kind]string{
	KindValidation:         "Please fill in all required fields.",
	KindDuplicate:          "An account with this username or email already exists.",
	KindInvalidCredentials: "Invalid username or password.",
	KindNetwork:            "Unable to reach the server. Check your connection and try again.",
	KindServer:             "The server could not complete the request.",
	KindSessionExpired:     "Verification session expired. Please request a new code.",
	KindTooManyAttempts:    "Too many attempts. Please request a new code.",
	KindInvalidCode:        "Invalid verification code.",
	KindNotFound:           "Account not found.",
	KindNotAuthenticated:   "You need to sign in first.",
	KindInternal:           "Something went wrong. Please try again.",
}

// normalize maps any error produced below the engine to a *Error.
func normalize(err error) *Error {
	if err == nil {
		return nil
	}

	var se *Error
	if errors.As(err, &se) {
		return se
	}

	var ice *verification.InvalidCodeError
	if errors.As(err, &ice) {
		e := newError(KindInvalidCode, fmt.Sprintf("Invalid verification code. %d attempt(s) remaining.", ice.Remaining), err)
		e.Remaining = ice.Remaining
		return e
	}

	var srv *client.ServerError
	if errors.As(err, &srv) {
		msg := defaultMessages[KindServer]
		if srv.Message != "" {
			msg = srv.Message
		}
		return newError(KindServer, msg, err)
	}

	switch {
	case errors.Is(err, client.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return newError(KindNetwork, "", err)
	case errors.Is(err, client.ErrUnauthorized):
		return newError(KindInvalidCredentials, "", err)
	case errors.Is(err, client.ErrConflict), errors.Is(err, common.ErrorAlreadyExists):
		return newError(KindDuplicate, "", err)
	case errors.Is(err, common.ErrSessionExpired):
		return newError(KindSessionExpired, "", err)
	case errors.Is(err, common.ErrTooManyAttempts):
		return newError(KindTooManyAttempts, "", err)
	case errors.Is(err, common.ErrInvalidCode):
		return newError(KindInvalidCode, "", err)
	case errors.Is(err, common.ErrorNotFound):
		return newError(KindNotFound, "", err)
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrMissingArguments):
		return newError(KindValidation, "", err)
	}
	return newError(KindInternal, "", err)
}

// normalizeSessionCall is normalize for calls made with the current token,
// where a 401 means the session itself was rejected.
func normalizeSessionCall(err error) *Error {
	if errors.Is(err, client.ErrUnauthorized) {
		return newError(KindNotAuthenticated, "Your session is no longer valid. Please sign in again.", err)
	}
	return normalize(err)
}
