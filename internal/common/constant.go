// Package common contains shared constants and sentinel errors used across
// propkeeper components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token on
// outbound requests to the remote authority.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token inside the Authorization header.
const BearerPrefix = "Bearer "

// LocalTokenPrefix marks tokens minted by the local credential store.
// Tokens without it are treated as issued by the remote authority.
const LocalTokenPrefix = "local_"

// Metadata keys holding the persisted session.
const (
	MetaKeyToken          = "token"
	MetaKeyUser           = "user"
	MetaKeyVerificationID = "verification_id"
)

// SessionKeys lists every metadata key owned by the active session.
var SessionKeys = []string{MetaKeyToken, MetaKeyUser, MetaKeyVerificationID}
