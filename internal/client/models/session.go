package models

import (
	"strings"

	"github.com/dmitrijs2005/propkeeper/internal/common"
)

// Session is the persisted authenticated identity.
type Session struct {
	Token string   `json:"token"`
	User  *Account `json:"user"`
}

// IsLocalToken reports whether token was minted by the local credential
// store rather than the remote authority.
func IsLocalToken(token string) bool {
	return strings.HasPrefix(token, common.LocalTokenPrefix)
}
