// Package cryptox holds the key-derivation primitives used to store local
// secrets without keeping them in plain text.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of salts generated for new local accounts.
const SaltSize = 32

// DeriveMasterKey stretches password with salt using argon2id.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier returns the SHA-256 digest of key. Only verifiers are
// persisted; the derived key itself never touches storage.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// CheckPassword derives a verifier from password and salt and compares it to
// the stored one in constant time.
func CheckPassword(password, salt, verifier []byte) bool {
	candidate := MakeVerifier(DeriveMasterKey(password, salt))
	return subtle.ConstantTimeCompare(candidate, verifier) == 1
}

// CheckVerifier compares value's verifier against a stored one in constant
// time. Equal inputs always match, so this keeps exact-equality semantics.
func CheckVerifier(value, verifier []byte) bool {
	return subtle.ConstantTimeCompare(MakeVerifier(value), verifier) == 1
}
