// Package cryptox derives and checks secret verifiers for the dev auth
// backend. Secrets are stretched with argon2id and only a SHA-256 of the
// derived key is stored.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/dmitrijs2005/socguard/internal/common"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of salts produced by NewVerifier.
const SaltSize = 16

// DeriveKey stretches secret with argon2id (1 pass, 64 MiB, 4 lanes) into a
// 32-byte key.
func DeriveKey(secret []byte, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// NewVerifier returns a fresh random salt and the verifier of secret under it.
func NewVerifier(secret []byte) (salt, verifier []byte) {
	salt = common.GenerateRandByteArray(SaltSize)
	key := DeriveKey(secret, salt)
	defer common.WipeByteArray(key)
	return salt, MakeVerifier(key)
}

// Verify reports whether secret matches verifier under salt. The comparison
// runs in constant time.
func Verify(secret, salt, verifier []byte) bool {
	key := DeriveKey(secret, salt)
	defer common.WipeByteArray(key)
	return subtle.ConstantTimeCompare(MakeVerifier(key), verifier) == 1
}
