package pinstore

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. Changing any of them invalidates every stored PIN.
const (
	kdfIterations = 100000
	kdfKeyLen     = 32
	saltLen       = 16
)

// dummySalt is hashed against when a targeted identity does not exist.
const dummySalt = "AAAAAAAAAAAAAAAAAAAAAA=="

// HashPIN derives the stored hash for pin.
//
// When salt is empty a new random 16-byte salt is generated and returned
// base64-encoded. The KDF is keyed with the bytes of the encoded salt
// string, not the decoded bytes, so tables written by earlier deployments
// stay verifiable.
//
// Returns:
//   - hash: base64 (standard, padded) of the 32-byte derived key
//   - salt: the salt actually used
//   - err: only if the system random source fails
func HashPIN(pin, salt string) (hash, usedSalt string, err error) {
	if salt == "" {
		raw := make([]byte, saltLen)
		if _, err := rand.Read(raw); err != nil {
			return "", "", fmt.Errorf("generating salt: %w", err)
		}
		salt = base64.StdEncoding.EncodeToString(raw)
	}

	return derive(pin, salt), salt, nil
}

func derive(pin, salt string) string {
	key := pbkdf2.Key([]byte(pin), []byte(salt), kdfIterations, kdfKeyLen, sha256.New)
	return base64.StdEncoding.EncodeToString(key)
}

// matches reports whether pin hashes to rec's stored hash.
// A record missing either field is hashed against dummySalt and never matches.
func matches(pin string, rec Record) bool {
	if rec.PINHash == "" || rec.Salt == "" {
		derive(pin, dummySalt)
		return false
	}
	candidate := derive(pin, rec.Salt)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(rec.PINHash)) == 1
}
