// Package digest is the hash function the invoice chain is built on:
// SHA-256 rendered as lowercase hex.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Size is the length of a rendered digest in hex characters.
const Size = sha256.Size * 2

// ErrEmptyInput reports an attempt to hash nothing. Callers must never end
// up committing a digest of the empty string by accident.
var ErrEmptyInput = errors.New("digest: empty input")

// Hex returns the SHA-256 digest of b as a lowercase hex string.
func Hex(b []byte) (string, error) {
	if len(b) == 0 {
		return "", ErrEmptyInput
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// IsWellFormed reports whether s looks like a digest rendered by Hex.
func IsWellFormed(s string) bool {
	if len(s) != Size {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
