// Package cryptox computes payload fingerprints used to check that an upload
// arrived intact.
package cryptox

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/blake2b"
)

// NewHash returns the hash behind Fingerprint, for callers that digest
// data while writing it elsewhere.
func NewHash() hash.Hash {
	h, _ := blake2b.New256(nil)
	return h
}

// Sum formats the digest of h the way Fingerprint does.
func Sum(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the hex BLAKE2b-256 digest of everything read from r.
func Fingerprint(r io.Reader) (string, error) {
	h := NewHash()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return Sum(h), nil
}

// FingerprintBytes is Fingerprint for an in-memory buffer.
func FingerprintBytes(b []byte) string {
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:])
}
