// Package secrets generates shared secrets for the internal API key.
package secrets

import (
	"crypto/rand"
	"encoding/base64"

	dErrors "opsgate/pkg/domain-errors"
)

// MinLength is the shortest generated secret, in bytes of entropy.
const MinLength = 32

// Generate creates a cryptographically secure random secret of n bytes
// (at least MinLength), base64url-encoded for use as INTERNAL_API_KEY.
func Generate(n int) (string, error) {
	if n < MinLength {
		n = MinLength
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate secret")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
