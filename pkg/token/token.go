// Package token generates opaque, unguessable tokens for collectors and
// invites.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// MinBytes is the smallest accepted entropy, 128 bits.
const MinBytes = 16

// Generate returns a URL-safe random token carrying n bytes of entropy.
// Values of n below MinBytes are raised to MinBytes.
func Generate(n int) (string, error) {
	if n < MinBytes {
		n = MinBytes
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
