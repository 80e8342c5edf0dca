// Package token generates the per-session authentication token shared
// between the API and GUI servers.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Token is an opaque session authentication token, rendered as a 64
// character lowercase hex string. It is generated once per launch and
// passed by value to both servers; it is never persisted.
type Token string

// entropyLen is the number of bytes drawn from the secure random source,
// 256 bits before the digest.
const entropyLen = 32

// hexLen is the length of the rendered token.
const hexLen = 2 * sha256.Size

// New generates a fresh session token: 256 bits of secure randomness
// passed through SHA-256 and hex encoded. It fails only when the system
// random source does, which is fatal at startup.
func New() (Token, error) {
	raw := make([]byte, entropyLen)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("reading secure random source: %w", err)
	}
	sum := sha256.Sum256(raw)
	return Token(hex.EncodeToString(sum[:])), nil
}

// Parse validates a token received from the environment. Supervised
// worker processes inherit their token this way instead of generating
// their own.
func Parse(s string) (Token, error) {
	if len(s) != hexLen {
		return "", fmt.Errorf("token must be %d characters, got %d", hexLen, len(s))
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("token must be lowercase hex")
		}
	}
	return Token(s), nil
}

// AuthorizedURL is the browser-facing URL for a session. The token rides
// in the fragment so it never appears in server access logs.
func AuthorizedURL(host string, guiPort int, t Token) string {
	return fmt.Sprintf("http://%s:%d/#token=%s", host, guiPort, t)
}
