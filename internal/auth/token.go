package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// TokenBytes is the amount of entropy in an issued bearer token.
const TokenBytes = 32

const bearerScheme = "Bearer"

// GenerateToken returns a new random bearer token, hex encoded.
func GenerateToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ParseBearer extracts the token from an Authorization header value.
// Only the exact form "Bearer <token>" is accepted; the scheme is case-sensitive.
func ParseBearer(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != bearerScheme || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// QuickHash returns a SHA256 hash of the input for cache keys.
// This is NOT for password storage, only for cache key derivation.
func QuickHash(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16]) // Use first 16 bytes (32 hex chars)
}
