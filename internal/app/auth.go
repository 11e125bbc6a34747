// internal/app/auth.go
package app

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword checks provided against a stored hash. Records written by
// older versions hold a bare sha256 hex digest; those still verify, and
// legacy reports that the hash should be upgraded.
func VerifyPassword(stored, provided string) (ok bool, legacy bool) {
	if isLegacyDigest(stored) {
		sum := sha256.Sum256([]byte(provided))
		digest := hex.EncodeToString(sum[:])
		return subtle.ConstantTimeCompare([]byte(digest), []byte(strings.ToLower(stored))) == 1, true
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(provided)) == nil, false
}

func isLegacyDigest(stored string) bool {
	if len(stored) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(stored)
	return err == nil
}

// BearerToken extracts the token from the configured header.
func BearerToken(r *http.Request, header string) (string, error) {
	authHeader := r.Header.Get(header)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", fmt.Errorf("Invalid authorization header format")
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", fmt.Errorf("empty bearer token")
	}
	return token, nil
}
