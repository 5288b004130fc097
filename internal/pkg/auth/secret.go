// internal/pkg/auth/secret.go
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// SecretCost is the bcrypt cost used for shared relay secrets
const SecretCost = 12

// HashSecret hashes a shared secret using bcrypt
func HashSecret(secret string) (string, error) {
	if len(secret) < 16 {
		return "", fmt.Errorf("secret must be at least 16 characters long")
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(secret), SecretCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}

	return string(hashedBytes), nil
}

// VerifySecret reports whether secret matches the bcrypt hash
func VerifySecret(secret, hash string) bool {
	if secret == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
