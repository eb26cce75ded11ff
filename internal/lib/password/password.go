package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrEmptyPassword = errors.New("password cannot be empty")

// Verify reports whether plaintext matches the stored bcrypt hash.
// Any malformed hash is treated as a mismatch.
func Verify(plaintext, storedHash string) bool {
	if storedHash == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext)) == nil
}

func Hash(plaintext string) (string, error) {
	const op = "password.Hash"

	if plaintext == "" {
		return "", ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(hash), nil
}

// Bcrypt adapts the package functions to the auth.PasswordVerifier interface.
type Bcrypt struct{}

func (Bcrypt) Verify(plaintext, storedHash string) bool {
	return Verify(plaintext, storedHash)
}
