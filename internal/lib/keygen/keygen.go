package keygen

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const keyBytes = 32

// * NewKey генерирует непредсказуемый ключ (256 бит) в base64url
func NewKey() (string, error) {
	const op = "keygen.NewKey"

	b := make([]byte, keyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// * Hash возвращает SHA256 хеш ключа, под которым он хранится
func Hash(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
