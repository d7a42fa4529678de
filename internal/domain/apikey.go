package domain

import (
	"crypto/sha256"
	"fmt"
)

// HashAPIKey возвращает хеш API-ключа с солью hashKey. В хранилище лежит только хеш.
func HashAPIKey(apiKey, hashKey string) string {
	sum := sha256.Sum256([]byte(hashKey + apiKey))
	return fmt.Sprintf("%x", sum)
}
