package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

func HashString(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// EmbeddingKey derives a cache key that is unique per model and text.
func EmbeddingKey(model, text string) string {
	return HashString(model + "\x00" + strings.TrimSpace(text))
}
