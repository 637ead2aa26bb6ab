package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the hex SHA-256 of data. It turns unbounded inputs such as
// catalog URLs into fixed-length key suffixes.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Key joins prefix and the first 16 hex characters of Hash(input).
func Key(prefix, input string) string {
	return prefix + Hash([]byte(input))[:16]
}
