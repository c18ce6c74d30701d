package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex SHA-256 digest of data. Used both for cache keys and
// for content hashes exposed to clients (X-Model-Hash).
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey derives a namespaced cache key from arbitrary components. The
// components are JSON-encoded before hashing so ("a", "bc") and ("ab", "c")
// produce different keys.
func hashKey(prefix string, parts ...any) string {
	encoded, _ := json.Marshal(parts)
	return prefix + ":" + Hash(encoded)
}
