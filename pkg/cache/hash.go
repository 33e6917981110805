package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey derives a namespaced cache key: prefix, a colon, then the SHA-256
// digest of the JSON-encoded parts. The digest is kept in full; diagram
// inputs differ in small ways and truncated keys would collide.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// Hash returns the hex SHA-256 digest of data. Marshaled diagram documents
// are hashed this way to identify layouts across the cache and the store.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
