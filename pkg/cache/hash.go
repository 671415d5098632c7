package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey builds a "<prefix>:<sha256>" cache key from the key components.
// The components are JSON-encoded before hashing so ("ab", "c") and
// ("a", "bc") cannot collide, and the full 256-bit digest is kept: prompt
// keys address expensive model responses, where a collision would silently
// serve one prompt's answer for another.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}
