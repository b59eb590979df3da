package kernel

import (
	"crypto/sha256"
	"encoding/hex"
)

// TextDigest is the hex sha256 of text. Stored vectors and cached
// embeddings are both keyed on it.
func TextDigest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
