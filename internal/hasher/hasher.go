// Package hasher computes the content digest used as the duplicate-detection
// key for photos. Two byte-identical files always produce the same digest.
package hasher

import (
	"encoding/hex"

	sha256 "github.com/minio/sha256-simd"
)

// HashBytes returns the lowercase hex SHA-256 digest of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
