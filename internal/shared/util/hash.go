package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashKey returns a filesystem-safe identifier for an arbitrary string such as a URL.
func HashKey(s string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(s)))
	return hex.EncodeToString(sum[:])
}
