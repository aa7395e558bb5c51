package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateFileID derives a short stable identifier from the upload facts.
// The nanosecond timestamp keeps repeated uploads of the same name distinct.
func GenerateFileID(name, owner string, timestamp int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d", name, owner, timestamp)))
	return "file_" + hex.EncodeToString(sum[:])[:12]
}
