package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SourceHash is a stable fingerprint of an article's embedded text. Ingest
// compares it with the stored value to skip re-embedding unchanged items.
func SourceHash(title, description string) string {
	content := strings.TrimSpace(title) + "\x00" + strings.TrimSpace(description)

	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
