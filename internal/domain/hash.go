package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SQLHash returns the hex-encoded SHA-256 digest of the raw SQL text.
// Drift detection and publish receipts both compare these digests.
func SQLHash(sqlText string) string {
	sum := sha256.Sum256([]byte(sqlText))
	return hex.EncodeToString(sum[:])
}

// SQLLineCount returns the number of lines in the SQL text, 0 for empty.
func SQLLineCount(sqlText string) int {
	if sqlText == "" {
		return 0
	}
	return strings.Count(sqlText, "\n") + 1
}
