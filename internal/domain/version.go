package domain

import "time"

// Version sources.
const (
	VersionSourceEdit    = "edit"
	VersionSourceRestore = "restore"
)

// QueryVersion is an immutable snapshot of a saved query's SQL text.
// Restoring an old version appends a new snapshot rather than rewriting
// history. Only the display name is ever updated after creation.
type QueryVersion struct {
	ID             string
	SavedQueryID   string
	SQLTextCipher  string // hex AES-GCM ciphertext of the SQL text
	SQLTextHash    string // hex SHA-256 of the plaintext SQL
	LineCount      int
	Source         string // "edit" or "restore"
	RestoredFromID *string
	VersionName    *string
	CreatedAt      time.Time
}
