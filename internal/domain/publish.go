package domain

import "time"

// PublishEvent is the append-only proof that a specific version's SQL text
// reached the linked remote object. Created only after the remote system
// accepted the update; never updated or deleted.
type PublishEvent struct {
	ID               string
	SavedQueryID     string
	VersionID        string
	TenantID         string
	BusinessUnitID   string
	UserID           string
	LinkedRemoteKey  string
	PublishedSQLHash string
	CreatedAt        time.Time
}

// PublishReceipt is returned to the caller of a successful publish.
type PublishReceipt struct {
	EventID      string
	SavedQueryID string
	VersionID    string
	SQLHash      string
	PublishedAt  time.Time
}

// DriftReport is the result of comparing the latest local version against
// the live remote definition.
type DriftReport struct {
	HasDrift   bool
	LocalSQL   string
	RemoteSQL  string
	LocalHash  string
	RemoteHash string
}
