package domain

import "time"

// RemoteLink is the one-to-one association between a saved query and a
// remotely-owned Query Activity. The four fields are a single logical unit:
// either all set (linked) or all absent (unlinked).
type RemoteLink struct {
	RemoteObjectID string
	RemoteKey      string
	RemoteName     string
	LinkedAt       time.Time
}

// SavedQuery is a locally-owned SQL query, optionally filed in a folder and
// optionally linked to a remote Query Activity.
type SavedQuery struct {
	ID             string
	TenantID       string
	BusinessUnitID string
	OwnerUserID    string
	FolderID       *string
	Name           string
	Link           *RemoteLink
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Linked reports whether the saved query currently holds a remote link.
func (q *SavedQuery) Linked() bool { return q.Link != nil }

// CreateSavedQueryRequest holds input for creating a saved query.
type CreateSavedQueryRequest struct {
	Name     string
	FolderID *string
	SQLText  string // optional initial version
}

// Validate checks required fields.
func (r CreateSavedQueryRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("saved query name is required")
	}
	return nil
}

// UpdateSavedQueryRequest holds partial updates for a saved query.
// SetFolder distinguishes "move out of any folder" from "leave unchanged".
type UpdateSavedQueryRequest struct {
	Name      *string
	FolderID  *string
	SetFolder bool
}

// LinkRequest identifies the remote object a saved query is linked to.
type LinkRequest struct {
	RemoteObjectID string
	RemoteKey      string
	RemoteName     string
}

// Validate checks that both remote identifiers are present.
func (r LinkRequest) Validate() error {
	if r.RemoteObjectID == "" || r.RemoteKey == "" {
		return ErrValidation("remote object id and remote key are required")
	}
	return nil
}
