package domain

import "context"

// All repository methods are scope-implicit: they operate only on rows
// belonging to the Scope carried by the context, and fail if no scope is
// established.

// FolderRepository provides CRUD operations for the folder tree.
type FolderRepository interface {
	Create(ctx context.Context, f *Folder) (*Folder, error)
	GetByID(ctx context.Context, id string) (*Folder, error)
	List(ctx context.Context, page PageRequest) ([]Folder, int64, error)
	Update(ctx context.Context, id string, req UpdateFolderRequest) (*Folder, error)
	Delete(ctx context.Context, id string) error
	// HasChildren reports whether any folder or saved query still points at
	// the folder as its parent.
	HasChildren(ctx context.Context, id string) (bool, error)
	// WouldCreateCycle reports whether re-parenting folderID under
	// proposedParentID would make folderID its own ancestor. The walk runs
	// against the current persisted tree, capped at MaxFolderDepth.
	WouldCreateCycle(ctx context.Context, folderID, proposedParentID string) (bool, error)
}

// SavedQueryRepository provides CRUD and link operations for saved queries.
type SavedQueryRepository interface {
	Create(ctx context.Context, q *SavedQuery) (*SavedQuery, error)
	GetByID(ctx context.Context, id string) (*SavedQuery, error)
	List(ctx context.Context, folderID *string, page PageRequest) ([]SavedQuery, int64, error)
	Update(ctx context.Context, id string, req UpdateSavedQueryRequest) (*SavedQuery, error)
	Delete(ctx context.Context, id string) error
	// LinkToRemote upserts all four link fields atomically. A remote key
	// already claimed by another saved query in scope yields LinkConflictError
	// from the storage-level uniqueness constraint.
	LinkToRemote(ctx context.Context, id string, link RemoteLink) (*SavedQuery, error)
	// UnlinkFromRemote clears all four link fields. Idempotent.
	UnlinkFromRemote(ctx context.Context, id string) (*SavedQuery, error)
	// FindAllLinkedKeys returns remote key -> saved query name for every
	// linked saved query in scope.
	FindAllLinkedKeys(ctx context.Context) (map[string]string, error)
	// ListLinked returns all saved queries in scope that hold a remote link.
	ListLinked(ctx context.Context) ([]SavedQuery, error)
}

// QueryVersionRepository provides append and lookup operations for version
// snapshots. Versions are never deleted.
type QueryVersionRepository interface {
	Create(ctx context.Context, v *QueryVersion) (*QueryVersion, error)
	GetByID(ctx context.Context, id string) (*QueryVersion, error)
	ListBySavedQuery(ctx context.Context, savedQueryID string, page PageRequest) ([]QueryVersion, int64, error)
	// LatestBySavedQuery returns the most recent version, or NotFoundError
	// when the saved query has no versions yet.
	LatestBySavedQuery(ctx context.Context, savedQueryID string) (*QueryVersion, error)
	UpdateName(ctx context.Context, id string, name string) (*QueryVersion, error)
}

// PublishEventRepository provides append and lookup operations for the
// publish audit trail. Events are never updated or deleted.
type PublishEventRepository interface {
	Create(ctx context.Context, e *PublishEvent) (*PublishEvent, error)
	ListBySavedQuery(ctx context.Context, savedQueryID string, page PageRequest) ([]PublishEvent, int64, error)
	// LatestBySavedQuery returns the most recent event, or NotFoundError
	// when the saved query has never been published.
	LatestBySavedQuery(ctx context.Context, savedQueryID string) (*PublishEvent, error)
}

// TenantDirectory answers whether a tenant/business-unit pair exists. The
// tenancy runner consults it before any scoped operation runs.
type TenantDirectory interface {
	Exists(ctx context.Context, tenantID, businessUnitID string) (bool, error)
}
