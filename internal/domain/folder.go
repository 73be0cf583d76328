package domain

import "time"

// Folder visibility values.
const (
	VisibilityPersonal = "personal"
	VisibilityShared   = "shared"
)

// MaxFolderDepth caps the ancestor walk during cycle checks. A stored tree
// deeper than this is treated as corrupted.
const MaxFolderDepth = 32

// Folder is a node in the per-scope folder tree. ParentID is nil for roots.
type Folder struct {
	ID             string
	TenantID       string
	BusinessUnitID string
	OwnerUserID    string
	ParentID       *string
	Name           string
	Visibility     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateFolderRequest holds input for creating a folder.
type CreateFolderRequest struct {
	Name       string
	ParentID   *string
	Visibility string // defaults to "personal"
}

// Validate checks required fields and the visibility value.
func (r CreateFolderRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("folder name is required")
	}
	if r.Visibility != "" && r.Visibility != VisibilityPersonal && r.Visibility != VisibilityShared {
		return ErrValidation("visibility must be %q or %q", VisibilityPersonal, VisibilityShared)
	}
	return nil
}

// UpdateFolderRequest holds partial updates for a folder. Nil fields are
// left unchanged. SetParent distinguishes "move to root" (SetParent true,
// ParentID nil) from "don't touch the parent" (SetParent false).
type UpdateFolderRequest struct {
	Name       *string
	Visibility *string
	ParentID   *string
	SetParent  bool
}

// Validate checks the visibility value when present.
func (r UpdateFolderRequest) Validate() error {
	if r.Name != nil && *r.Name == "" {
		return ErrValidation("folder name cannot be empty")
	}
	if r.Visibility != nil && *r.Visibility != VisibilityPersonal && *r.Visibility != VisibilityShared {
		return ErrValidation("visibility must be %q or %q", VisibilityPersonal, VisibilityShared)
	}
	return nil
}
