package repository

import (
	"context"
	"database/sql"

	"querydesk/internal/domain"
)

var _ domain.FolderRepository = (*FolderRepo)(nil)

// FolderRepo implements domain.FolderRepository using SQLite.
type FolderRepo struct {
	db *sql.DB
}

// NewFolderRepo creates a new FolderRepo.
func NewFolderRepo(db *sql.DB) *FolderRepo {
	return &FolderRepo{db: db}
}

const folderColumns = `id, tenant_id, business_unit_id, owner_user_id, parent_id, name, visibility, created_at, updated_at`

func scanFolder(row interface{ Scan(...interface{}) error }) (*domain.Folder, error) {
	var f domain.Folder
	var parent sql.NullString
	if err := row.Scan(&f.ID, &f.TenantID, &f.BusinessUnitID, &f.OwnerUserID,
		&parent, &f.Name, &f.Visibility, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.ParentID = strPtr(parent)
	return &f, nil
}

// Create inserts a new folder in the active scope.
func (r *FolderRepo) Create(ctx context.Context, f *domain.Folder) (*domain.Folder, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	id := domain.NewID()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO folders (id, tenant_id, business_unit_id, owner_user_id, parent_id, name, visibility)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, scope.TenantID, scope.BusinessUnitID, scope.UserID,
		nullStr(f.ParentID), f.Name, f.Visibility)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, id)
}

// GetByID returns a folder by ID within the active scope.
func (r *FolderRepo) GetByID(ctx context.Context, id string) (*domain.Folder, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM folders
		 WHERE id = ? AND tenant_id = ? AND business_unit_id = ?`,
		id, scope.TenantID, scope.BusinessUnitID)
	f, err := scanFolder(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return f, nil
}

// List returns folders in the active scope, ordered by name.
func (r *FolderRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Folder, int64, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM folders WHERE tenant_id = ? AND business_unit_id = ?`,
		scope.TenantID, scope.BusinessUnitID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+folderColumns+` FROM folders
		 WHERE tenant_id = ? AND business_unit_id = ?
		 ORDER BY name LIMIT ? OFFSET ?`,
		scope.TenantID, scope.BusinessUnitID, page.Limit(), page.Start())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var folders []domain.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, 0, err
		}
		folders = append(folders, *f)
	}
	return folders, total, rows.Err()
}

// Update applies partial updates to a folder.
func (r *FolderRepo) Update(ctx context.Context, id string, req domain.UpdateFolderRequest) (*domain.Folder, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := existing.Name
	if req.Name != nil {
		name = *req.Name
	}
	visibility := existing.Visibility
	if req.Visibility != nil {
		visibility = *req.Visibility
	}
	parent := existing.ParentID
	if req.SetParent {
		parent = req.ParentID
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE folders SET name = ?, visibility = ?, parent_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND tenant_id = ? AND business_unit_id = ?`,
		name, visibility, nullStr(parent), id, scope.TenantID, scope.BusinessUnitID)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, id)
}

// Delete removes a folder by ID. The caller is responsible for the
// non-empty guard; the foreign keys back it up.
func (r *FolderRepo) Delete(ctx context.Context, id string) error {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM folders WHERE id = ? AND tenant_id = ? AND business_unit_id = ?`,
		id, scope.TenantID, scope.BusinessUnitID)
	if err != nil {
		return mapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound("folder %q not found", id)
	}
	return nil
}

// HasChildren reports whether any folder or saved query still points at the
// folder as its parent.
func (r *FolderRepo) HasChildren(ctx context.Context, id string) (bool, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return false, err
	}

	var has bool
	err = r.db.QueryRowContext(ctx,
		`SELECT EXISTS(
		     SELECT 1 FROM folders
		      WHERE parent_id = ? AND tenant_id = ? AND business_unit_id = ?
		 ) OR EXISTS(
		     SELECT 1 FROM saved_queries
		      WHERE folder_id = ? AND tenant_id = ? AND business_unit_id = ?
		 )`,
		id, scope.TenantID, scope.BusinessUnitID,
		id, scope.TenantID, scope.BusinessUnitID).Scan(&has)
	if err != nil {
		return false, err
	}
	return has, nil
}

// WouldCreateCycle walks the proposed parent's ancestor chain in the
// current persisted tree and reports whether folderID appears in it. The
// walk is capped at MaxFolderDepth so an already-corrupted cycle in stored
// data cannot loop forever.
func (r *FolderRepo) WouldCreateCycle(ctx context.Context, folderID, proposedParentID string) (bool, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return false, err
	}

	var cycle bool
	err = r.db.QueryRowContext(ctx,
		`WITH RECURSIVE ancestors(id, parent_id, depth) AS (
		     SELECT id, parent_id, 0 FROM folders
		      WHERE id = ? AND tenant_id = ? AND business_unit_id = ?
		     UNION ALL
		     SELECT f.id, f.parent_id, a.depth + 1
		       FROM folders f JOIN ancestors a ON f.id = a.parent_id
		      WHERE a.depth < ?
		 )
		 SELECT EXISTS(SELECT 1 FROM ancestors WHERE id = ?)`,
		proposedParentID, scope.TenantID, scope.BusinessUnitID,
		domain.MaxFolderDepth, folderID).Scan(&cycle)
	if err != nil {
		return false, err
	}
	return cycle, nil
}
