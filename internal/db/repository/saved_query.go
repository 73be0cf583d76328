package repository

import (
	"context"
	"database/sql"

	"querydesk/internal/domain"
)

var _ domain.SavedQueryRepository = (*SavedQueryRepo)(nil)

// SavedQueryRepo implements domain.SavedQueryRepository using SQLite.
//
// The one-to-one link invariant lives in the schema: a partial unique index
// over (tenant_id, business_unit_id, linked_remote_key) closes the race
// between concurrent LinkToRemote calls for the same key.
type SavedQueryRepo struct {
	db *sql.DB
}

// NewSavedQueryRepo creates a new SavedQueryRepo.
func NewSavedQueryRepo(db *sql.DB) *SavedQueryRepo {
	return &SavedQueryRepo{db: db}
}

const savedQueryColumns = `id, tenant_id, business_unit_id, owner_user_id, folder_id, name,
	linked_remote_object_id, linked_remote_key, linked_remote_name, linked_at, created_at, updated_at`

func scanSavedQuery(row interface{ Scan(...interface{}) error }) (*domain.SavedQuery, error) {
	var q domain.SavedQuery
	var folder, objID, key, name sql.NullString
	var linkedAt sql.NullTime
	if err := row.Scan(&q.ID, &q.TenantID, &q.BusinessUnitID, &q.OwnerUserID,
		&folder, &q.Name, &objID, &key, &name, &linkedAt, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	q.FolderID = strPtr(folder)
	if key.Valid {
		q.Link = &domain.RemoteLink{
			RemoteObjectID: objID.String,
			RemoteKey:      key.String,
			RemoteName:     name.String,
			LinkedAt:       linkedAt.Time,
		}
	}
	return &q, nil
}

// Create inserts a new saved query in the active scope.
func (r *SavedQueryRepo) Create(ctx context.Context, q *domain.SavedQuery) (*domain.SavedQuery, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	id := domain.NewID()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO saved_queries (id, tenant_id, business_unit_id, owner_user_id, folder_id, name)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, scope.TenantID, scope.BusinessUnitID, scope.UserID, nullStr(q.FolderID), q.Name)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, id)
}

// GetByID returns a saved query by ID within the active scope.
func (r *SavedQueryRepo) GetByID(ctx context.Context, id string) (*domain.SavedQuery, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+savedQueryColumns+` FROM saved_queries
		 WHERE id = ? AND tenant_id = ? AND business_unit_id = ?`,
		id, scope.TenantID, scope.BusinessUnitID)
	q, err := scanSavedQuery(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return q, nil
}

// List returns saved queries in the active scope, optionally filtered by folder.
func (r *SavedQueryRepo) List(ctx context.Context, folderID *string, page domain.PageRequest) ([]domain.SavedQuery, int64, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, 0, err
	}

	where := ` WHERE tenant_id = ? AND business_unit_id = ?`
	args := []interface{}{scope.TenantID, scope.BusinessUnitID}
	if folderID != nil {
		where += ` AND folder_id = ?`
		args = append(args, *folderID)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM saved_queries`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+savedQueryColumns+` FROM saved_queries`+where+` ORDER BY name LIMIT ? OFFSET ?`,
		append(args, page.Limit(), page.Start())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var queries []domain.SavedQuery
	for rows.Next() {
		q, err := scanSavedQuery(rows)
		if err != nil {
			return nil, 0, err
		}
		queries = append(queries, *q)
	}
	return queries, total, rows.Err()
}

// Update applies partial updates to a saved query.
func (r *SavedQueryRepo) Update(ctx context.Context, id string, req domain.UpdateSavedQueryRequest) (*domain.SavedQuery, error) {
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
	folder := existing.FolderID
	if req.SetFolder {
		folder = req.FolderID
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE saved_queries SET name = ?, folder_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND tenant_id = ? AND business_unit_id = ?`,
		name, nullStr(folder), id, scope.TenantID, scope.BusinessUnitID)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, id)
}

// Delete removes a saved query by ID.
func (r *SavedQueryRepo) Delete(ctx context.Context, id string) error {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM saved_queries WHERE id = ? AND tenant_id = ? AND business_unit_id = ?`,
		id, scope.TenantID, scope.BusinessUnitID)
	if err != nil {
		return mapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound("saved query %q not found", id)
	}
	return nil
}

// LinkToRemote sets all four link fields in one statement. Re-linking an
// already-linked query replaces its target; a key held by a different saved
// query in scope trips the partial unique index and surfaces as
// LinkConflictError.
func (r *SavedQueryRepo) LinkToRemote(ctx context.Context, id string, link domain.RemoteLink) (*domain.SavedQuery, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE saved_queries
		    SET linked_remote_object_id = ?, linked_remote_key = ?, linked_remote_name = ?,
		        linked_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		  WHERE id = ? AND tenant_id = ? AND business_unit_id = ?`,
		link.RemoteObjectID, link.RemoteKey, link.RemoteName,
		id, scope.TenantID, scope.BusinessUnitID)
	if err != nil {
		if isLinkedKeyConflict(err) {
			return nil, domain.ErrLinkConflict("remote key %q is already linked to another saved query", link.RemoteKey)
		}
		return nil, mapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrNotFound("saved query %q not found", id)
	}
	return r.GetByID(ctx, id)
}

// UnlinkFromRemote clears all four link fields unconditionally. Unlinking
// an already-unlinked query is a no-op success.
func (r *SavedQueryRepo) UnlinkFromRemote(ctx context.Context, id string) (*domain.SavedQuery, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE saved_queries
		    SET linked_remote_object_id = NULL, linked_remote_key = NULL, linked_remote_name = NULL,
		        linked_at = NULL, updated_at = CURRENT_TIMESTAMP
		  WHERE id = ? AND tenant_id = ? AND business_unit_id = ?`,
		id, scope.TenantID, scope.BusinessUnitID)
	if err != nil {
		return nil, mapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrNotFound("saved query %q not found", id)
	}
	return r.GetByID(ctx, id)
}

// FindAllLinkedKeys returns remote key -> saved query name for every linked
// saved query in the active scope.
func (r *SavedQueryRepo) FindAllLinkedKeys(ctx context.Context) (map[string]string, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT linked_remote_key, name FROM saved_queries
		 WHERE tenant_id = ? AND business_unit_id = ? AND linked_remote_key IS NOT NULL`,
		scope.TenantID, scope.BusinessUnitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]string)
	for rows.Next() {
		var key, name string
		if err := rows.Scan(&key, &name); err != nil {
			return nil, err
		}
		keys[key] = name
	}
	return keys, rows.Err()
}

// ListLinked returns all saved queries in scope that hold a remote link.
func (r *SavedQueryRepo) ListLinked(ctx context.Context) ([]domain.SavedQuery, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+savedQueryColumns+` FROM saved_queries
		 WHERE tenant_id = ? AND business_unit_id = ? AND linked_remote_key IS NOT NULL
		 ORDER BY name`,
		scope.TenantID, scope.BusinessUnitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var queries []domain.SavedQuery
	for rows.Next() {
		q, err := scanSavedQuery(rows)
		if err != nil {
			return nil, err
		}
		queries = append(queries, *q)
	}
	return queries, rows.Err()
}
