package repository

import (
	"context"
	"database/sql"

	"querydesk/internal/domain"
)

var _ domain.QueryVersionRepository = (*QueryVersionRepo)(nil)

// QueryVersionRepo implements domain.QueryVersionRepository using SQLite.
// Versions are append-only; only the display name is ever updated.
type QueryVersionRepo struct {
	db *sql.DB
}

// NewQueryVersionRepo creates a new QueryVersionRepo.
func NewQueryVersionRepo(db *sql.DB) *QueryVersionRepo {
	return &QueryVersionRepo{db: db}
}

const versionColumns = `id, saved_query_id, sql_text_cipher, sql_text_hash, line_count,
	source, restored_from_id, version_name, created_at`

func scanVersion(row interface{ Scan(...interface{}) error }) (*domain.QueryVersion, error) {
	var v domain.QueryVersion
	var restoredFrom, name sql.NullString
	if err := row.Scan(&v.ID, &v.SavedQueryID, &v.SQLTextCipher, &v.SQLTextHash,
		&v.LineCount, &v.Source, &restoredFrom, &name, &v.CreatedAt); err != nil {
		return nil, err
	}
	v.RestoredFromID = strPtr(restoredFrom)
	v.VersionName = strPtr(name)
	return &v, nil
}

// Create appends a new version snapshot.
func (r *QueryVersionRepo) Create(ctx context.Context, v *domain.QueryVersion) (*domain.QueryVersion, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	id := domain.NewID()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO query_versions
		 (id, saved_query_id, tenant_id, business_unit_id, sql_text_cipher, sql_text_hash,
		  line_count, source, restored_from_id, version_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, v.SavedQueryID, scope.TenantID, scope.BusinessUnitID,
		v.SQLTextCipher, v.SQLTextHash, v.LineCount, v.Source,
		nullStr(v.RestoredFromID), nullStr(v.VersionName))
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, id)
}

// GetByID returns a version by ID within the active scope.
func (r *QueryVersionRepo) GetByID(ctx context.Context, id string) (*domain.QueryVersion, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM query_versions
		 WHERE id = ? AND tenant_id = ? AND business_unit_id = ?`,
		id, scope.TenantID, scope.BusinessUnitID)
	v, err := scanVersion(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return v, nil
}

// ListBySavedQuery returns versions newest-first.
func (r *QueryVersionRepo) ListBySavedQuery(ctx context.Context, savedQueryID string, page domain.PageRequest) ([]domain.QueryVersion, int64, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM query_versions
		 WHERE saved_query_id = ? AND tenant_id = ? AND business_unit_id = ?`,
		savedQueryID, scope.TenantID, scope.BusinessUnitID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+versionColumns+` FROM query_versions
		 WHERE saved_query_id = ? AND tenant_id = ? AND business_unit_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		savedQueryID, scope.TenantID, scope.BusinessUnitID, page.Limit(), page.Start())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var versions []domain.QueryVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, 0, err
		}
		versions = append(versions, *v)
	}
	return versions, total, rows.Err()
}

// LatestBySavedQuery returns the most recent version. UUIDv7 IDs break ties
// within the one-second resolution of created_at.
func (r *QueryVersionRepo) LatestBySavedQuery(ctx context.Context, savedQueryID string) (*domain.QueryVersion, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM query_versions
		 WHERE saved_query_id = ? AND tenant_id = ? AND business_unit_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		savedQueryID, scope.TenantID, scope.BusinessUnitID)
	v, err := scanVersion(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return v, nil
}

// UpdateName sets a version's display name, the only mutable field.
func (r *QueryVersionRepo) UpdateName(ctx context.Context, id string, name string) (*domain.QueryVersion, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE query_versions SET version_name = ?
		 WHERE id = ? AND tenant_id = ? AND business_unit_id = ?`,
		name, id, scope.TenantID, scope.BusinessUnitID)
	if err != nil {
		return nil, mapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrNotFound("version %q not found", id)
	}
	return r.GetByID(ctx, id)
}
