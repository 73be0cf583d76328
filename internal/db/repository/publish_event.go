package repository

import (
	"context"
	"database/sql"

	"querydesk/internal/domain"
)

var _ domain.PublishEventRepository = (*PublishEventRepo)(nil)

// PublishEventRepo implements domain.PublishEventRepository using SQLite.
// The table is append-only; there are no update or delete statements.
type PublishEventRepo struct {
	db *sql.DB
}

// NewPublishEventRepo creates a new PublishEventRepo.
func NewPublishEventRepo(db *sql.DB) *PublishEventRepo {
	return &PublishEventRepo{db: db}
}

const eventColumns = `id, saved_query_id, version_id, tenant_id, business_unit_id, user_id,
	linked_remote_key, published_sql_hash, created_at`

func scanEvent(row interface{ Scan(...interface{}) error }) (*domain.PublishEvent, error) {
	var e domain.PublishEvent
	if err := row.Scan(&e.ID, &e.SavedQueryID, &e.VersionID, &e.TenantID, &e.BusinessUnitID,
		&e.UserID, &e.LinkedRemoteKey, &e.PublishedSQLHash, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// Create appends a publish event.
func (r *PublishEventRepo) Create(ctx context.Context, e *domain.PublishEvent) (*domain.PublishEvent, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	id := domain.NewID()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO publish_events
		 (id, saved_query_id, version_id, tenant_id, business_unit_id, user_id,
		  linked_remote_key, published_sql_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, e.SavedQueryID, e.VersionID, scope.TenantID, scope.BusinessUnitID,
		scope.UserID, e.LinkedRemoteKey, e.PublishedSQLHash)
	if err != nil {
		return nil, mapDBError(err)
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM publish_events WHERE id = ?`, id)
	created, err := scanEvent(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return created, nil
}

// ListBySavedQuery returns publish events newest-first.
func (r *PublishEventRepo) ListBySavedQuery(ctx context.Context, savedQueryID string, page domain.PageRequest) ([]domain.PublishEvent, int64, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM publish_events
		 WHERE saved_query_id = ? AND tenant_id = ? AND business_unit_id = ?`,
		savedQueryID, scope.TenantID, scope.BusinessUnitID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM publish_events
		 WHERE saved_query_id = ? AND tenant_id = ? AND business_unit_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		savedQueryID, scope.TenantID, scope.BusinessUnitID, page.Limit(), page.Start())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []domain.PublishEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, *e)
	}
	return events, total, rows.Err()
}

// LatestBySavedQuery returns the most recent publish event.
func (r *PublishEventRepo) LatestBySavedQuery(ctx context.Context, savedQueryID string) (*domain.PublishEvent, error) {
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM publish_events
		 WHERE saved_query_id = ? AND tenant_id = ? AND business_unit_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		savedQueryID, scope.TenantID, scope.BusinessUnitID)
	e, err := scanEvent(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return e, nil
}
