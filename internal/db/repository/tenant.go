package repository

import (
	"context"
	"database/sql"
)

var _ interface {
	Exists(ctx context.Context, tenantID, businessUnitID string) (bool, error)
} = (*TenantRepo)(nil)

// TenantRepo implements domain.TenantDirectory over the tenants table.
// It is the one repository that runs outside a tenant scope: the tenancy
// runner consults it to establish the scope in the first place.
type TenantRepo struct {
	db *sql.DB
}

// NewTenantRepo creates a new TenantRepo.
func NewTenantRepo(db *sql.DB) *TenantRepo {
	return &TenantRepo{db: db}
}

// Exists reports whether the tenant/business-unit pair is registered.
func (r *TenantRepo) Exists(ctx context.Context, tenantID, businessUnitID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM tenants WHERE tenant_id = ? AND business_unit_id = ?)`,
		tenantID, businessUnitID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Register inserts a tenant/business-unit pair. Idempotent.
func (r *TenantRepo) Register(ctx context.Context, tenantID, businessUnitID, name string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tenants (tenant_id, business_unit_id, name) VALUES (?, ?, ?)
		 ON CONFLICT(tenant_id, business_unit_id) DO NOTHING`,
		tenantID, businessUnitID, name)
	return err
}
