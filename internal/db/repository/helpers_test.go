package repository

import (
	"context"
	"database/sql"
	"testing"

	internaldb "querydesk/internal/db"
	"querydesk/internal/domain"
)

// openTestDB opens a migrated test database.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	writeDB, _ := internaldb.OpenTestSQLite(t)
	return writeDB
}

// scopedCtx returns a context carrying the default test scope.
func scopedCtx() context.Context {
	return domain.WithScope(context.Background(), domain.Scope{
		TenantID: "t-1", BusinessUnitID: "bu-1", UserID: "u-1",
	})
}

// otherScopeCtx returns a context for a different tenant, for isolation tests.
func otherScopeCtx() context.Context {
	return domain.WithScope(context.Background(), domain.Scope{
		TenantID: "t-2", BusinessUnitID: "bu-2", UserID: "u-2",
	})
}

func strp(s string) *string { return &s }
