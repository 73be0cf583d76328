// Package repository implements domain repository interfaces using SQLite.
//
// Every method is scope-implicit: it reads the tenant scope from the
// context and constrains all statements to that tenant/business-unit pair.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"querydesk/internal/domain"
)

// scopeFrom extracts the active tenant scope or fails. Repositories must
// never run a statement without one.
func scopeFrom(ctx context.Context) (domain.Scope, error) {
	scope, ok := domain.ScopeFromContext(ctx)
	if !ok || !scope.Valid() {
		return domain.Scope{}, domain.ErrInternal("no tenant scope established")
	}
	return scope, nil
}

func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound("resource not found")
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return domain.ErrValidation("resource already exists")
	}
	if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return domain.ErrValidation("resource is still referenced")
	}
	return err
}

// isLinkedKeyConflict reports whether err is a violation of the partial
// unique index guarding the one-to-one link invariant.
func isLinkedKeyConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), "idx_saved_queries_linked_key")
}

func nullStr(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func strPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}
