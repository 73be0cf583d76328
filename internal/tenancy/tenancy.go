// Package tenancy establishes the scoped identity every core operation
// runs inside.
package tenancy

import (
	"context"

	"querydesk/internal/domain"
)

// Runner validates a tenant scope and installs it into the context for the
// duration of one operation. It is a capability boundary, not a cache: no
// state survives a call, and nested runs with different identities see only
// their own data.
type Runner struct {
	tenants domain.TenantDirectory
}

// NewRunner creates a Runner backed by the given tenant directory.
func NewRunner(tenants domain.TenantDirectory) *Runner {
	return &Runner{tenants: tenants}
}

// RunScoped validates the scope and invokes op with the scope installed in
// the context. If the scope is incomplete or the tenant is unknown, the
// call fails before op runs; op is never invoked.
func (r *Runner) RunScoped(ctx context.Context, scope domain.Scope, op func(ctx context.Context) error) error {
	if !scope.Valid() {
		return domain.ErrValidation("tenant, business unit, and user are all required")
	}

	known, err := r.tenants.Exists(ctx, scope.TenantID, scope.BusinessUnitID)
	if err != nil {
		return err
	}
	if !known {
		return domain.ErrNotFound("tenant %q / business unit %q is not registered", scope.TenantID, scope.BusinessUnitID)
	}

	return op(domain.WithScope(ctx, scope))
}

// RunScopedResult is RunScoped for operations that return a value.
func RunScopedResult[T any](ctx context.Context, r *Runner, scope domain.Scope, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.RunScoped(ctx, scope, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
