package domain

import "context"

type scopeKey struct{}

// Scope identifies the tenant, business unit, and acting user for a
// request. Every repository call runs inside exactly one Scope; data from
// one scope is never visible to another.
type Scope struct {
	TenantID       string
	BusinessUnitID string
	UserID         string
}

// Valid reports whether all three identity components are present.
func (s Scope) Valid() bool {
	return s.TenantID != "" && s.BusinessUnitID != "" && s.UserID != ""
}

// WithScope stores a Scope in the context.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFromContext extracts the Scope from the context.
func ScopeFromContext(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(Scope)
	return s, ok
}
