package app

import (
	"context"

	"querydesk/internal/domain"
)

var _ domain.FeatureFlags = (*StaticFlags)(nil)

// StaticFlags is a config-backed feature flag provider. Tier resolution
// lives outside this core; in a standalone deployment flags come from the
// environment and apply to all tenants alike.
type StaticFlags struct {
	enabled map[string]bool
}

// NewStaticFlags creates a StaticFlags provider.
func NewStaticFlags(enabled map[string]bool) *StaticFlags {
	if enabled == nil {
		enabled = map[string]bool{}
	}
	return &StaticFlags{enabled: enabled}
}

// IsFeatureEnabled reports whether the feature is on.
func (f *StaticFlags) IsFeatureEnabled(_ context.Context, _ string, feature string) (bool, error) {
	return f.enabled[feature], nil
}
