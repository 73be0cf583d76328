package folder

import "context"

type mockFlags struct {
	isFeatureEnabledFn func(ctx context.Context, tenantID, feature string) (bool, error)
}

func (m *mockFlags) IsFeatureEnabled(ctx context.Context, tenantID, feature string) (bool, error) {
	if m.isFeatureEnabledFn != nil {
		return m.isFeatureEnabledFn(ctx, tenantID, feature)
	}
	return false, nil
}
