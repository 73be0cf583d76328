package deploy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querydesk/internal/domain"
)

type mockRunner struct {
	runScopedFn func(ctx context.Context, scope domain.Scope, op func(ctx context.Context) error) error
}

func (m *mockRunner) RunScoped(ctx context.Context, scope domain.Scope, op func(ctx context.Context) error) error {
	if m.runScopedFn != nil {
		return m.runScopedFn(ctx, scope, op)
	}
	return op(domain.WithScope(ctx, scope))
}

func TestDriftMonitor_Sweep(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := testCtx()

	q := env.linkedQuery(t, ctx, "Daily Export")
	env.saveVersion(t, ctx, q.ID, "SELECT 2")

	driftChecks := 0
	env.gateway.requestFn = func(_ context.Context, _ domain.Scope, req domain.RemoteRequest) (domain.RawDocument, error) {
		require.Equal(t, domain.RemoteGetQueryDetail, req.Kind)
		driftChecks++
		return domain.RawDocument{"queryText": "SELECT 1"}, nil
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	monitor := NewDriftMonitor(env.svc, &mockRunner{}, []domain.Scope{
		{TenantID: "t-1", BusinessUnitID: "bu-1", UserID: "u-1"},
	}, logger)

	monitor.Sweep()
	assert.Equal(t, 1, driftChecks)
}

func TestDriftMonitor_Sweep_RunnerErrorDoesNotStopOtherScopes(t *testing.T) {
	env := newTestEnv(t, nil)

	var visited []string
	runner := &mockRunner{
		runScopedFn: func(_ context.Context, scope domain.Scope, _ func(ctx context.Context) error) error {
			visited = append(visited, scope.TenantID)
			if scope.TenantID == "t-bad" {
				return errors.New("unknown tenant")
			}
			return nil
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	monitor := NewDriftMonitor(env.svc, runner, []domain.Scope{
		{TenantID: "t-bad", BusinessUnitID: "bu", UserID: "u"},
		{TenantID: "t-good", BusinessUnitID: "bu", UserID: "u"},
	}, logger)

	monitor.Sweep()
	assert.Equal(t, []string{"t-bad", "t-good"}, visited)
}

func TestDriftMonitor_Sweep_SkipsFailedCheck(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := testCtx()

	env.linkedQuery(t, ctx, "broken")
	// A second linked query so the sweep has something after the failure.
	q2, err := env.queries.Create(ctx, &domain.SavedQuery{Name: "fine"})
	require.NoError(t, err)
	_, err = env.queries.LinkToRemote(ctx, q2.ID, domain.RemoteLink{
		RemoteObjectID: "qa-obj-2", RemoteKey: "qa-key-2",
	})
	require.NoError(t, err)

	checked := 0
	env.gateway.requestFn = func(_ context.Context, _ domain.Scope, req domain.RemoteRequest) (domain.RawDocument, error) {
		checked++
		if req.RemoteKey == "qa-key-1" {
			return nil, errors.New("remote down")
		}
		return domain.RawDocument{"queryText": ""}, nil
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	monitor := NewDriftMonitor(env.svc, &mockRunner{}, []domain.Scope{
		{TenantID: "t-1", BusinessUnitID: "bu-1", UserID: "u-1"},
	}, logger)

	monitor.Sweep()
	// Both queries were checked despite the first failing.
	assert.Equal(t, 2, checked)
}

func TestDriftMonitor_StartRejectsBadSpec(t *testing.T) {
	env := newTestEnv(t, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	monitor := NewDriftMonitor(env.svc, &mockRunner{}, nil, logger)

	err := monitor.Start("not a cron spec")
	require.Error(t, err)
}

func TestDriftMonitor_StartStop(t *testing.T) {
	env := newTestEnv(t, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	monitor := NewDriftMonitor(env.svc, &mockRunner{}, nil, logger)

	require.NoError(t, monitor.Start("@every 1h"))
	monitor.Stop()
}
