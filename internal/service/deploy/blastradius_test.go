package deploy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querydesk/internal/domain"
)

// automationDoc builds a detail document with a single query activity.
func automationDoc(name string, status int, kind int, ref string) domain.RawDocument {
	return domain.RawDocument{
		"name":   name,
		"status": float64(status),
		"steps": []interface{}{
			map[string]interface{}{
				"activities": []interface{}{
					map[string]interface{}{
						"objectTypeId":     float64(kind),
						"activityObjectId": ref,
					},
				},
			},
		},
	}
}

func listPage(total int, items ...map[string]interface{}) domain.RawDocument {
	list := make([]interface{}, len(items))
	for i, item := range items {
		list[i] = item
	}
	return domain.RawDocument{"items": list, "count": float64(total)}
}

func summaryItem(id, name string) map[string]interface{} {
	return map[string]interface{}{"id": id, "name": name}
}

func TestBlastRadius_MatchByRemoteKey(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := testCtx()
	q := env.linkedQuery(t, ctx, "Daily Export")

	env.gateway.requestFn = func(_ context.Context, _ domain.Scope, req domain.RemoteRequest) (domain.RawDocument, error) {
		switch req.Kind {
		case domain.RemoteGetAutomationList:
			return listPage(2, summaryItem("a-1", "Welcome Flow"), summaryItem("a-2", "Churn Watch")), nil
		case domain.RemoteGetAutomationDetail:
			if req.AutomationID == "a-1" {
				// References the linked remote key, not the object id.
				return automationDoc("Welcome Flow", statusRunning, domain.QueryActivityKind, "QA-KEY-1"), nil
			}
			return automationDoc("Churn Watch", statusPaused, domain.QueryActivityKind, "some-other-object"), nil
		default:
			return nil, fmt.Errorf("unexpected request kind %q", req.Kind)
		}
	}

	radius, err := env.svc.BlastRadius(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, radius.Automations, 1)
	assert.Equal(t, 1, radius.TotalCount)
	assert.False(t, radius.Partial)

	impact := radius.Automations[0]
	assert.Equal(t, "a-1", impact.ID)
	assert.Equal(t, "Welcome Flow", impact.Name)
	assert.Equal(t, "Running", impact.Status)
	assert.True(t, impact.IsHighRisk)
}

func TestBlastRadius_MatchByObjectID(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := testCtx()
	q := env.linkedQuery(t, ctx, "q")

	env.gateway.requestFn = func(_ context.Context, _ domain.Scope, req domain.RemoteRequest) (domain.RawDocument, error) {
		if req.Kind == domain.RemoteGetAutomationList {
			return listPage(1, summaryItem("a-1", "Flow")), nil
		}
		return automationDoc("Flow", statusStopped, domain.QueryActivityKind, "qa-obj-1"), nil
	}

	radius, err := env.svc.BlastRadius(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, radius.Automations, 1)
	assert.Equal(t, "Stopped", radius.Automations[0].Status)
	assert.False(t, radius.Automations[0].IsHighRisk)
}

func TestBlastRadius_NonQueryActivityIgnored(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := testCtx()
	q := env.linkedQuery(t, ctx, "q")

	env.gateway.requestFn = func(_ context.Context, _ domain.Scope, req domain.RemoteRequest) (domain.RawDocument, error) {
		if req.Kind == domain.RemoteGetAutomationList {
			return listPage(1, summaryItem("a-1", "Flow")), nil
		}
		// Same reference, wrong activity kind.
		return automationDoc("Flow", statusRunning, 42, "qa-key-1"), nil
	}

	radius, err := env.svc.BlastRadius(ctx, q.ID)
	require.NoError(t, err)
	assert.Empty(t, radius.Automations)
	assert.Zero(t, radius.TotalCount)
}

func TestBlastRadius_HighRiskClassification(t *testing.T) {
	cases := []struct {
		status   int
		label    string
		highRisk bool
	}{
		{statusError, "Error", false},
		{statusBuildError, "Build Error", false},
		{statusBuilding, "Building", false},
		{statusReady, "Ready", false},
		{statusRunning, "Running", true},
		{statusPaused, "Paused", false},
		{statusStopped, "Stopped", false},
		{statusScheduled, "Scheduled", true},
		{statusAwaitingTrigger, "Awaiting Trigger", true},
		{statusInactiveTrigger, "Inactive Trigger", false},
		{99, "Unknown", false},
	}

	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			env := newTestEnv(t, nil)
			ctx := testCtx()
			q := env.linkedQuery(t, ctx, "q")

			env.gateway.requestFn = func(_ context.Context, _ domain.Scope, req domain.RemoteRequest) (domain.RawDocument, error) {
				if req.Kind == domain.RemoteGetAutomationList {
					return listPage(1, summaryItem("a-1", "Flow")), nil
				}
				return automationDoc("Flow", tc.status, domain.QueryActivityKind, "qa-key-1"), nil
			}

			radius, err := env.svc.BlastRadius(ctx, q.ID)
			require.NoError(t, err)
			require.Len(t, radius.Automations, 1)
			assert.Equal(t, tc.label, radius.Automations[0].Status)
			assert.Equal(t, tc.highRisk, radius.Automations[0].IsHighRisk)
		})
	}
}

func TestBlastRadius_MissingStatusDefaultsToBuildError(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := testCtx()
	q := env.linkedQuery(t, ctx, "q")

	env.gateway.requestFn = func(_ context.Context, _ domain.Scope, req domain.RemoteRequest) (domain.RawDocument, error) {
		if req.Kind == domain.RemoteGetAutomationList {
			// Summary carries no status either.
			return listPage(1, summaryItem("a-1", "Flow")), nil
		}
		return domain.RawDocument{
			"steps": []interface{}{
				map[string]interface{}{
					"activities": []interface{}{
						map[string]interface{}{
							"objectTypeId":     float64(domain.QueryActivityKind),
							"activityObjectId": "qa-key-1",
						},
					},
				},
			},
		}, nil
	}

	radius, err := env.svc.BlastRadius(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, radius.Automations, 1)
	assert.Equal(t, "Build Error", radius.Automations[0].Status)
	assert.False(t, radius.Automations[0].IsHighRisk)
	// Name falls back to the summary when the detail omits it.
	assert.Equal(t, "Flow", radius.Automations[0].Name)
}

func TestBlastRadius_DetailFailureIsPartial(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := testCtx()
	q := env.linkedQuery(t, ctx, "q")

	env.gateway.requestFn = func(_ context.Context, _ domain.Scope, req domain.RemoteRequest) (domain.RawDocument, error) {
		switch req.Kind {
		case domain.RemoteGetAutomationList:
			return listPage(2, summaryItem("a-1", "Good"), summaryItem("a-2", "Bad")), nil
		case domain.RemoteGetAutomationDetail:
			if req.AutomationID == "a-2" {
				return nil, errors.New("detail fetch timed out")
			}
			return automationDoc("Good", statusRunning, domain.QueryActivityKind, "qa-key-1"), nil
		default:
			return nil, fmt.Errorf("unexpected request kind %q", req.Kind)
		}
	}

	radius, err := env.svc.BlastRadius(ctx, q.ID)
	require.NoError(t, err)
	// The failed automation is unknown, not excluded silently.
	assert.True(t, radius.Partial)
	assert.Equal(t, 1, radius.FailedDetailCount)
	require.Len(t, radius.Automations, 1)
	assert.Equal(t, "a-1", radius.Automations[0].ID)
}

func TestBlastRadius_DiscoveryFailureAborts(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := testCtx()
	q := env.linkedQuery(t, ctx, "q")

	discoveryErr := errors.New("list endpoint down")
	env.gateway.requestFn = func(_ context.Context, _ domain.Scope, req domain.RemoteRequest) (domain.RawDocument, error) {
		return nil, discoveryErr
	}

	_, err := env.svc.BlastRadius(ctx, q.ID)
	require.ErrorIs(t, err, discoveryErr)
}

func TestBlastRadius_PaginationAndDedup(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := testCtx()
	q := env.linkedQuery(t, ctx, "q")

	var listPages, detailCalls int32
	env.gateway.requestFn = func(_ context.Context, _ domain.Scope, req domain.RemoteRequest) (domain.RawDocument, error) {
		switch req.Kind {
		case domain.RemoteGetAutomationList:
			atomic.AddInt32(&listPages, 1)
			switch req.Page {
			case 1:
				return listPage(3, summaryItem("a-1", "One"), summaryItem("a-2", "Two")), nil
			case 2:
				// a-2 repeats across the page boundary; a-3 is new.
				return listPage(3, summaryItem("a-2", "Two"), summaryItem("a-3", "Three")), nil
			default:
				return listPage(3), nil
			}
		case domain.RemoteGetAutomationDetail:
			atomic.AddInt32(&detailCalls, 1)
			return automationDoc("x", statusReady, domain.QueryActivityKind, "unrelated"), nil
		default:
			return nil, fmt.Errorf("unexpected request kind %q", req.Kind)
		}
	}

	_, err := env.svc.BlastRadius(ctx, q.ID)
	require.NoError(t, err)
	// Total of 3 reached after page 2; page 3 is never requested.
	assert.Equal(t, int32(2), atomic.LoadInt32(&listPages))
	// Each unique automation is enriched exactly once.
	assert.Equal(t, int32(3), atomic.LoadInt32(&detailCalls))
}

func TestBlastRadius_StopsWhenPageHasNoNewIDs(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := testCtx()
	q := env.linkedQuery(t, ctx, "q")

	var listPages int32
	env.gateway.requestFn = func(_ context.Context, _ domain.Scope, req domain.RemoteRequest) (domain.RawDocument, error) {
		if req.Kind == domain.RemoteGetAutomationList {
			atomic.AddInt32(&listPages, 1)
			// Misreported total keeps the total-reached stop from firing; the
			// repeated page must trip the no-new-ids stop instead.
			return listPage(100, summaryItem("a-1", "One")), nil
		}
		return automationDoc("One", statusReady, domain.QueryActivityKind, "unrelated"), nil
	}

	_, err := env.svc.BlastRadius(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&listPages))
}

func TestBlastRadius_PageCap(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := testCtx()
	q := env.linkedQuery(t, ctx, "q")

	var listPages int32
	env.gateway.requestFn = func(_ context.Context, _ domain.Scope, req domain.RemoteRequest) (domain.RawDocument, error) {
		if req.Kind == domain.RemoteGetAutomationList {
			page := atomic.AddInt32(&listPages, 1)
			// Every page yields a fresh id and claims a huge total.
			return listPage(10000, summaryItem(fmt.Sprintf("a-%d", page), fmt.Sprintf("Auto %d", page))), nil
		}
		return automationDoc("x", statusReady, domain.QueryActivityKind, "unrelated"), nil
	}

	_, err := env.svc.BlastRadius(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(maxDiscoveryPages), atomic.LoadInt32(&listPages))
}

func TestBlastRadius_DetailConcurrencyBounded(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := testCtx()
	q := env.linkedQuery(t, ctx, "q")

	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0

	items := make([]map[string]interface{}, 20)
	for i := range items {
		items[i] = summaryItem(fmt.Sprintf("a-%d", i), fmt.Sprintf("Auto %d", i))
	}

	env.gateway.requestFn = func(_ context.Context, _ domain.Scope, req domain.RemoteRequest) (domain.RawDocument, error) {
		if req.Kind == domain.RemoteGetAutomationList {
			return listPage(len(items), items...), nil
		}
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()
		defer func() {
			mu.Lock()
			inFlight--
			mu.Unlock()
		}()
		return automationDoc("x", statusReady, domain.QueryActivityKind, "unrelated"), nil
	}

	_, err := env.svc.BlastRadius(ctx, q.ID)
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, maxInFlight, detailConcurrency)
}

func TestBlastRadius_Unlinked(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := testCtx()

	q, err := env.queries.Create(ctx, &domain.SavedQuery{Name: "unlinked"})
	require.NoError(t, err)

	_, err = env.svc.BlastRadius(ctx, q.ID)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}
