package deploy

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"querydesk/internal/domain"
)

// ScopeRunner is the tenancy runner surface the monitor needs.
type ScopeRunner interface {
	RunScoped(ctx context.Context, scope domain.Scope, op func(ctx context.Context) error) error
}

// DriftMonitor periodically re-checks drift for every linked saved query in
// a set of tenant scopes and logs divergence. Observational only: it never
// publishes.
type DriftMonitor struct {
	service *Service
	runner  ScopeRunner
	scopes  []domain.Scope
	logger  *slog.Logger
	cron    *cron.Cron
}

// NewDriftMonitor creates a DriftMonitor for the given scopes.
func NewDriftMonitor(service *Service, runner ScopeRunner, scopes []domain.Scope, logger *slog.Logger) *DriftMonitor {
	return &DriftMonitor{
		service: service,
		runner:  runner,
		scopes:  scopes,
		logger:  logger,
		cron:    cron.New(),
	}
}

// Start schedules the sweep with the given cron spec (e.g. "@every 1h")
// and starts the scheduler.
func (m *DriftMonitor) Start(spec string) error {
	if _, err := m.cron.AddFunc(spec, m.Sweep); err != nil {
		return err
	}
	m.cron.Start()
	m.logger.Info("drift monitor started", "schedule", spec, "scopes", len(m.scopes))
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (m *DriftMonitor) Stop() {
	<-m.cron.Stop().Done()
}

// Sweep runs one drift pass over all configured scopes.
func (m *DriftMonitor) Sweep() {
	ctx := context.Background()
	for _, scope := range m.scopes {
		if err := m.runner.RunScoped(ctx, scope, m.sweepScope); err != nil {
			m.logger.Warn("drift sweep failed", "tenant", scope.TenantID, "error", err)
		}
	}
}

func (m *DriftMonitor) sweepScope(ctx context.Context) error {
	linked, err := m.service.queries.ListLinked(ctx)
	if err != nil {
		return err
	}

	for _, q := range linked {
		report, err := m.service.CheckDrift(ctx, q.ID)
		if err != nil {
			m.logger.Warn("drift check failed", "query", q.ID, "error", err)
			continue
		}
		if report.HasDrift {
			m.logger.Warn("drift detected",
				"query", q.ID, "name", q.Name,
				"local_hash", report.LocalHash, "remote_hash", report.RemoteHash)
		}
	}
	return nil
}
