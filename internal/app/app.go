// Package app wires repositories, services, and collaborators into a
// running application.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"querydesk/internal/config"
	"querydesk/internal/db/crypto"
	"querydesk/internal/db/repository"
	"querydesk/internal/domain"
	"querydesk/internal/gateway"
	"querydesk/internal/service/deploy"
	"querydesk/internal/service/folder"
	"querydesk/internal/service/link"
	"querydesk/internal/service/query"
	"querydesk/internal/tenancy"
)

// App holds the assembled service layer. HTTP controllers, auth, and
// request validation live outside this module and consume these services.
type App struct {
	Logger *slog.Logger
	Runner *tenancy.Runner

	Tenants *repository.TenantRepo
	Folders *folder.Service
	Queries *query.Service
	Links   *link.Service
	Deploy  *deploy.Service

	DriftMonitor *deploy.DriftMonitor
}

// New assembles the application from config and open database pools.
func New(cfg *config.Config, writeDB, readDB *sql.DB, logger *slog.Logger) (*App, error) {
	encryptor, err := crypto.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("init encryptor: %w", err)
	}

	tenantRepo := repository.NewTenantRepo(writeDB)
	folderRepo := repository.NewFolderRepo(writeDB)
	queryRepo := repository.NewSavedQueryRepo(writeDB)
	versionRepo := repository.NewQueryVersionRepo(writeDB)
	eventRepo := repository.NewPublishEventRepo(writeDB)

	remote := gateway.New(gateway.Options{
		BaseURL: cfg.Gateway.BaseURL,
		Timeout: cfg.Gateway.Timeout,
		RPS:     cfg.Gateway.RPS,
		Burst:   cfg.Gateway.Burst,
	})

	flags := NewStaticFlags(map[string]bool{
		domain.FeatureTeamCollaboration: cfg.FeatureTeamCollaboration,
	})

	runner := tenancy.NewRunner(tenantRepo)
	deploySvc := deploy.New(queryRepo, versionRepo, eventRepo, remote, encryptor, logger)

	a := &App{
		Logger:  logger,
		Runner:  runner,
		Tenants: tenantRepo,
		Folders: folder.New(folderRepo, flags, logger),
		Queries: query.New(queryRepo, versionRepo, folderRepo, encryptor, logger),
		Links:   link.New(queryRepo, logger),
		Deploy:  deploySvc,
	}

	if cfg.DriftSweepSchedule != "" {
		scopes, err := parseSweepScopes(cfg.DriftSweepScopes)
		if err != nil {
			return nil, err
		}
		a.DriftMonitor = deploy.NewDriftMonitor(deploySvc, runner, scopes, logger)
	}

	return a, nil
}

// parseSweepScopes parses "tenant:business-unit:user" triples.
func parseSweepScopes(raw []string) ([]domain.Scope, error) {
	scopes := make([]domain.Scope, 0, len(raw))
	for _, entry := range raw {
		parts := strings.Split(entry, ":")
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return nil, fmt.Errorf("invalid DRIFT_SWEEP_SCOPES entry %q (want tenant:business-unit:user)", entry)
		}
		scopes = append(scopes, domain.Scope{
			TenantID:       parts[0],
			BusinessUnitID: parts[1],
			UserID:         parts[2],
		})
	}
	return scopes, nil
}
