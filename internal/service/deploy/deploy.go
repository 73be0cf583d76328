// Package deploy implements the query-activity synchronization engine:
// drift detection, ordered publishing, and blast-radius analysis.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"querydesk/internal/db/crypto"
	"querydesk/internal/domain"
)

// Service coordinates the linked saved query, its version history, the
// publish audit trail, and the remote platform.
type Service struct {
	queries   domain.SavedQueryRepository
	versions  domain.QueryVersionRepository
	events    domain.PublishEventRepository
	gateway   domain.RemoteGateway
	encryptor *crypto.Encryptor
	logger    *slog.Logger
}

// New creates a new Service.
func New(
	queries domain.SavedQueryRepository,
	versions domain.QueryVersionRepository,
	events domain.PublishEventRepository,
	gateway domain.RemoteGateway,
	encryptor *crypto.Encryptor,
	logger *slog.Logger,
) *Service {
	return &Service{
		queries:   queries,
		versions:  versions,
		events:    events,
		gateway:   gateway,
		encryptor: encryptor,
		logger:    logger,
	}
}

// requireLinked returns the saved query when it holds a remote link.
func (s *Service) requireLinked(ctx context.Context, savedQueryID string) (*domain.SavedQuery, error) {
	q, err := s.queries.GetByID(ctx, savedQueryID)
	if err != nil {
		return nil, err
	}
	if !q.Linked() {
		return nil, domain.ErrNotFound("saved query %q is not linked to a remote object", savedQueryID)
	}
	return q, nil
}

// CheckDrift compares the latest local version's SQL text against the live
// remote definition. A saved query with no local versions yet compares as
// the empty string; that is drift against any non-empty remote content,
// not an error.
func (s *Service) CheckDrift(ctx context.Context, savedQueryID string) (*domain.DriftReport, error) {
	q, err := s.requireLinked(ctx, savedQueryID)
	if err != nil {
		return nil, err
	}
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	localSQL := ""
	latest, err := s.versions.LatestBySavedQuery(ctx, savedQueryID)
	switch {
	case err == nil:
		localSQL, err = s.encryptor.Decrypt(latest.SQLTextCipher)
		if err != nil {
			return nil, domain.ErrInternal("failed to read stored query text")
		}
	case isNotFound(err):
		// no local history yet
	default:
		return nil, fmt.Errorf("load latest version: %w", err)
	}

	doc, err := s.gateway.Request(ctx, scope, domain.RemoteRequest{
		Kind:      domain.RemoteGetQueryDetail,
		RemoteKey: q.Link.RemoteKey,
	})
	if err != nil {
		return nil, err
	}
	remoteSQL := parseRemoteQueryText(doc)

	localHash := domain.SQLHash(localSQL)
	remoteHash := domain.SQLHash(remoteSQL)

	return &domain.DriftReport{
		HasDrift:   localHash != remoteHash,
		LocalSQL:   localSQL,
		RemoteSQL:  remoteSQL,
		LocalHash:  localHash,
		RemoteHash: remoteHash,
	}, nil
}

// Publish pushes the named version's SQL text to the linked remote object,
// then records a publish event. The ordering is strict: the remote system
// is updated before the local event is written, never the reverse. A
// failed remote update leaves no local trace and propagates unchanged. A
// failed local write after a successful remote update also surfaces as-is;
// callers recover by re-checking drift.
func (s *Service) Publish(ctx context.Context, savedQueryID, versionID string) (*domain.PublishReceipt, error) {
	q, err := s.requireLinked(ctx, savedQueryID)
	if err != nil {
		return nil, err
	}
	scope, err := scopeFrom(ctx)
	if err != nil {
		return nil, err
	}

	version, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if version.SavedQueryID != savedQueryID {
		return nil, domain.ErrNotFound("version %q does not belong to saved query %q", versionID, savedQueryID)
	}

	sqlText, err := s.encryptor.Decrypt(version.SQLTextCipher)
	if err != nil {
		return nil, domain.ErrInternal("failed to read stored query text")
	}

	if _, err := s.gateway.Request(ctx, scope, domain.RemoteRequest{
		Kind:           domain.RemoteUpdateQueryText,
		RemoteObjectID: q.Link.RemoteObjectID,
		SQLText:        sqlText,
	}); err != nil {
		return nil, err
	}

	event, err := s.events.Create(ctx, &domain.PublishEvent{
		SavedQueryID:     savedQueryID,
		VersionID:        versionID,
		LinkedRemoteKey:  q.Link.RemoteKey,
		PublishedSQLHash: version.SQLTextHash,
	})
	if err != nil {
		// Remote already accepted the new text; surface the gap instead of
		// retrying or compensating.
		return nil, fmt.Errorf("record publish event after remote update: %w", err)
	}

	s.logger.Info("version published",
		"query", savedQueryID, "version", versionID, "remote_key", q.Link.RemoteKey)

	return &domain.PublishReceipt{
		EventID:      event.ID,
		SavedQueryID: savedQueryID,
		VersionID:    versionID,
		SQLHash:      event.PublishedSQLHash,
		PublishedAt:  event.CreatedAt,
	}, nil
}

// ListPublishEvents returns the saved query's publish audit trail,
// newest first.
func (s *Service) ListPublishEvents(ctx context.Context, savedQueryID string, page domain.PageRequest) ([]domain.PublishEvent, int64, error) {
	if _, err := s.queries.GetByID(ctx, savedQueryID); err != nil {
		return nil, 0, err
	}
	return s.events.ListBySavedQuery(ctx, savedQueryID, page)
}

func scopeFrom(ctx context.Context) (domain.Scope, error) {
	scope, ok := domain.ScopeFromContext(ctx)
	if !ok || !scope.Valid() {
		return domain.Scope{}, domain.ErrInternal("no tenant scope established")
	}
	return scope, nil
}

func isNotFound(err error) bool {
	var notFound *domain.NotFoundError
	return errors.As(err, &notFound)
}
