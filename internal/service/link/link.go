// Package link implements the registry tying saved queries to remote
// Query Activities under a one-to-one invariant.
package link

import (
	"context"
	"fmt"
	"log/slog"

	"querydesk/internal/domain"
)

// Service provides link and unlink operations for saved queries. The
// one-to-one invariant is enforced by the storage layer's uniqueness
// constraint, not by a check-then-write in this service.
type Service struct {
	queries domain.SavedQueryRepository
	logger  *slog.Logger
}

// New creates a new Service.
func New(queries domain.SavedQueryRepository, logger *slog.Logger) *Service {
	return &Service{queries: queries, logger: logger}
}

// LinkToRemote links a saved query to a remote object. Re-linking an
// already-linked query replaces its target; a key claimed by a different
// saved query in scope fails with LinkConflictError.
func (s *Service) LinkToRemote(ctx context.Context, savedQueryID string, req domain.LinkRequest) (*domain.SavedQuery, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.queries.GetByID(ctx, savedQueryID); err != nil {
		return nil, err
	}

	linked, err := s.queries.LinkToRemote(ctx, savedQueryID, domain.RemoteLink{
		RemoteObjectID: req.RemoteObjectID,
		RemoteKey:      req.RemoteKey,
		RemoteName:     req.RemoteName,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("saved query linked",
		"query", savedQueryID, "remote_key", req.RemoteKey, "remote_object", req.RemoteObjectID)
	return linked, nil
}

// UnlinkFromRemote clears the link fields. Idempotent: unlinking an
// already-unlinked query is a no-op success. Callers that need to know
// whether a link existed inspect the prior state first.
func (s *Service) UnlinkFromRemote(ctx context.Context, savedQueryID string) (*domain.SavedQuery, error) {
	unlinked, err := s.queries.UnlinkFromRemote(ctx, savedQueryID)
	if err != nil {
		return nil, fmt.Errorf("unlink saved query: %w", err)
	}
	return unlinked, nil
}

// FindAllLinkedKeys returns remote key -> saved query name for the scope.
// Higher layers use this to answer "is this remote object linked, and to
// what local name" without N lookups.
func (s *Service) FindAllLinkedKeys(ctx context.Context) (map[string]string, error) {
	return s.queries.FindAllLinkedKeys(ctx)
}
