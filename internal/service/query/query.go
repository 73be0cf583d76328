// Package query implements saved query management and version history.
package query

import (
	"context"
	"fmt"
	"log/slog"

	"querydesk/internal/db/crypto"
	"querydesk/internal/domain"
)

// Service provides business logic for saved queries and their immutable
// version snapshots. SQL text is encrypted at rest; every save and every
// restore appends a new version.
type Service struct {
	queries   domain.SavedQueryRepository
	versions  domain.QueryVersionRepository
	folders   domain.FolderRepository
	encryptor *crypto.Encryptor
	logger    *slog.Logger
}

// New creates a new Service.
func New(
	queries domain.SavedQueryRepository,
	versions domain.QueryVersionRepository,
	folders domain.FolderRepository,
	encryptor *crypto.Encryptor,
	logger *slog.Logger,
) *Service {
	return &Service{
		queries:   queries,
		versions:  versions,
		folders:   folders,
		encryptor: encryptor,
		logger:    logger,
	}
}

// Create creates a saved query, filing it in a folder when given, and
// records an initial version when SQL text is provided.
func (s *Service) Create(ctx context.Context, req domain.CreateSavedQueryRequest) (*domain.SavedQuery, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.FolderID != nil {
		if _, err := s.folders.GetByID(ctx, *req.FolderID); err != nil {
			return nil, err
		}
	}

	created, err := s.queries.Create(ctx, &domain.SavedQuery{
		Name:     req.Name,
		FolderID: req.FolderID,
	})
	if err != nil {
		return nil, fmt.Errorf("create saved query: %w", err)
	}

	if req.SQLText != "" {
		if _, err := s.SaveVersion(ctx, created.ID, req.SQLText, nil); err != nil {
			return nil, fmt.Errorf("create initial version: %w", err)
		}
	}

	s.logger.Info("saved query created", "query", created.ID, "name", created.Name)
	return created, nil
}

// Get returns a saved query by ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.SavedQuery, error) {
	return s.queries.GetByID(ctx, id)
}

// List returns saved queries in scope, optionally filtered by folder.
func (s *Service) List(ctx context.Context, folderID *string, page domain.PageRequest) ([]domain.SavedQuery, int64, error) {
	return s.queries.List(ctx, folderID, page)
}

// Update applies partial updates to a saved query's metadata.
func (s *Service) Update(ctx context.Context, id string, req domain.UpdateSavedQueryRequest) (*domain.SavedQuery, error) {
	if req.SetFolder && req.FolderID != nil {
		if _, err := s.folders.GetByID(ctx, *req.FolderID); err != nil {
			return nil, err
		}
	}
	return s.queries.Update(ctx, id, req)
}

// Delete removes a saved query. Queries with version history or publish
// events are refused by the schema; history is never cascaded away here.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.queries.Delete(ctx, id)
}

// SaveVersion encrypts and appends a new "edit" version of the SQL text.
func (s *Service) SaveVersion(ctx context.Context, savedQueryID, sqlText string, versionName *string) (*domain.QueryVersion, error) {
	if _, err := s.queries.GetByID(ctx, savedQueryID); err != nil {
		return nil, err
	}

	cipher, err := s.encryptor.Encrypt(sqlText)
	if err != nil {
		return nil, domain.ErrInternal("failed to store query text")
	}

	version, err := s.versions.Create(ctx, &domain.QueryVersion{
		SavedQueryID:  savedQueryID,
		SQLTextCipher: cipher,
		SQLTextHash:   domain.SQLHash(sqlText),
		LineCount:     domain.SQLLineCount(sqlText),
		Source:        domain.VersionSourceEdit,
		VersionName:   versionName,
	})
	if err != nil {
		return nil, fmt.Errorf("save version: %w", err)
	}
	return version, nil
}

// RestoreVersion appends a new "restore" version carrying the old
// version's SQL text. History is never rewritten.
func (s *Service) RestoreVersion(ctx context.Context, savedQueryID, versionID string) (*domain.QueryVersion, error) {
	source, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if source.SavedQueryID != savedQueryID {
		return nil, domain.ErrNotFound("version %q does not belong to saved query %q", versionID, savedQueryID)
	}

	restored, err := s.versions.Create(ctx, &domain.QueryVersion{
		SavedQueryID:   savedQueryID,
		SQLTextCipher:  source.SQLTextCipher,
		SQLTextHash:    source.SQLTextHash,
		LineCount:      source.LineCount,
		Source:         domain.VersionSourceRestore,
		RestoredFromID: &source.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("restore version: %w", err)
	}

	s.logger.Info("version restored", "query", savedQueryID, "from", versionID, "new", restored.ID)
	return restored, nil
}

// RenameVersion updates a version's display name, its only mutable field.
func (s *Service) RenameVersion(ctx context.Context, versionID, name string) (*domain.QueryVersion, error) {
	if name == "" {
		return nil, domain.ErrValidation("version name cannot be empty")
	}
	return s.versions.UpdateName(ctx, versionID, name)
}

// ListVersions returns a saved query's versions, newest first.
func (s *Service) ListVersions(ctx context.Context, savedQueryID string, page domain.PageRequest) ([]domain.QueryVersion, int64, error) {
	if _, err := s.queries.GetByID(ctx, savedQueryID); err != nil {
		return nil, 0, err
	}
	return s.versions.ListBySavedQuery(ctx, savedQueryID, page)
}

// VersionText decrypts and returns a version's SQL text. Decrypt failures
// surface as a generic internal error; encryption detail is never exposed.
func (s *Service) VersionText(ctx context.Context, versionID string) (string, error) {
	version, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return "", err
	}
	text, err := s.encryptor.Decrypt(version.SQLTextCipher)
	if err != nil {
		return "", domain.ErrInternal("failed to read stored query text")
	}
	return text, nil
}
