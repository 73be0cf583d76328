// Package folder implements the folder hierarchy manager.
package folder

import (
	"context"
	"fmt"
	"log/slog"

	"querydesk/internal/domain"
)

// Service provides business logic for the per-scope folder tree: CRUD with
// ancestry-cycle prevention and a non-empty-deletion guard.
type Service struct {
	repo   domain.FolderRepository
	flags  domain.FeatureFlags
	logger *slog.Logger
}

// New creates a new Service.
func New(repo domain.FolderRepository, flags domain.FeatureFlags, logger *slog.Logger) *Service {
	return &Service{repo: repo, flags: flags, logger: logger}
}

// Create creates a folder. The parent, when given, must exist in scope;
// shared visibility requires the team-collaboration flag.
func (s *Service) Create(ctx context.Context, req domain.CreateFolderRequest) (*domain.Folder, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPersonal
	}
	if visibility == domain.VisibilityShared {
		if err := s.requireTeamCollaboration(ctx); err != nil {
			return nil, err
		}
	}

	if req.ParentID != nil {
		if _, err := s.repo.GetByID(ctx, *req.ParentID); err != nil {
			return nil, err
		}
	}

	created, err := s.repo.Create(ctx, &domain.Folder{
		Name:       req.Name,
		ParentID:   req.ParentID,
		Visibility: visibility,
	})
	if err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}

	s.logger.Info("folder created", "folder", created.ID, "name", created.Name)
	return created, nil
}

// Get returns a folder by ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Folder, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns folders in scope.
func (s *Service) List(ctx context.Context, page domain.PageRequest) ([]domain.Folder, int64, error) {
	return s.repo.List(ctx, page)
}

// Update applies partial updates. A parent change is validated against the
// current persisted tree: self-parenting and any move that would make the
// folder its own ancestor are rejected.
func (s *Service) Update(ctx context.Context, id string, req domain.UpdateFolderRequest) (*domain.Folder, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.SetParent && req.ParentID != nil {
		if *req.ParentID == id {
			return nil, domain.ErrValidation("folder cannot be its own parent")
		}
		if _, err := s.repo.GetByID(ctx, *req.ParentID); err != nil {
			return nil, err
		}
		cycle, err := s.repo.WouldCreateCycle(ctx, id, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("cycle check: %w", err)
		}
		if cycle {
			return nil, domain.ErrValidation("moving folder would create a circular reference")
		}
	}

	if req.Visibility != nil && *req.Visibility == domain.VisibilityShared &&
		existing.Visibility != domain.VisibilityShared {
		if err := s.requireTeamCollaboration(ctx); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("update folder: %w", err)
	}
	return updated, nil
}

// Delete removes a folder. Deletion is a leaf operation: a folder that
// still owns child folders or saved queries is rejected.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	hasChildren, err := s.repo.HasChildren(ctx, id)
	if err != nil {
		return fmt.Errorf("check folder children: %w", err)
	}
	if hasChildren {
		return domain.ErrValidation("folder still contains folders or saved queries")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("folder deleted", "folder", id)
	return nil
}

// requireTeamCollaboration consults the external capability flag gating
// shared visibility. The flag is owned outside this core.
func (s *Service) requireTeamCollaboration(ctx context.Context) error {
	scope, ok := domain.ScopeFromContext(ctx)
	if !ok {
		return domain.ErrInternal("no tenant scope established")
	}
	enabled, err := s.flags.IsFeatureEnabled(ctx, scope.TenantID, domain.FeatureTeamCollaboration)
	if err != nil {
		return fmt.Errorf("check team collaboration flag: %w", err)
	}
	if !enabled {
		return domain.ErrValidation("shared folders require the team collaboration feature")
	}
	return nil
}
