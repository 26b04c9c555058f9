package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/commonshub/trustcore/internal/errs"
	"github.com/commonshub/trustcore/internal/model"
	"github.com/commonshub/trustcore/internal/repository"
)

// LevelService manages per-community named trust levels. Levels are
// reference data: admins shape them, the resolver reads them.
type LevelService interface {
	// Create adds a level; name and threshold must both be unique
	// within the community.
	Create(ctx context.Context, communityID uuid.UUID, name string, threshold int) (*model.TrustLevel, error)
	// Get loads a level by id.
	Get(ctx context.Context, id uuid.UUID) (*model.TrustLevel, error)
	// List returns a community's levels, lowest threshold first.
	List(ctx context.Context, communityID uuid.UUID) ([]model.TrustLevel, error)
	// Update changes name and/or threshold.
	Update(ctx context.Context, id uuid.UUID, name *string, threshold *int) (*model.TrustLevel, error)
	// Delete removes a level. Requirements referencing it will fail to
	// resolve with ErrNotFound until reconfigured.
	Delete(ctx context.Context, id uuid.UUID) error
	// InitializeDefaults seeds the standard ladder once; subsequent
	// calls return the existing levels untouched.
	InitializeDefaults(ctx context.Context, communityID uuid.UUID) ([]model.TrustLevel, error)
}

type LevelServiceImpl struct {
	levels repository.LevelRepository
}

// NewLevelService constructs LevelService.
func NewLevelService(levels repository.LevelRepository) *LevelServiceImpl {
	return &LevelServiceImpl{levels: levels}
}

// Create validates and inserts a level.
func (s *LevelServiceImpl) Create(ctx context.Context, communityID uuid.UUID, name string, threshold int) (*model.TrustLevel, error) {
	if communityID.IsNil() {
		return nil, fmt.Errorf("empty community id: %w", errs.ErrValidation)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("empty level name: %w", errs.ErrValidation)
	}
	if threshold < 0 {
		return nil, fmt.Errorf("threshold cannot be negative: %w", errs.ErrValidation)
	}
	return s.levels.Create(ctx, communityID, name, threshold)
}

// Get loads a level by id.
func (s *LevelServiceImpl) Get(ctx context.Context, id uuid.UUID) (*model.TrustLevel, error) {
	if id.IsNil() {
		return nil, fmt.Errorf("empty level id: %w", errs.ErrValidation)
	}
	return s.levels.GetByID(ctx, id)
}

// List returns levels ordered by ascending threshold.
func (s *LevelServiceImpl) List(ctx context.Context, communityID uuid.UUID) ([]model.TrustLevel, error) {
	if communityID.IsNil() {
		return nil, fmt.Errorf("empty community id: %w", errs.ErrValidation)
	}
	return s.levels.ListByCommunity(ctx, communityID)
}

// Update changes name and/or threshold after validation.
func (s *LevelServiceImpl) Update(ctx context.Context, id uuid.UUID, name *string, threshold *int) (*model.TrustLevel, error) {
	if id.IsNil() {
		return nil, fmt.Errorf("empty level id: %w", errs.ErrValidation)
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, fmt.Errorf("empty level name: %w", errs.ErrValidation)
		}
		name = &trimmed
	}
	if threshold != nil && *threshold < 0 {
		return nil, fmt.Errorf("threshold cannot be negative: %w", errs.ErrValidation)
	}
	return s.levels.Update(ctx, id, name, threshold)
}

// Delete removes a level.
func (s *LevelServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if id.IsNil() {
		return fmt.Errorf("empty level id: %w", errs.ErrValidation)
	}
	return s.levels.Delete(ctx, id)
}

// InitializeDefaults seeds the default ladder if the community has none.
func (s *LevelServiceImpl) InitializeDefaults(ctx context.Context, communityID uuid.UUID) ([]model.TrustLevel, error) {
	if communityID.IsNil() {
		return nil, fmt.Errorf("empty community id: %w", errs.ErrValidation)
	}
	existing, err := s.levels.ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}
	return s.levels.CreateDefaults(ctx, communityID)
}
