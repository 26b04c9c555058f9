package repository

import (
	"context"

	"github.com/commonshub/trustcore/internal/model"
	"github.com/gofrs/uuid/v5"
)

// LevelRepository stores per-community named trust levels.
type LevelRepository interface {
	// Create inserts a level. Returns errs.ErrConflict if the name or
	// the threshold is already taken within the community.
	Create(ctx context.Context, communityID uuid.UUID, name string, threshold int) (*model.TrustLevel, error)

	// GetByID loads a level, errs.ErrNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.TrustLevel, error)

	// GetByName loads a level by exact name within a community,
	// errs.ErrNotFound if absent.
	GetByName(ctx context.Context, communityID uuid.UUID, name string) (*model.TrustLevel, error)

	// ListByCommunity returns a community's levels ordered by ascending
	// threshold.
	ListByCommunity(ctx context.Context, communityID uuid.UUID) ([]model.TrustLevel, error)

	// Update overwrites name and/or threshold (nil leaves a field as is).
	// errs.ErrNotFound if the level is absent, errs.ErrConflict on a
	// duplicate name or threshold.
	Update(ctx context.Context, id uuid.UUID, name *string, threshold *int) (*model.TrustLevel, error)

	// Delete removes a level, errs.ErrNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error

	// CreateDefaults seeds the standard level ladder for a community.
	CreateDefaults(ctx context.Context, communityID uuid.UUID) ([]model.TrustLevel, error)
}
