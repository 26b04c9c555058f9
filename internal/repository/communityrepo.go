package repository

import (
	"context"

	"github.com/commonshub/trustcore/internal/model"
	"github.com/gofrs/uuid/v5"
)

// CommunityRepository reads community reference data: display name and
// the capability requirement mapping. Community lifecycle is owned
// elsewhere; this engine only consults it.
type CommunityRepository interface {
	// GetByID loads a community, errs.ErrNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Community, error)

	// List returns every community. Used by the decay sweep.
	List(ctx context.Context) ([]model.Community, error)
}

// NotificationRepository stores decay warnings for later delivery.
type NotificationRepository interface {
	// Create inserts a notification row.
	Create(ctx context.Context, n *model.Notification) error
}
