// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/commonshub/trustcore/internal/model"
	"github.com/gofrs/uuid/v5"
)

// TrustRepository provides transactional access to trust awards, admin
// grants, and the ledger rows recording their mutations. Every mutation
// appends exactly one history row in the same transaction as the
// live-table change: either both commit or neither does.
type TrustRepository interface {
	// CreateAward inserts a peer award and its +1 ledger row.
	// Returns errs.ErrConflict if the (community, from, to) award exists.
	CreateAward(ctx context.Context, communityID, fromUserID, toUserID uuid.UUID) (*model.TrustAward, error)

	// DeleteAward removes a peer award and appends its -1 ledger row.
	// Returns errs.ErrNotFound if no such award exists.
	DeleteAward(ctx context.Context, communityID, fromUserID, toUserID uuid.UUID) error

	// HasAward reports whether from has an active award toward to.
	HasAward(ctx context.Context, communityID, fromUserID, toUserID uuid.UUID) (bool, error)

	// ListAwardsFrom returns awards given by a user in a community.
	ListAwardsFrom(ctx context.Context, communityID, fromUserID uuid.UUID) ([]model.TrustAward, error)

	// ListAwardsTo returns awards held by a user in a community.
	ListAwardsTo(ctx context.Context, communityID, toUserID uuid.UUID) ([]model.TrustAward, error)

	// Recertify resets an award's decay anchor to now and appends a
	// zero-delta recertify ledger row. Returns errs.ErrNotFound if the
	// award does not exist.
	Recertify(ctx context.Context, communityID, fromUserID, toUserID uuid.UUID) error

	// UpsertGrant creates or overwrites the admin grant for a user and
	// appends a ledger row whose delta is newAmount - oldAmount.
	UpsertGrant(ctx context.Context, communityID, adminUserID, toUserID uuid.UUID, amount int) (*model.AdminTrustGrant, error)

	// DeleteGrant removes the admin grant and appends a ledger row with
	// delta -amount. Returns errs.ErrNotFound if no grant exists.
	DeleteGrant(ctx context.Context, communityID, adminUserID, toUserID uuid.UUID) error

	// GetGrant returns the admin grant for a user, or errs.ErrNotFound.
	GetGrant(ctx context.Context, communityID, toUserID uuid.UUID) (*model.AdminTrustGrant, error)

	// ListGrants returns every admin grant in a community.
	ListGrants(ctx context.Context, communityID uuid.UUID) ([]model.AdminTrustGrant, error)

	// Score returns the live-table score: COUNT of awards held plus the
	// grant amount if any. When expiredBefore is non-nil, awards last
	// updated before it are excluded from the count.
	Score(ctx context.Context, communityID, toUserID uuid.UUID, expiredBefore *time.Time) (int, error)

	// DecayingByGrantor returns awards given by a user whose last update
	// precedes before (i.e. endorsements already decaying).
	DecayingByGrantor(ctx context.Context, communityID, fromUserID uuid.UUID, before time.Time) ([]model.TrustAward, error)

	// AwardsNeedingNotice returns awards, across all communities, whose
	// last update falls in [start, end): the ones that crossed the decay
	// threshold during the sweep's window.
	AwardsNeedingNotice(ctx context.Context, start, end time.Time) ([]model.TrustAward, error)

	// UsersWithDecaying returns the distinct holders of decaying awards
	// in a community.
	UsersWithDecaying(ctx context.Context, communityID uuid.UUID, before time.Time) ([]uuid.UUID, error)
}
