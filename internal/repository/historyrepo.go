package repository

import (
	"context"

	"github.com/commonshub/trustcore/internal/model"
	"github.com/gofrs/uuid/v5"
)

// HistoryRepository reads the append-only trust ledger. Writes happen
// only through TrustRepository mutations.
type HistoryRepository interface {
	// PageForUser returns a newest-first page of ledger rows for a user
	// in a community.
	PageForUser(ctx context.Context, communityID, toUserID uuid.UUID, limit, offset int) ([]model.HistoryEntry, error)

	// TimelineAsc returns ledger events for a user matching the filter,
	// ordered ascending by time with insertion sequence as tie-break,
	// joined with community names (empty string when the community row
	// is gone). CumulativeScore is left for the caller to fill.
	TimelineAsc(ctx context.Context, toUserID uuid.UUID, f model.TimelineFilter) ([]model.TimelineEvent, error)

	// SumDeltas returns the ledger sum for a (community, user) pair.
	SumDeltas(ctx context.Context, communityID, toUserID uuid.UUID) (int, error)

	// Summary aggregates a user's ledger: totals plus a per-community
	// breakdown. communityID narrows the aggregation when non-nil.
	Summary(ctx context.Context, toUserID uuid.UUID, communityID *uuid.UUID) (*model.TrustSummary, error)
}
