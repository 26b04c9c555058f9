package service

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/commonshub/trustcore/internal/errs"
	"github.com/commonshub/trustcore/internal/model"
	"github.com/commonshub/trustcore/internal/repository"
)

// unknownCommunity labels history rows whose community was deleted; the
// reconstruction degrades instead of failing.
const unknownCommunity = "Unknown Community"

// Reconstructor replays the append-only ledger into score-over-time
// views and checks it against the live tables.
type Reconstructor interface {
	// Reconstruct returns a user's ledger events newest-first, each
	// carrying the cumulative score after its delta was applied.
	Reconstruct(ctx context.Context, userID uuid.UUID, f model.TimelineFilter) ([]model.TimelineEvent, error)
	// Summary aggregates a user's ledger across communities.
	Summary(ctx context.Context, userID uuid.UUID, f model.TimelineFilter) (*model.TrustSummary, error)
	// Audit verifies the ledger sum equals the live-table score for a
	// (community, user) pair, returning ErrInconsistent on divergence.
	Audit(ctx context.Context, communityID, userID uuid.UUID) error
}

type ReconstructorImpl struct {
	history repository.HistoryRepository
	trust   repository.TrustRepository
}

// NewReconstructor constructs a Reconstructor.
func NewReconstructor(history repository.HistoryRepository, trust repository.TrustRepository) *ReconstructorImpl {
	return &ReconstructorImpl{history: history, trust: trust}
}

// Reconstruct walks the filtered ledger oldest-first with a running
// total seeded at 0, then reverses so callers see newest entries first.
// The cumulative score of the first returned entry therefore equals the
// live score for the same filter at query time.
func (r *ReconstructorImpl) Reconstruct(ctx context.Context, userID uuid.UUID, f model.TimelineFilter) ([]model.TimelineEvent, error) {
	if userID.IsNil() {
		return nil, fmt.Errorf("empty user id: %w", errs.ErrValidation)
	}
	events, err := r.history.TimelineAsc(ctx, userID, f)
	if err != nil {
		return nil, err
	}

	cumulative := 0
	for i := range events {
		cumulative += events[i].Delta
		events[i].CumulativeScore = cumulative
		if events[i].CommunityName == "" {
			events[i].CommunityName = unknownCommunity
		}
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

// Summary aggregates ledger totals, substituting the sentinel for
// deleted communities.
func (r *ReconstructorImpl) Summary(ctx context.Context, userID uuid.UUID, f model.TimelineFilter) (*model.TrustSummary, error) {
	if userID.IsNil() {
		return nil, fmt.Errorf("empty user id: %w", errs.ErrValidation)
	}
	s, err := r.history.Summary(ctx, userID, f.CommunityID)
	if err != nil {
		return nil, err
	}
	for i := range s.ByCommunity {
		if s.ByCommunity[i].CommunityName == "" {
			s.ByCommunity[i].CommunityName = unknownCommunity
		}
	}
	return s, nil
}

// Audit cross-checks the two computation paths: live-table count versus
// ledger replay. They are maintained atomically and must always agree.
func (r *ReconstructorImpl) Audit(ctx context.Context, communityID, userID uuid.UUID) error {
	if communityID.IsNil() || userID.IsNil() {
		return fmt.Errorf("empty community/user id: %w", errs.ErrValidation)
	}
	live, err := r.trust.Score(ctx, communityID, userID, nil)
	if err != nil {
		return err
	}
	sum, err := r.history.SumDeltas(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if live != sum {
		return fmt.Errorf("community %s user %s: live score %d, ledger sum %d: %w",
			communityID, userID, live, sum, errs.ErrInconsistent)
	}
	return nil
}
