// Package service contains application services for the trust engine.
//
// Services validate input and delegate to repositories. They carry no
// ambient identity: every operation takes the acting user id explicitly,
// and membership/admin checks are the caller's responsibility.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/commonshub/trustcore/internal/decay"
	"github.com/commonshub/trustcore/internal/errs"
	"github.com/commonshub/trustcore/internal/model"
	"github.com/commonshub/trustcore/internal/repository"
)

// History paging bounds.
const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// ScorePolicy controls how decay feeds back into scoring. Decay itself
// is informational; whether a fully-expired endorsement still counts is
// a community-platform policy decision.
type ScorePolicy struct {
	// CountExpired keeps fully-decayed awards in the score when true.
	CountExpired bool
}

// TrustService exposes the write paths and score/decay reads of the
// trust ledger.
type TrustService interface {
	// Score returns the current trust score for a user in a community.
	Score(ctx context.Context, communityID, userID uuid.UUID) (int, error)
	// Award records a one-point peer endorsement.
	Award(ctx context.Context, communityID, fromUserID, toUserID uuid.UUID) (*model.TrustAward, error)
	// Remove deletes a previously given endorsement.
	Remove(ctx context.Context, communityID, fromUserID, toUserID uuid.UUID) error
	// HasAwarded reports whether from currently endorses to.
	HasAwarded(ctx context.Context, communityID, fromUserID, toUserID uuid.UUID) (bool, error)
	// ListAwardsFrom returns endorsements given by a user.
	ListAwardsFrom(ctx context.Context, communityID, fromUserID uuid.UUID) ([]model.TrustAward, error)
	// ListAwardsTo returns endorsements held by a user.
	ListAwardsTo(ctx context.Context, communityID, toUserID uuid.UUID) ([]model.TrustAward, error)
	// SetAdminGrant creates or overwrites the admin grant for a user.
	SetAdminGrant(ctx context.Context, communityID, adminUserID, toUserID uuid.UUID, amount int) (*model.AdminTrustGrant, error)
	// DeleteAdminGrant removes the admin grant for a user.
	DeleteAdminGrant(ctx context.Context, communityID, adminUserID, toUserID uuid.UUID) error
	// GetAdminGrant returns the admin grant held by a user.
	GetAdminGrant(ctx context.Context, communityID, toUserID uuid.UUID) (*model.AdminTrustGrant, error)
	// ListGrants returns every admin grant in a community.
	ListGrants(ctx context.Context, communityID uuid.UUID) ([]model.AdminTrustGrant, error)
	// DecayStatus reports decay for endorsements given by a user.
	DecayStatus(ctx context.Context, communityID, fromUserID uuid.UUID) ([]model.DecayStatus, error)
	// DecayingAwards returns only the endorsements given by a user that
	// have started decaying and need recertification.
	DecayingAwards(ctx context.Context, communityID, fromUserID uuid.UUID) ([]model.DecayStatus, error)
	// ReceivedDecayStatus reports decay for endorsements held by a user.
	ReceivedDecayStatus(ctx context.Context, communityID, toUserID uuid.UUID) ([]model.DecayStatus, error)
	// Recertify resets the decay clock on endorsements from fromUserID
	// toward each listed user and returns how many were reset.
	Recertify(ctx context.Context, communityID, fromUserID uuid.UUID, toUserIDs []uuid.UUID) (int, error)
	// History returns a newest-first page of ledger rows for a user.
	History(ctx context.Context, communityID, userID uuid.UUID, page, limit int) ([]model.HistoryEntry, error)
}

type TrustServiceImpl struct {
	repo    repository.TrustRepository
	history repository.HistoryRepository
	policy  ScorePolicy
	now     func() time.Time
}

// NewTrustService constructs TrustService with the given scoring policy.
func NewTrustService(repo repository.TrustRepository, history repository.HistoryRepository, policy ScorePolicy) *TrustServiceImpl {
	return &TrustServiceImpl{repo: repo, history: history, policy: policy, now: time.Now}
}

// Score counts currently held awards (one point each) plus the admin
// grant amount, 0 when the user has neither.
func (s *TrustServiceImpl) Score(ctx context.Context, communityID, userID uuid.UUID) (int, error) {
	if communityID.IsNil() || userID.IsNil() {
		return 0, fmt.Errorf("empty community/user id: %w", errs.ErrValidation)
	}
	var expiredBefore *time.Time
	if !s.policy.CountExpired {
		horizon := decay.ExpiryHorizon(s.now())
		expiredBefore = &horizon
	}
	return s.repo.Score(ctx, communityID, userID, expiredBefore)
}

// Award validates and records a peer endorsement. The repository rejects
// duplicates before any ledger row is written.
func (s *TrustServiceImpl) Award(ctx context.Context, communityID, fromUserID, toUserID uuid.UUID) (*model.TrustAward, error) {
	if communityID.IsNil() || fromUserID.IsNil() || toUserID.IsNil() {
		return nil, fmt.Errorf("empty community/user id: %w", errs.ErrValidation)
	}
	if fromUserID == toUserID {
		return nil, fmt.Errorf("cannot award trust to yourself: %w", errs.ErrSelfAward)
	}
	return s.repo.CreateAward(ctx, communityID, fromUserID, toUserID)
}

// Remove deletes an endorsement; removing one that does not exist is an
// ErrNotFound, never a negative score.
func (s *TrustServiceImpl) Remove(ctx context.Context, communityID, fromUserID, toUserID uuid.UUID) error {
	if communityID.IsNil() || fromUserID.IsNil() || toUserID.IsNil() {
		return fmt.Errorf("empty community/user id: %w", errs.ErrValidation)
	}
	return s.repo.DeleteAward(ctx, communityID, fromUserID, toUserID)
}

// HasAwarded reports whether an endorsement exists.
func (s *TrustServiceImpl) HasAwarded(ctx context.Context, communityID, fromUserID, toUserID uuid.UUID) (bool, error) {
	if communityID.IsNil() || fromUserID.IsNil() || toUserID.IsNil() {
		return false, fmt.Errorf("empty community/user id: %w", errs.ErrValidation)
	}
	return s.repo.HasAward(ctx, communityID, fromUserID, toUserID)
}

// ListAwardsFrom returns endorsements given by a user.
func (s *TrustServiceImpl) ListAwardsFrom(ctx context.Context, communityID, fromUserID uuid.UUID) ([]model.TrustAward, error) {
	if communityID.IsNil() || fromUserID.IsNil() {
		return nil, fmt.Errorf("empty community/user id: %w", errs.ErrValidation)
	}
	return s.repo.ListAwardsFrom(ctx, communityID, fromUserID)
}

// ListAwardsTo returns endorsements held by a user.
func (s *TrustServiceImpl) ListAwardsTo(ctx context.Context, communityID, toUserID uuid.UUID) ([]model.TrustAward, error) {
	if communityID.IsNil() || toUserID.IsNil() {
		return nil, fmt.Errorf("empty community/user id: %w", errs.ErrValidation)
	}
	return s.repo.ListAwardsTo(ctx, communityID, toUserID)
}

// SetAdminGrant overwrites (never accumulates) the grant amount. An
// admin grant may target any member, including the admin themselves.
func (s *TrustServiceImpl) SetAdminGrant(ctx context.Context, communityID, adminUserID, toUserID uuid.UUID, amount int) (*model.AdminTrustGrant, error) {
	if communityID.IsNil() || adminUserID.IsNil() || toUserID.IsNil() {
		return nil, fmt.Errorf("empty community/user id: %w", errs.ErrValidation)
	}
	if amount < 0 {
		return nil, fmt.Errorf("grant amount cannot be negative: %w", errs.ErrValidation)
	}
	return s.repo.UpsertGrant(ctx, communityID, adminUserID, toUserID, amount)
}

// DeleteAdminGrant removes the grant, logging -amount in the ledger.
func (s *TrustServiceImpl) DeleteAdminGrant(ctx context.Context, communityID, adminUserID, toUserID uuid.UUID) error {
	if communityID.IsNil() || adminUserID.IsNil() || toUserID.IsNil() {
		return fmt.Errorf("empty community/user id: %w", errs.ErrValidation)
	}
	return s.repo.DeleteGrant(ctx, communityID, adminUserID, toUserID)
}

// GetAdminGrant returns the admin grant held by a user, ErrNotFound if
// none is set.
func (s *TrustServiceImpl) GetAdminGrant(ctx context.Context, communityID, toUserID uuid.UUID) (*model.AdminTrustGrant, error) {
	if communityID.IsNil() || toUserID.IsNil() {
		return nil, fmt.Errorf("empty community/user id: %w", errs.ErrValidation)
	}
	return s.repo.GetGrant(ctx, communityID, toUserID)
}

// ListGrants returns every admin grant in a community.
func (s *TrustServiceImpl) ListGrants(ctx context.Context, communityID uuid.UUID) ([]model.AdminTrustGrant, error) {
	if communityID.IsNil() {
		return nil, fmt.Errorf("empty community id: %w", errs.ErrValidation)
	}
	return s.repo.ListGrants(ctx, communityID)
}

func (s *TrustServiceImpl) decayStatuses(awards []model.TrustAward) []model.DecayStatus {
	now := s.now()
	out := make([]model.DecayStatus, 0, len(awards))
	for _, a := range awards {
		out = append(out, model.DecayStatus{
			AwardID:     a.ID,
			FromUserID:  a.FromUserID,
			ToUserID:    a.ToUserID,
			LastUpdated: a.UpdatedAt,
			DecayInfo:   decay.Status(a.UpdatedAt, now),
		})
	}
	return out
}

// DecayStatus reports, per endorsement given by fromUserID, how far it
// has decayed and how long until it expires.
func (s *TrustServiceImpl) DecayStatus(ctx context.Context, communityID, fromUserID uuid.UUID) ([]model.DecayStatus, error) {
	if communityID.IsNil() || fromUserID.IsNil() {
		return nil, fmt.Errorf("empty community/user id: %w", errs.ErrValidation)
	}
	awards, err := s.repo.ListAwardsFrom(ctx, communityID, fromUserID)
	if err != nil {
		return nil, err
	}
	return s.decayStatuses(awards), nil
}

// DecayingAwards lists the subset of a grantor's endorsements already
// past the decay threshold, oldest anchor first as storage returns them.
func (s *TrustServiceImpl) DecayingAwards(ctx context.Context, communityID, fromUserID uuid.UUID) ([]model.DecayStatus, error) {
	if communityID.IsNil() || fromUserID.IsNil() {
		return nil, fmt.Errorf("empty community/user id: %w", errs.ErrValidation)
	}
	awards, err := s.repo.DecayingByGrantor(ctx, communityID, fromUserID, decay.StartHorizon(s.now()))
	if err != nil {
		return nil, err
	}
	return s.decayStatuses(awards), nil
}

// ReceivedDecayStatus is DecayStatus for the endorsements a user holds.
func (s *TrustServiceImpl) ReceivedDecayStatus(ctx context.Context, communityID, toUserID uuid.UUID) ([]model.DecayStatus, error) {
	if communityID.IsNil() || toUserID.IsNil() {
		return nil, fmt.Errorf("empty community/user id: %w", errs.ErrValidation)
	}
	awards, err := s.repo.ListAwardsTo(ctx, communityID, toUserID)
	if err != nil {
		return nil, err
	}
	return s.decayStatuses(awards), nil
}

// Recertify resets decay per target in its own transaction: one failed
// row does not undo the rows already reset. Rows the endorser never
// awarded are skipped.
func (s *TrustServiceImpl) Recertify(ctx context.Context, communityID, fromUserID uuid.UUID, toUserIDs []uuid.UUID) (int, error) {
	if communityID.IsNil() || fromUserID.IsNil() {
		return 0, fmt.Errorf("empty community/user id: %w", errs.ErrValidation)
	}
	count := 0
	for _, to := range toUserIDs {
		if to.IsNil() {
			continue
		}
		err := s.repo.Recertify(ctx, communityID, fromUserID, to)
		switch {
		case err == nil:
			count++
		case errors.Is(err, errs.ErrNotFound):
			// no award toward this user; keep going
		case ctx.Err() != nil:
			return count, ctx.Err()
		default:
			// storage error on one row; the rest may still succeed
		}
	}
	return count, nil
}

// History returns a newest-first ledger page. Page numbers start at 1;
// limit is clamped to [1, 100] with a default of 50.
func (s *TrustServiceImpl) History(ctx context.Context, communityID, userID uuid.UUID, page, limit int) ([]model.HistoryEntry, error) {
	if communityID.IsNil() || userID.IsNil() {
		return nil, fmt.Errorf("empty community/user id: %w", errs.ErrValidation)
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.history.PageForUser(ctx, communityID, userID, limit, (page-1)*limit)
}
