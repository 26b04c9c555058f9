// Package jobs hosts the periodic work that runs outside the core
// engine: the decay sweep that warns grantors about aging endorsements
// and audits ledger consistency.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/commonshub/trustcore/internal/decay"
	"github.com/commonshub/trustcore/internal/errs"
	"github.com/commonshub/trustcore/internal/model"
	"github.com/commonshub/trustcore/internal/repository"
)

// NotificationKindDecayWarning marks stored decay warnings.
const NotificationKindDecayWarning = "trust_decay_warning"

// Auditor checks ledger/live-table agreement; implemented by
// service.ReconstructorImpl.
type Auditor interface {
	Audit(ctx context.Context, communityID, userID uuid.UUID) error
}

// DecaySweep is the daily job. The engine itself schedules nothing; the
// sweep merely reads decay state and writes notifications, so a failed
// run only delays warnings.
type DecaySweep struct {
	trust         repository.TrustRepository
	communities   repository.CommunityRepository
	notifications repository.NotificationRepository
	audit         Auditor
	logger        *zap.Logger
	now           func() time.Time
}

// NewDecaySweep constructs the sweep.
func NewDecaySweep(
	trust repository.TrustRepository,
	communities repository.CommunityRepository,
	notifications repository.NotificationRepository,
	audit Auditor,
	logger *zap.Logger,
) *DecaySweep {
	return &DecaySweep{
		trust:         trust,
		communities:   communities,
		notifications: notifications,
		audit:         audit,
		logger:        logger,
		now:           time.Now,
	}
}

// Run executes one sweep: decay warnings first, then the consistency
// audit over users holding decaying endorsements. Per-row failures are
// logged and skipped; only query failures abort a phase.
func (s *DecaySweep) Run(ctx context.Context) {
	start := s.now()
	notified, audited, mismatches := 0, 0, 0

	if n, err := s.sendWarnings(ctx); err != nil {
		s.logger.Error("decay sweep: warning phase failed", zap.Error(err))
	} else {
		notified = n
	}

	a, m, err := s.auditDecaying(ctx)
	if err != nil {
		s.logger.Error("decay sweep: audit phase failed", zap.Error(err))
	}
	audited, mismatches = a, m

	s.logger.Info("decay sweep complete",
		zap.Int("notified", notified),
		zap.Int("audited", audited),
		zap.Int("mismatches", mismatches),
		zap.Duration("took", s.now().Sub(start)),
	)
}

// sendWarnings stores one notification per endorsement that crossed the
// decay threshold within the sweep window.
func (s *DecaySweep) sendWarnings(ctx context.Context) (int, error) {
	winStart, winEnd := decay.NoticeWindow(s.now())
	awards, err := s.trust.AwardsNeedingNotice(ctx, winStart, winEnd)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, a := range awards {
		n := &model.Notification{
			UserID:       a.FromUserID,
			CommunityID:  a.CommunityID,
			Kind:         NotificationKindDecayWarning,
			Title:        "Trust endorsement starting to decay",
			Message:      "Your trust endorsement is beginning to decay. Recertify to keep it fresh.",
			ResourceType: "trust_award",
			ResourceID:   a.ID,
		}
		if err := s.notifications.Create(ctx, n); err != nil {
			s.logger.Error("decay sweep: store warning",
				zap.String("award", a.ID.String()), zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}

// auditDecaying runs the score/ledger cross-check for every user holding
// a decaying endorsement. Inconsistencies are logged, never propagated.
func (s *DecaySweep) auditDecaying(ctx context.Context) (audited, mismatches int, err error) {
	communities, err := s.communities.List(ctx)
	if err != nil {
		return 0, 0, err
	}
	horizon := decay.StartHorizon(s.now())

	for _, c := range communities {
		users, err := s.trust.UsersWithDecaying(ctx, c.ID, horizon)
		if err != nil {
			s.logger.Error("decay sweep: list decaying holders",
				zap.String("community", c.ID.String()), zap.Error(err))
			continue
		}
		for _, u := range users {
			audited++
			if err := s.audit.Audit(ctx, c.ID, u); err != nil {
				if errors.Is(err, errs.ErrInconsistent) {
					mismatches++
				}
				s.logger.Error("decay sweep: audit",
					zap.String("community", c.ID.String()),
					zap.String("user", u.String()),
					zap.Error(err))
			}
		}
	}
	return audited, mismatches, nil
}
