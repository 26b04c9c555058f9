package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/commonshub/trustcore/internal/errs"
	"github.com/commonshub/trustcore/internal/model"
)

func TestReconstructor_CrossCommunity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFakeLedger()
	s := newTrustService(f)
	rec := NewReconstructor(f, f)

	c1 := uuid.Must(uuid.NewV4())
	c2 := uuid.Must(uuid.NewV4())
	f.names[c1] = "Woodworkers"
	f.names[c2] = "Gardeners"
	from := uuid.Must(uuid.NewV4())
	to := uuid.Must(uuid.NewV4())

	if _, err := s.Award(ctx, c1, from, to); err != nil {
		t.Fatalf("award c1: %v", err)
	}
	f.advance(time.Hour)
	if _, err := s.Award(ctx, c2, from, to); err != nil {
		t.Fatalf("award c2: %v", err)
	}
	f.advance(time.Hour)
	if err := s.Remove(ctx, c1, from, to); err != nil {
		t.Fatalf("remove c1: %v", err)
	}

	// Unfiltered reconstruction spans communities; the running total is
	// the user's cross-community sum.
	events, err := rec.Reconstruct(ctx, to, model.TimelineFilter{})
	if err != nil || len(events) != 3 {
		t.Fatalf("reconstruct: n=%d err=%v", len(events), err)
	}
	wantCumulative := []int{1, 2, 1} // newest first
	for i, want := range wantCumulative {
		if events[i].CumulativeScore != want {
			t.Fatalf("event %d: cumulative=%d want=%d", i, events[i].CumulativeScore, want)
		}
	}

	// Filtering to one community replays only its rows.
	events, err = rec.Reconstruct(ctx, to, model.TimelineFilter{CommunityID: &c2})
	if err != nil || len(events) != 1 {
		t.Fatalf("filtered reconstruct: n=%d err=%v", len(events), err)
	}
	if events[0].CommunityName != "Gardeners" || events[0].CumulativeScore != 1 {
		t.Fatalf("filtered event: %+v", events[0])
	}
}

func TestReconstructor_TimeFilter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFakeLedger()
	s := newTrustService(f)
	rec := NewReconstructor(f, f)

	c := uuid.Must(uuid.NewV4())
	f.names[c] = "Woodworkers"
	to := uuid.Must(uuid.NewV4())

	if _, err := s.Award(ctx, c, uuid.Must(uuid.NewV4()), to); err != nil {
		t.Fatalf("award: %v", err)
	}
	cut := f.now.Add(time.Minute)
	f.advance(time.Hour)
	if _, err := s.Award(ctx, c, uuid.Must(uuid.NewV4()), to); err != nil {
		t.Fatalf("award: %v", err)
	}

	events, err := rec.Reconstruct(ctx, to, model.TimelineFilter{From: &cut})
	if err != nil || len(events) != 1 {
		t.Fatalf("from filter: n=%d err=%v", len(events), err)
	}
	// Cumulative restarts inside the window; only windowed rows replay.
	if events[0].CumulativeScore != 1 {
		t.Fatalf("windowed cumulative: %d", events[0].CumulativeScore)
	}
}

func TestReconstructor_UnknownCommunity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFakeLedger()
	s := newTrustService(f)
	rec := NewReconstructor(f, f)

	c := uuid.Must(uuid.NewV4()) // never registered in f.names
	to := uuid.Must(uuid.NewV4())
	if _, err := s.Award(ctx, c, uuid.Must(uuid.NewV4()), to); err != nil {
		t.Fatalf("award: %v", err)
	}

	events, err := rec.Reconstruct(ctx, to, model.TimelineFilter{})
	if err != nil || len(events) != 1 {
		t.Fatalf("reconstruct: n=%d err=%v", len(events), err)
	}
	if events[0].CommunityName != "Unknown Community" {
		t.Fatalf("want sentinel name, got %q", events[0].CommunityName)
	}

	summary, err := rec.Summary(ctx, to, model.TimelineFilter{})
	if err != nil || len(summary.ByCommunity) != 1 {
		t.Fatalf("summary: %+v err=%v", summary, err)
	}
	if summary.ByCommunity[0].CommunityName != "Unknown Community" {
		t.Fatalf("want sentinel in summary, got %q", summary.ByCommunity[0].CommunityName)
	}
}

func TestReconstructor_Summary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFakeLedger()
	s := newTrustService(f)
	rec := NewReconstructor(f, f)

	c1 := uuid.Must(uuid.NewV4())
	c2 := uuid.Must(uuid.NewV4())
	f.names[c1] = "Woodworkers"
	f.names[c2] = "Gardeners"
	admin := uuid.Must(uuid.NewV4())
	to := uuid.Must(uuid.NewV4())

	if _, err := s.Award(ctx, c1, uuid.Must(uuid.NewV4()), to); err != nil {
		t.Fatalf("award: %v", err)
	}
	alice := uuid.Must(uuid.NewV4())
	if _, err := s.Award(ctx, c1, alice, to); err != nil {
		t.Fatalf("award: %v", err)
	}
	if err := s.Remove(ctx, c1, alice, to); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.SetAdminGrant(ctx, c2, admin, to, 5); err != nil {
		t.Fatalf("grant: %v", err)
	}

	summary, err := rec.Summary(ctx, to, model.TimelineFilter{})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalPoints != 6 || summary.AwardsReceived != 2 || summary.AwardsRemoved != 1 {
		t.Fatalf("totals: %+v", summary)
	}
	if len(summary.ByCommunity) != 2 {
		t.Fatalf("per-community lines: %+v", summary.ByCommunity)
	}

	// Narrowed to one community.
	summary, err = rec.Summary(ctx, to, model.TimelineFilter{CommunityID: &c2})
	if err != nil || summary.TotalPoints != 5 || len(summary.ByCommunity) != 1 {
		t.Fatalf("narrowed summary: %+v err=%v", summary, err)
	}
}

func TestReconstructor_Audit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFakeLedger()
	s := newTrustService(f)
	rec := NewReconstructor(f, f)

	c := uuid.Must(uuid.NewV4())
	from := uuid.Must(uuid.NewV4())
	to := uuid.Must(uuid.NewV4())

	if _, err := s.Award(ctx, c, from, to); err != nil {
		t.Fatalf("award: %v", err)
	}
	if err := rec.Audit(ctx, c, to); err != nil {
		t.Fatalf("audit on consistent state: %v", err)
	}

	// Corrupt the live table without a ledger row; the audit must flag it.
	delete(f.awards, awardKey(c, from, to))
	err := rec.Audit(ctx, c, to)
	if !errors.Is(err, errs.ErrInconsistent) {
		t.Fatalf("want ErrInconsistent, got %v", err)
	}

	if err := rec.Audit(ctx, uuid.Nil, to); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}
