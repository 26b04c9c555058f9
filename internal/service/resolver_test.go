package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"

	"github.com/commonshub/trustcore/internal/errs"
	"github.com/commonshub/trustcore/internal/model"
	"github.com/commonshub/trustcore/internal/repository"
)

type fakeCommunities struct {
	byID map[uuid.UUID]*model.Community
}

var _ repository.CommunityRepository = (*fakeCommunities)(nil)

func (f *fakeCommunities) GetByID(_ context.Context, id uuid.UUID) (*model.Community, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *c
	return &cpy, nil
}

func (f *fakeCommunities) List(_ context.Context) ([]model.Community, error) {
	var out []model.Community
	for _, c := range f.byID {
		out = append(out, *c)
	}
	return out, nil
}

type scorerFunc func(ctx context.Context, communityID, userID uuid.UUID) (int, error)

func (f scorerFunc) Score(ctx context.Context, communityID, userID uuid.UUID) (int, error) {
	return f(ctx, communityID, userID)
}

func fixedScore(n int) Scorer {
	return scorerFunc(func(context.Context, uuid.UUID, uuid.UUID) (int, error) { return n, nil })
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	levels := newFakeLevels()
	c := uuid.Must(uuid.NewV4())
	other := uuid.Must(uuid.NewV4())

	trusted, err := levels.Create(ctx, c, "Trusted", 25)
	if err != nil {
		t.Fatalf("seed level: %v", err)
	}
	foreign, err := levels.Create(ctx, other, "Trusted", 25)
	if err != nil {
		t.Fatalf("seed foreign level: %v", err)
	}

	r := NewResolver(levels, &fakeCommunities{}, fixedScore(0))

	// Literal numbers pass through without lookups.
	n, err := r.Resolve(ctx, c, model.Number(42))
	if err != nil || n != 42 {
		t.Fatalf("number: n=%d err=%v", n, err)
	}

	// Unconfigured slots mean no requirement.
	n, err = r.Resolve(ctx, c, model.TrustRequirement{})
	if err != nil || n != 0 {
		t.Fatalf("zero requirement: n=%d err=%v", n, err)
	}

	// Level references resolve to the level's threshold.
	n, err = r.Resolve(ctx, c, model.LevelRef(trusted.ID))
	if err != nil || n != 25 {
		t.Fatalf("level ref: n=%d err=%v", n, err)
	}

	// A deleted level fails loudly instead of defaulting to 0.
	if err := levels.Delete(ctx, trusted.ID); err != nil {
		t.Fatalf("delete level: %v", err)
	}
	if _, err := r.Resolve(ctx, c, model.LevelRef(trusted.ID)); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound for deleted level, got %v", err)
	}

	// A level belonging to another community is not visible here.
	if _, err := r.Resolve(ctx, c, model.LevelRef(foreign.ID)); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound for cross-community level, got %v", err)
	}

	// Unknown variants are validation errors.
	if _, err := r.Resolve(ctx, c, model.TrustRequirement{Type: "percentage"}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation for unknown type, got %v", err)
	}
}

func TestResolver_ResolveByName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	levels := newFakeLevels()
	c := uuid.Must(uuid.NewV4())
	if _, err := levels.Create(ctx, c, "Trusted", 25); err != nil {
		t.Fatalf("seed: %v", err)
	}
	r := NewResolver(levels, &fakeCommunities{}, fixedScore(0))

	l, err := r.ResolveByName(ctx, c, "Trusted")
	if err != nil || l.Threshold != 25 {
		t.Fatalf("by name: l=%+v err=%v", l, err)
	}
	if _, err := r.ResolveByName(ctx, c, "Unknown"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := r.ResolveByName(ctx, c, ""); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation on empty name, got %v", err)
	}
}

func TestResolver_Timeline(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	levels := newFakeLevels()
	c := uuid.Must(uuid.NewV4())
	u := uuid.Must(uuid.NewV4())

	trusted, err := levels.Create(ctx, c, "Trusted", 25)
	if err != nil {
		t.Fatalf("seed level: %v", err)
	}
	if _, err := levels.Create(ctx, c, "Leader", 100); err != nil {
		t.Fatalf("seed level: %v", err)
	}

	communities := &fakeCommunities{byID: map[uuid.UUID]*model.Community{
		c: {ID: c, Name: "Woodworkers", Config: model.CommunityConfig{
			model.CapAwardTrust:     model.Number(10),
			model.CapPolls:          model.Number(10),
			model.CapItemManagement: model.LevelRef(trusted.ID),
		}},
	}}

	r := NewResolver(levels, communities, fixedScore(30))

	view, err := r.Timeline(ctx, c, u)
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	if view.UserScore != 30 {
		t.Fatalf("user score: %d", view.UserScore)
	}

	// Distinct thresholds ascending: 0 (unconfigured slots), 10, 25, 100.
	want := []int{0, 10, 25, 100}
	if len(view.Roadmap) != len(want) {
		t.Fatalf("want %d rungs, got %+v", len(want), view.Roadmap)
	}
	for i, entry := range view.Roadmap {
		if entry.Threshold != want[i] {
			t.Fatalf("rung %d: threshold=%d want=%d", i, entry.Threshold, want[i])
		}
	}

	// Two capabilities share the rung at 10; it carries no named level.
	at10 := view.Roadmap[1]
	if len(at10.Capabilities) != 2 || at10.Level != nil {
		t.Fatalf("rung at 10: %+v", at10)
	}

	// The level reference places the capability on the level's rung.
	at25 := view.Roadmap[2]
	if at25.Level == nil || at25.Level.Name != "Trusted" || len(at25.Capabilities) != 1 {
		t.Fatalf("rung at 25: %+v", at25)
	}

	// Score 30 unlocks everything up to 25, not 100.
	for _, entry := range view.Roadmap {
		unlocked := entry.Threshold <= 30
		if entry.Unlocked != unlocked {
			t.Fatalf("rung %d: unlocked=%v want=%v", entry.Threshold, entry.Unlocked, unlocked)
		}
	}
}

func TestResolver_Timeline_MissingCommunity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewResolver(newFakeLevels(), &fakeCommunities{}, fixedScore(0))

	_, err := r.Timeline(ctx, uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()))
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
