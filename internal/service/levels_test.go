package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/commonshub/trustcore/internal/errs"
	"github.com/commonshub/trustcore/internal/model"
	"github.com/commonshub/trustcore/internal/repository"
)

type fakeLevels struct {
	byID map[uuid.UUID]*model.TrustLevel
}

var _ repository.LevelRepository = (*fakeLevels)(nil)

func newFakeLevels() *fakeLevels {
	return &fakeLevels{byID: map[uuid.UUID]*model.TrustLevel{}}
}

func (f *fakeLevels) Create(_ context.Context, communityID uuid.UUID, name string, threshold int) (*model.TrustLevel, error) {
	for _, l := range f.byID {
		if l.CommunityID == communityID && (l.Name == name || l.Threshold == threshold) {
			return nil, errs.ErrConflict
		}
	}
	l := &model.TrustLevel{
		ID: uuid.Must(uuid.NewV4()), CommunityID: communityID,
		Name: name, Threshold: threshold,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	f.byID[l.ID] = l
	cpy := *l
	return &cpy, nil
}

func (f *fakeLevels) GetByID(_ context.Context, id uuid.UUID) (*model.TrustLevel, error) {
	l, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *l
	return &cpy, nil
}

func (f *fakeLevels) GetByName(_ context.Context, communityID uuid.UUID, name string) (*model.TrustLevel, error) {
	for _, l := range f.byID {
		if l.CommunityID == communityID && l.Name == name {
			cpy := *l
			return &cpy, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeLevels) ListByCommunity(_ context.Context, communityID uuid.UUID) ([]model.TrustLevel, error) {
	var out []model.TrustLevel
	for _, l := range f.byID {
		if l.CommunityID == communityID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Threshold < out[j].Threshold })
	return out, nil
}

func (f *fakeLevels) Update(_ context.Context, id uuid.UUID, name *string, threshold *int) (*model.TrustLevel, error) {
	l, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	for _, other := range f.byID {
		if other.ID == id || other.CommunityID != l.CommunityID {
			continue
		}
		if name != nil && other.Name == *name {
			return nil, errs.ErrConflict
		}
		if threshold != nil && other.Threshold == *threshold {
			return nil, errs.ErrConflict
		}
	}
	if name != nil {
		l.Name = *name
	}
	if threshold != nil {
		l.Threshold = *threshold
	}
	cpy := *l
	return &cpy, nil
}

func (f *fakeLevels) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeLevels) CreateDefaults(ctx context.Context, communityID uuid.UUID) ([]model.TrustLevel, error) {
	ladder := []struct {
		name      string
		threshold int
	}{
		{"New Member", 0},
		{"Known Member", 10},
		{"Trusted Member", 25},
		{"Advanced Member", 50},
		{"Community Expert", 100},
		{"Community Leader", 200},
	}
	out := make([]model.TrustLevel, 0, len(ladder))
	for _, rung := range ladder {
		l, err := f.Create(ctx, communityID, rung.name, rung.threshold)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, nil
}

func TestLevelService_Create_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewLevelService(newFakeLevels())
	c := uuid.Must(uuid.NewV4())

	if _, err := s.Create(ctx, uuid.Nil, "Trusted", 10); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation on empty community, got %v", err)
	}
	if _, err := s.Create(ctx, c, "   ", 10); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation on blank name, got %v", err)
	}
	if _, err := s.Create(ctx, c, "Trusted", -1); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation on negative threshold, got %v", err)
	}

	l, err := s.Create(ctx, c, "  Trusted  ", 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if l.Name != "Trusted" {
		t.Fatalf("name must be trimmed, got %q", l.Name)
	}
}

func TestLevelService_Create_UniquenessWithinCommunity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewLevelService(newFakeLevels())
	c := uuid.Must(uuid.NewV4())
	other := uuid.Must(uuid.NewV4())

	if _, err := s.Create(ctx, c, "Trusted", 10); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create(ctx, c, "Trusted", 20); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("want ErrConflict on duplicate name, got %v", err)
	}
	if _, err := s.Create(ctx, c, "Veteran", 10); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("want ErrConflict on duplicate threshold, got %v", err)
	}
	// Other communities are unaffected.
	if _, err := s.Create(ctx, other, "Trusted", 10); err != nil {
		t.Fatalf("same name in another community: %v", err)
	}
}

func TestLevelService_UpdateAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewLevelService(newFakeLevels())
	c := uuid.Must(uuid.NewV4())

	l, err := s.Create(ctx, c, "Trusted", 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Veteran"
	threshold := 30
	updated, err := s.Update(ctx, l.ID, &name, &threshold)
	if err != nil || updated.Name != "Veteran" || updated.Threshold != 30 {
		t.Fatalf("update: l=%+v err=%v", updated, err)
	}

	// nil fields leave values untouched.
	updated, err = s.Update(ctx, l.ID, nil, nil)
	if err != nil || updated.Name != "Veteran" || updated.Threshold != 30 {
		t.Fatalf("no-op update: l=%+v err=%v", updated, err)
	}

	blank := "  "
	if _, err := s.Update(ctx, l.ID, &blank, nil); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation on blank name, got %v", err)
	}

	if err := s.Delete(ctx, l.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, l.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("second delete must be ErrNotFound, got %v", err)
	}
	if _, err := s.Get(ctx, l.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("get after delete must be ErrNotFound, got %v", err)
	}
}

func TestLevelService_InitializeDefaults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewLevelService(newFakeLevels())
	c := uuid.Must(uuid.NewV4())

	levels, err := s.InitializeDefaults(ctx, c)
	if err != nil {
		t.Fatalf("InitializeDefaults: %v", err)
	}
	if len(levels) != 6 || levels[0].Threshold != 0 {
		t.Fatalf("unexpected ladder: %+v", levels)
	}

	// Idempotent: a second call returns the existing ladder untouched.
	again, err := s.InitializeDefaults(ctx, c)
	if err != nil || len(again) != 6 {
		t.Fatalf("second init: n=%d err=%v", len(again), err)
	}

	listed, err := s.List(ctx, c)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i := 1; i < len(listed); i++ {
		if listed[i-1].Threshold >= listed[i].Threshold {
			t.Fatalf("levels not ascending: %+v", listed)
		}
	}
}
