package postgres

import (
	"context"
	"errors"

	"github.com/commonshub/trustcore/internal/errs"
	"github.com/commonshub/trustcore/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// LevelRepo implements LevelRepository using PostgreSQL.
type LevelRepo struct{ db *DB }

// NewLevelRepo constructs a trust level repository.
func NewLevelRepo(db *DB) *LevelRepo { return &LevelRepo{db: db} }

// defaultLevels is the ladder seeded into new communities.
var defaultLevels = []struct {
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

// Create inserts a level; duplicate name or threshold maps to ErrConflict.
func (r *LevelRepo) Create(ctx context.Context, communityID uuid.UUID, name string, threshold int) (*model.TrustLevel, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	const q = `
INSERT INTO trust_levels (id, community_id, name, threshold)
VALUES ($1,$2,$3,$4)
RETURNING created_at, updated_at`
	l := model.TrustLevel{ID: id, CommunityID: communityID, Name: name, Threshold: threshold}
	if err := r.db.Pool.QueryRow(ctx, q, id, communityID, name, threshold).Scan(&l.CreatedAt, &l.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, errs.ErrConflict
		}
		return nil, err
	}
	return &l, nil
}

// GetByID selects a level by id.
func (r *LevelRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.TrustLevel, error) {
	const q = `
SELECT id, community_id, name, threshold, created_at, updated_at
FROM trust_levels WHERE id=$1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByName selects a level by exact name within a community.
func (r *LevelRepo) GetByName(ctx context.Context, communityID uuid.UUID, name string) (*model.TrustLevel, error) {
	const q = `
SELECT id, community_id, name, threshold, created_at, updated_at
FROM trust_levels WHERE community_id=$1 AND name=$2`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q, communityID, name))
}

func (r *LevelRepo) scanOne(row pgx.Row) (*model.TrustLevel, error) {
	var l model.TrustLevel
	if err := row.Scan(&l.ID, &l.CommunityID, &l.Name, &l.Threshold, &l.CreatedAt, &l.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// ListByCommunity returns levels ordered by ascending threshold.
func (r *LevelRepo) ListByCommunity(ctx context.Context, communityID uuid.UUID) ([]model.TrustLevel, error) {
	const q = `
SELECT id, community_id, name, threshold, created_at, updated_at
FROM trust_levels
WHERE community_id=$1
ORDER BY threshold`
	rows, err := r.db.Pool.Query(ctx, q, communityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TrustLevel
	for rows.Next() {
		var l model.TrustLevel
		if err = rows.Scan(&l.ID, &l.CommunityID, &l.Name, &l.Threshold, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Update overwrites name and/or threshold; nil leaves a field unchanged.
func (r *LevelRepo) Update(ctx context.Context, id uuid.UUID, name *string, threshold *int) (*model.TrustLevel, error) {
	const q = `
UPDATE trust_levels
SET name = COALESCE($2, name), threshold = COALESCE($3, threshold), updated_at = now()
WHERE id=$1
RETURNING id, community_id, name, threshold, created_at, updated_at`
	l, err := r.scanOne(r.db.Pool.QueryRow(ctx, q, id, name, threshold))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errs.ErrConflict
		}
		return nil, err
	}
	return l, nil
}

// Delete removes a level.
func (r *LevelRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM trust_levels WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// CreateDefaults seeds the standard level ladder.
func (r *LevelRepo) CreateDefaults(ctx context.Context, communityID uuid.UUID) ([]model.TrustLevel, error) {
	out := make([]model.TrustLevel, 0, len(defaultLevels))
	for _, d := range defaultLevels {
		l, err := r.Create(ctx, communityID, d.name, d.threshold)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, nil
}
