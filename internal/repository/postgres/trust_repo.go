package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/commonshub/trustcore/internal/errs"
	"github.com/commonshub/trustcore/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// TrustRepo implements TrustRepository using PostgreSQL. Every mutation
// runs the live-table change and its ledger append in one transaction.
type TrustRepo struct{ db *DB }

// NewTrustRepo constructs a trust repository.
func NewTrustRepo(db *DB) *TrustRepo { return &TrustRepo{db: db} }

// appendHistory inserts one ledger row inside the caller's transaction.
func appendHistory(ctx context.Context, tx pgx.Tx, communityID uuid.UUID, fromUserID *uuid.UUID, toUserID uuid.UUID, action model.HistoryAction, delta int) error {
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	const q = `
INSERT INTO trust_history (id, community_id, from_user_id, to_user_id, action, points_delta)
VALUES ($1,$2,$3,$4,$5,$6)`
	_, err = tx.Exec(ctx, q, id, communityID, fromUserID, toUserID, string(action), delta)
	return err
}

// CreateAward inserts an award and its +1 ledger row atomically.
func (r *TrustRepo) CreateAward(ctx context.Context, communityID, fromUserID, toUserID uuid.UUID) (award *model.TrustAward, err error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const ins = `
INSERT INTO trust_awards (id, community_id, from_user_id, to_user_id)
VALUES ($1,$2,$3,$4)
RETURNING created_at, updated_at`
	a := model.TrustAward{ID: id, CommunityID: communityID, FromUserID: fromUserID, ToUserID: toUserID}
	if err = tx.QueryRow(ctx, ins, id, communityID, fromUserID, toUserID).Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			err = errs.ErrConflict
		}
		return nil, err
	}
	if err = appendHistory(ctx, tx, communityID, &fromUserID, toUserID, model.ActionAward, 1); err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteAward removes an award and appends its -1 ledger row atomically.
func (r *TrustRepo) DeleteAward(ctx context.Context, communityID, fromUserID, toUserID uuid.UUID) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const del = `
DELETE FROM trust_awards
WHERE community_id=$1 AND from_user_id=$2 AND to_user_id=$3`
	tag, err := tx.Exec(ctx, del, communityID, fromUserID, toUserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		err = errs.ErrNotFound
		return err
	}
	return appendHistory(ctx, tx, communityID, &fromUserID, toUserID, model.ActionRemove, -1)
}

// HasAward reports whether from currently endorses to.
func (r *TrustRepo) HasAward(ctx context.Context, communityID, fromUserID, toUserID uuid.UUID) (bool, error) {
	const q = `
SELECT EXISTS(
  SELECT 1 FROM trust_awards
  WHERE community_id=$1 AND from_user_id=$2 AND to_user_id=$3)`
	var exists bool
	err := r.db.Pool.QueryRow(ctx, q, communityID, fromUserID, toUserID).Scan(&exists)
	return exists, err
}

func (r *TrustRepo) listAwards(ctx context.Context, q string, communityID, userID uuid.UUID) ([]model.TrustAward, error) {
	rows, err := r.db.Pool.Query(ctx, q, communityID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TrustAward
	for rows.Next() {
		var a model.TrustAward
		if err = rows.Scan(&a.ID, &a.CommunityID, &a.FromUserID, &a.ToUserID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListAwardsFrom returns awards given by a user.
func (r *TrustRepo) ListAwardsFrom(ctx context.Context, communityID, fromUserID uuid.UUID) ([]model.TrustAward, error) {
	const q = `
SELECT id, community_id, from_user_id, to_user_id, created_at, updated_at
FROM trust_awards
WHERE community_id=$1 AND from_user_id=$2
ORDER BY created_at`
	return r.listAwards(ctx, q, communityID, fromUserID)
}

// ListAwardsTo returns awards held by a user.
func (r *TrustRepo) ListAwardsTo(ctx context.Context, communityID, toUserID uuid.UUID) ([]model.TrustAward, error) {
	const q = `
SELECT id, community_id, from_user_id, to_user_id, created_at, updated_at
FROM trust_awards
WHERE community_id=$1 AND to_user_id=$2
ORDER BY created_at`
	return r.listAwards(ctx, q, communityID, toUserID)
}

// Recertify resets the decay anchor and appends a zero-delta marker row.
func (r *TrustRepo) Recertify(ctx context.Context, communityID, fromUserID, toUserID uuid.UUID) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const upd = `
UPDATE trust_awards SET updated_at=now()
WHERE community_id=$1 AND from_user_id=$2 AND to_user_id=$3`
	tag, err := tx.Exec(ctx, upd, communityID, fromUserID, toUserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		err = errs.ErrNotFound
		return err
	}
	return appendHistory(ctx, tx, communityID, &fromUserID, toUserID, model.ActionRecertify, 0)
}

// UpsertGrant sets the admin grant amount, logging the delta against the
// previous amount so the ledger sum tracks the live tables.
func (r *TrustRepo) UpsertGrant(ctx context.Context, communityID, adminUserID, toUserID uuid.UUID, amount int) (grant *model.AdminTrustGrant, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const sel = `
SELECT trust_amount FROM admin_trust_grants
WHERE community_id=$1 AND to_user_id=$2 FOR UPDATE`
	var oldAmount int
	g := model.AdminTrustGrant{CommunityID: communityID, ToUserID: toUserID, AdminUserID: adminUserID, TrustAmount: amount}
	scanErr := tx.QueryRow(ctx, sel, communityID, toUserID).Scan(&oldAmount)
	switch {
	case scanErr == nil:
		const upd = `
UPDATE admin_trust_grants SET trust_amount=$3, admin_user_id=$4, updated_at=now()
WHERE community_id=$1 AND to_user_id=$2
RETURNING id, created_at, updated_at`
		if err = tx.QueryRow(ctx, upd, communityID, toUserID, amount, adminUserID).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
	case errors.Is(scanErr, pgx.ErrNoRows):
		var id uuid.UUID
		if id, err = uuid.NewV4(); err != nil {
			return nil, err
		}
		const ins = `
INSERT INTO admin_trust_grants (id, community_id, to_user_id, admin_user_id, trust_amount)
VALUES ($1,$2,$3,$4,$5)
RETURNING created_at, updated_at`
		g.ID = id
		if err = tx.QueryRow(ctx, ins, id, communityID, toUserID, adminUserID, amount).Scan(&g.CreatedAt, &g.UpdatedAt); err != nil {
			if isUniqueViolation(err) {
				err = errs.ErrConflict
			}
			return nil, err
		}
	default:
		return nil, scanErr
	}

	if err = appendHistory(ctx, tx, communityID, &adminUserID, toUserID, model.ActionAdminGrant, amount-oldAmount); err != nil {
		return nil, err
	}
	return &g, nil
}

// DeleteGrant removes the grant and logs -amount in the ledger.
func (r *TrustRepo) DeleteGrant(ctx context.Context, communityID, adminUserID, toUserID uuid.UUID) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const sel = `
SELECT trust_amount FROM admin_trust_grants
WHERE community_id=$1 AND to_user_id=$2 FOR UPDATE`
	var amount int
	if err = tx.QueryRow(ctx, sel, communityID, toUserID).Scan(&amount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = errs.ErrNotFound
		}
		return err
	}

	const del = `DELETE FROM admin_trust_grants WHERE community_id=$1 AND to_user_id=$2`
	if _, err = tx.Exec(ctx, del, communityID, toUserID); err != nil {
		return err
	}
	return appendHistory(ctx, tx, communityID, &adminUserID, toUserID, model.ActionAdminGrant, -amount)
}

// GetGrant returns the admin grant for a user.
func (r *TrustRepo) GetGrant(ctx context.Context, communityID, toUserID uuid.UUID) (*model.AdminTrustGrant, error) {
	const q = `
SELECT id, community_id, to_user_id, admin_user_id, trust_amount, created_at, updated_at
FROM admin_trust_grants
WHERE community_id=$1 AND to_user_id=$2`
	var g model.AdminTrustGrant
	err := r.db.Pool.QueryRow(ctx, q, communityID, toUserID).Scan(
		&g.ID, &g.CommunityID, &g.ToUserID, &g.AdminUserID, &g.TrustAmount, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// ListGrants returns every admin grant in a community.
func (r *TrustRepo) ListGrants(ctx context.Context, communityID uuid.UUID) ([]model.AdminTrustGrant, error) {
	const q = `
SELECT id, community_id, to_user_id, admin_user_id, trust_amount, created_at, updated_at
FROM admin_trust_grants
WHERE community_id=$1
ORDER BY created_at`
	rows, err := r.db.Pool.Query(ctx, q, communityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AdminTrustGrant
	for rows.Next() {
		var g model.AdminTrustGrant
		if err = rows.Scan(&g.ID, &g.CommunityID, &g.ToUserID, &g.AdminUserID, &g.TrustAmount, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Score returns COUNT(awards held) + grant amount. A non-nil
// expiredBefore excludes awards whose decay anchor precedes it.
func (r *TrustRepo) Score(ctx context.Context, communityID, toUserID uuid.UUID, expiredBefore *time.Time) (int, error) {
	const qAll = `
SELECT (SELECT COUNT(*) FROM trust_awards WHERE community_id=$1 AND to_user_id=$2)
     + (SELECT COALESCE(MAX(trust_amount),0) FROM admin_trust_grants WHERE community_id=$1 AND to_user_id=$2)`
	const qFresh = `
SELECT (SELECT COUNT(*) FROM trust_awards WHERE community_id=$1 AND to_user_id=$2 AND updated_at >= $3)
     + (SELECT COALESCE(MAX(trust_amount),0) FROM admin_trust_grants WHERE community_id=$1 AND to_user_id=$2)`

	var score int
	var err error
	if expiredBefore == nil {
		err = r.db.Pool.QueryRow(ctx, qAll, communityID, toUserID).Scan(&score)
	} else {
		err = r.db.Pool.QueryRow(ctx, qFresh, communityID, toUserID, *expiredBefore).Scan(&score)
	}
	if err != nil {
		return 0, err
	}
	return score, nil
}

// DecayingByGrantor returns a grantor's awards older than before.
func (r *TrustRepo) DecayingByGrantor(ctx context.Context, communityID, fromUserID uuid.UUID, before time.Time) ([]model.TrustAward, error) {
	const q = `
SELECT id, community_id, from_user_id, to_user_id, created_at, updated_at
FROM trust_awards
WHERE community_id=$1 AND from_user_id=$2 AND updated_at < $3
ORDER BY updated_at`
	rows, err := r.db.Pool.Query(ctx, q, communityID, fromUserID, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TrustAward
	for rows.Next() {
		var a model.TrustAward
		if err = rows.Scan(&a.ID, &a.CommunityID, &a.FromUserID, &a.ToUserID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AwardsNeedingNotice returns awards whose anchor falls in [start, end).
func (r *TrustRepo) AwardsNeedingNotice(ctx context.Context, start, end time.Time) ([]model.TrustAward, error) {
	const q = `
SELECT id, community_id, from_user_id, to_user_id, created_at, updated_at
FROM trust_awards
WHERE updated_at >= $1 AND updated_at < $2
ORDER BY updated_at`
	rows, err := r.db.Pool.Query(ctx, q, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TrustAward
	for rows.Next() {
		var a model.TrustAward
		if err = rows.Scan(&a.ID, &a.CommunityID, &a.FromUserID, &a.ToUserID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UsersWithDecaying returns distinct holders of decaying awards.
func (r *TrustRepo) UsersWithDecaying(ctx context.Context, communityID uuid.UUID, before time.Time) ([]uuid.UUID, error) {
	const q = `
SELECT DISTINCT to_user_id FROM trust_awards
WHERE community_id=$1 AND updated_at < $2`
	rows, err := r.db.Pool.Query(ctx, q, communityID, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
