package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/commonshub/trustcore/internal/model"
	"github.com/gofrs/uuid/v5"
)

// HistoryRepo implements HistoryRepository using PostgreSQL.
type HistoryRepo struct{ db *DB }

// NewHistoryRepo constructs a ledger read repository.
func NewHistoryRepo(db *DB) *HistoryRepo { return &HistoryRepo{db: db} }

// PageForUser returns a newest-first page of ledger rows.
func (r *HistoryRepo) PageForUser(ctx context.Context, communityID, toUserID uuid.UUID, limit, offset int) ([]model.HistoryEntry, error) {
	const q = `
SELECT seq, id, community_id, from_user_id, to_user_id, action, points_delta, created_at
FROM trust_history
WHERE community_id=$1 AND to_user_id=$2
ORDER BY created_at DESC, seq DESC
LIMIT $3 OFFSET $4`
	rows, err := r.db.Pool.Query(ctx, q, communityID, toUserID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.HistoryEntry
	for rows.Next() {
		var (
			e      model.HistoryEntry
			action string
		)
		if err = rows.Scan(&e.Seq, &e.ID, &e.CommunityID, &e.FromUserID, &e.ToUserID, &action, &e.PointsDelta, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = model.HistoryAction(action)
		out = append(out, e)
	}
	return out, rows.Err()
}

// TimelineAsc returns ledger events matching the filter in replay order:
// ascending by time, insertion sequence breaking ties. Community names
// come back empty when the community row no longer exists.
func (r *HistoryRepo) TimelineAsc(ctx context.Context, toUserID uuid.UUID, f model.TimelineFilter) ([]model.TimelineEvent, error) {
	var b strings.Builder
	b.WriteString(`
SELECT h.created_at, h.action, h.from_user_id, h.points_delta, h.community_id, COALESCE(c.name,'')
FROM trust_history h
LEFT JOIN communities c ON c.id = h.community_id
WHERE h.to_user_id=$1`)
	args := []any{toUserID}

	if f.CommunityID != nil {
		args = append(args, *f.CommunityID)
		fmt.Fprintf(&b, " AND h.community_id=$%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		fmt.Fprintf(&b, " AND h.created_at >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		fmt.Fprintf(&b, " AND h.created_at <= $%d", len(args))
	}
	b.WriteString(" ORDER BY h.created_at, h.seq")

	rows, err := r.db.Pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TimelineEvent
	for rows.Next() {
		var (
			e      model.TimelineEvent
			action string
		)
		if err = rows.Scan(&e.Timestamp, &action, &e.FromUserID, &e.Delta, &e.CommunityID, &e.CommunityName); err != nil {
			return nil, err
		}
		e.Action = model.HistoryAction(action)
		out = append(out, e)
	}
	return out, rows.Err()
}

// SumDeltas returns the ledger sum for a (community, user) pair.
func (r *HistoryRepo) SumDeltas(ctx context.Context, communityID, toUserID uuid.UUID) (int, error) {
	const q = `
SELECT COALESCE(SUM(points_delta),0) FROM trust_history
WHERE community_id=$1 AND to_user_id=$2`
	var sum int
	if err := r.db.Pool.QueryRow(ctx, q, communityID, toUserID).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

// Summary aggregates totals and the per-community breakdown.
func (r *HistoryRepo) Summary(ctx context.Context, toUserID uuid.UUID, communityID *uuid.UUID) (*model.TrustSummary, error) {
	statsQuery := `
SELECT COALESCE(SUM(points_delta),0),
       COUNT(*) FILTER (WHERE action='award'),
       COUNT(*) FILTER (WHERE action='remove')
FROM trust_history
WHERE to_user_id=$1`
	args := []any{toUserID}
	if communityID != nil {
		statsQuery += " AND community_id=$2"
		args = append(args, *communityID)
	}

	var s model.TrustSummary
	if err := r.db.Pool.QueryRow(ctx, statsQuery, args...).Scan(&s.TotalPoints, &s.AwardsReceived, &s.AwardsRemoved); err != nil {
		return nil, err
	}

	byCommunity := `
SELECT h.community_id, COALESCE(c.name,''), COALESCE(SUM(h.points_delta),0)
FROM trust_history h
LEFT JOIN communities c ON c.id = h.community_id
WHERE h.to_user_id=$1`
	if communityID != nil {
		byCommunity += " AND h.community_id=$2"
	}
	byCommunity += `
GROUP BY h.community_id, c.name
ORDER BY c.name`

	rows, err := r.db.Pool.Query(ctx, byCommunity, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ct model.CommunityTrust
		if err = rows.Scan(&ct.CommunityID, &ct.CommunityName, &ct.Points); err != nil {
			return nil, err
		}
		s.ByCommunity = append(s.ByCommunity, ct)
	}
	return &s, rows.Err()
}
