package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/commonshub/trustcore/internal/errs"
	"github.com/commonshub/trustcore/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// CommunityRepo implements CommunityRepository using PostgreSQL.
type CommunityRepo struct{ db *DB }

// NewCommunityRepo constructs a community reference-data repository.
func NewCommunityRepo(db *DB) *CommunityRepo { return &CommunityRepo{db: db} }

// GetByID loads a community with its capability requirement mapping.
func (r *CommunityRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Community, error) {
	const q = `
SELECT id, name, config, created_at, updated_at
FROM communities WHERE id=$1`
	var (
		c   model.Community
		cfg []byte
	)
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.Name, &cfg, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	if len(cfg) > 0 {
		if err := json.Unmarshal(cfg, &c.Config); err != nil {
			return nil, fmt.Errorf("community %s config: %w", id, err)
		}
	}
	return &c, nil
}

// List returns every community.
func (r *CommunityRepo) List(ctx context.Context) ([]model.Community, error) {
	const q = `
SELECT id, name, config, created_at, updated_at
FROM communities ORDER BY created_at`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Community
	for rows.Next() {
		var (
			c   model.Community
			cfg []byte
		)
		if err = rows.Scan(&c.ID, &c.Name, &cfg, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if len(cfg) > 0 {
			if err = json.Unmarshal(cfg, &c.Config); err != nil {
				return nil, fmt.Errorf("community %s config: %w", c.ID, err)
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// NotificationRepo implements NotificationRepository using PostgreSQL.
type NotificationRepo struct{ db *DB }

// NewNotificationRepo constructs a notification repository.
func NewNotificationRepo(db *DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create inserts a stored notification.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	if n.ID.IsNil() {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		n.ID = id
	}
	const q = `
INSERT INTO notifications (id, user_id, community_id, kind, title, message, resource_type, resource_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.db.Pool.Exec(ctx, q,
		n.ID, n.UserID, n.CommunityID, n.Kind, n.Title, n.Message, n.ResourceType, n.ResourceID)
	return err
}
