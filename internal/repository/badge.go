package repository

import (
	"context"
	"time"

	"ascend/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type badgeRow struct {
	ID          uuid.UUID `db:"id"`
	UserID      int64     `db:"user_id"`
	Type        string    `db:"type"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Icon        string    `db:"icon"`
	AwardedAt   time.Time `db:"awarded_at"`
}

func (r *Repository) GetUserBadges(ctx context.Context, userID int64) ([]model.Badge, error) {
	query, args, err := squirrel.
		Select("id", "user_id", "type", "name", "description", "icon", "awarded_at").
		From("badges").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("awarded_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []badgeRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	badges := make([]model.Badge, len(rows))
	for i, row := range rows {
		badges[i] = model.Badge{
			ID:          row.ID,
			Type:        row.Type,
			Name:        row.Name,
			Description: row.Description,
			Icon:        row.Icon,
			AwardedAt:   row.AwardedAt,
		}
	}

	return badges, nil
}

// SaveBadge persists a newly earned badge. The unique (user_id, type)
// constraint makes the at-most-one-per-type invariant hold even if two
// evaluation cycles race; the losing insert is a no-op.
func (r *Repository) SaveBadge(ctx context.Context, userID int64, badge model.Badge) error {
	query, args, err := squirrel.
		Insert("badges").
		SetMap(map[string]interface{}{
			"id":          badge.ID,
			"user_id":     userID,
			"type":        badge.Type,
			"name":        badge.Name,
			"description": badge.Description,
			"icon":        badge.Icon,
			"awarded_at":  badge.AwardedAt,
		}).
		Suffix("ON CONFLICT (user_id, type) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}
