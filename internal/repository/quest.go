package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// GetCompletedQuestIDs returns the server-side completed-quest ledger for a
// user, in banking order. A user without a ledger row has banked nothing.
func (r *Repository) GetCompletedQuestIDs(ctx context.Context, userID int64) ([]string, error) {
	query, args, err := squirrel.
		Select("quest_ids").
		From("completed_quests").
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var ids pq.StringArray
	if err := r.db.GetContext(ctx, &ids, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return []string(ids), nil
}

// SettleRewards replaces the user's ledger with the given ids and credits
// the matching XP in a single transaction. Callers only ever append ids, so
// the stored list is append-only in practice. A quest can never end up
// banked without its reward: either both writes land or neither does.
func (r *Repository) SettleRewards(ctx context.Context, userID int64, ids []string, xp int) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		ledgerQuery, ledgerArgs, err := squirrel.
			Insert("completed_quests").
			SetMap(map[string]interface{}{
				"user_id":    userID,
				"quest_ids":  pq.Array(ids),
				"updated_at": time.Now().UTC(),
			}).
			Suffix("ON CONFLICT (user_id) DO UPDATE SET quest_ids = EXCLUDED.quest_ids, updated_at = EXCLUDED.updated_at").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, ledgerQuery, ledgerArgs...); err != nil {
			return fmt.Errorf("failed to save completed quest ids: %w", err)
		}

		xpQuery, xpArgs, err := squirrel.
			Update("users").
			Set("xp", squirrel.Expr("xp + ?", xp)).
			Where(squirrel.Eq{"id": userID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, xpQuery, xpArgs...)
		if err != nil {
			return fmt.Errorf("failed to credit xp: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}

		return nil
	})
}
