package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ascend/internal/model"

	"github.com/Masterminds/squirrel"
)

type userRow struct {
	ID     int64 `db:"id"`
	Level  int   `db:"level"`
	Streak int   `db:"streak"`
	XP     int   `db:"xp"`
}

type focusSessionRow struct {
	StartedAt       time.Time `db:"started_at"`
	DurationSeconds int       `db:"duration_seconds"`
}

type taskCountsRow struct {
	Total     int `db:"total"`
	Completed int `db:"completed"`
}

// GetActivitySnapshot assembles the read-only activity projection a rule
// evaluation cycle runs against. It is recomputed on every call; snapshots
// are never cached so evaluation always sees the latest counts.
func (r *Repository) GetActivitySnapshot(ctx context.Context, userID int64) (*model.ActivitySnapshot, error) {
	user, err := r.getUserRow(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshot := &model.ActivitySnapshot{
		UserID:  userID,
		Level:   user.Level,
		Streak:  user.Streak,
		TakenAt: time.Now().UTC(),
	}

	query, args, err := squirrel.
		Select("started_at", "duration_seconds").
		From("focus_sessions").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("started_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var sessions []focusSessionRow
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, err
	}
	for _, s := range sessions {
		snapshot.Sessions = append(snapshot.Sessions, model.FocusSession{
			StartedAt: s.StartedAt,
			Duration:  time.Duration(s.DurationSeconds) * time.Second,
		})
	}

	tasks, err := r.countCompletable(ctx, "tasks", userID)
	if err != nil {
		return nil, err
	}
	snapshot.TasksTotal = tasks.Total
	snapshot.TasksCompleted = tasks.Completed

	goals, err := r.countCompletable(ctx, "goals", userID)
	if err != nil {
		return nil, err
	}
	snapshot.GoalsTotal = goals.Total
	snapshot.GoalsCompleted = goals.Completed

	mentorQuery, mentorArgs, err := squirrel.
		Select("COUNT(*)").
		From("mentor_messages").
		Where(squirrel.Eq{"user_id": userID, "role": "user"}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}
	if err := r.db.GetContext(ctx, &snapshot.MentorTurns, mentorQuery, mentorArgs...); err != nil {
		return nil, err
	}

	return snapshot, nil
}

// GetUserLevel returns the user's current level and accumulated XP.
func (r *Repository) GetUserLevel(ctx context.Context, userID int64) (level int, xp int, err error) {
	user, err := r.getUserRow(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return user.Level, user.XP, nil
}

func (r *Repository) getUserRow(ctx context.Context, userID int64) (*userRow, error) {
	query, args, err := squirrel.
		Select("id", "level", "streak", "xp").
		From("users").
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var user userRow
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (r *Repository) countCompletable(ctx context.Context, table string, userID int64) (*taskCountsRow, error) {
	query, args, err := squirrel.
		Select(
			"COUNT(*) AS total",
			"COUNT(*) FILTER (WHERE completed) AS completed",
		).
		From(table).
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var counts taskCountsRow
	if err := r.db.GetContext(ctx, &counts, query, args...); err != nil {
		return nil, err
	}

	return &counts, nil
}
