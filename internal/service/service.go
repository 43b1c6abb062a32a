package service

import (
	"context"
	"errors"

	"ascend/internal/model"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUnknownCategory  = errors.New("unknown quest category")
	ErrInvalidTrigger   = errors.New("invalid trigger point")
	ErrGenerationFailed = errors.New("quest generation failed")
)

type ProgressionServiceI interface {
	Evaluate(ctx context.Context, userID int64) (*EvaluationResult, error)
	CurrentState(ctx context.Context, userID int64) (*EvaluationResult, error)
}

type ProgressionRepository interface {
	GetActivitySnapshot(ctx context.Context, userID int64) (*model.ActivitySnapshot, error)
	GetUserLevel(ctx context.Context, userID int64) (level int, xp int, err error)
	GetUserBadges(ctx context.Context, userID int64) ([]model.Badge, error)
	SaveBadge(ctx context.Context, userID int64, badge model.Badge) error
	GetCompletedQuestIDs(ctx context.Context, userID int64) ([]string, error)
	SettleRewards(ctx context.Context, userID int64, ids []string, xp int) error
}

// QuestGenerator produces quest records for a category on demand. The AI
// producer behind it is external; its output is consumed as already-formed
// quest records and validated only for shape.
type QuestGenerator interface {
	Generate(ctx context.Context, userID int64, category string) ([]model.Quest, string, error)
	GenerateContextual(ctx context.Context, userID int64, triggerPoint string) ([]model.Quest, string, error)
}

type QuestDeliveryServiceI interface {
	GenerateByCategory(ctx context.Context, userID int64, category string) ([]model.Quest, string, error)
	GenerateContextual(ctx context.Context, userID int64, triggerPoint string) ([]model.Quest, string, error)
	QuestOfTheDay(ctx context.Context, userID int64) (*model.Quest, error)
	QuestSuggestions(ctx context.Context, userID int64) ([]model.Quest, error)
}
