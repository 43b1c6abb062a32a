package service

import (
	"context"
	"errors"
	"fmt"

	"ascend/internal/engine"
	"ascend/internal/model"
	"ascend/internal/repository"
	"ascend/pkg/logger"

	"go.uber.org/zap"
)

// EvaluationResult is one full progression cycle's output: the recomputed
// quest list, any badges earned this cycle, the quests banked this cycle,
// and the XP credited for them.
type EvaluationResult struct {
	Quests         []model.Quest
	Badges         []model.Badge
	NewBadges      []model.Badge
	NewlyCompleted []model.Quest
	XPAwarded      int
	Level          int
	XP             int
}

// ProgressionService runs the badge and quest engines against a fresh
// activity snapshot and settles rewards exactly once per transition. The
// engines themselves are pure; all fallibility lives at the repository
// boundary.
type ProgressionService struct {
	repo   ProgressionRepository
	badges *engine.BadgeEngine
	quests *engine.QuestEngine
}

func NewProgressionService(repo ProgressionRepository) *ProgressionService {
	return &ProgressionService{
		repo:   repo,
		badges: engine.NewBadgeEngine(),
		quests: engine.NewQuestEngine(),
	}
}

// Evaluate runs one cycle for the user. If the snapshot cannot be fetched
// the cycle is skipped entirely: no partial badge or quest state is written
// and the caller keeps its last known good view.
func (s *ProgressionService) Evaluate(ctx context.Context, userID int64) (*EvaluationResult, error) {
	log := logger.Logger()

	snapshot, err := s.repo.GetActivitySnapshot(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get activity snapshot: %w", err)
	}

	held, err := s.repo.GetUserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user badges: %w", err)
	}

	completedIDs, err := s.repo.GetCompletedQuestIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed quest ids: %w", err)
	}

	newBadges := s.badges.Evaluate(*snapshot, model.NewBadgeSet(held))
	for _, badge := range newBadges {
		if err := s.repo.SaveBadge(ctx, userID, badge); err != nil {
			return nil, fmt.Errorf("failed to save badge %q: %w", badge.Type, err)
		}
	}

	quests := s.quests.Generate(*snapshot, engine.NewCompletedSet(completedIDs))

	result := &EvaluationResult{
		Quests:    quests,
		Badges:    append(held, newBadges...),
		NewBadges: newBadges,
	}

	// Banked ids are omitted by the engine, so every completed quest in the
	// output crossed its goal this cycle. Bank them and credit their XP once,
	// in one transaction so the ledger never advances without the reward.
	for _, q := range quests {
		if q.Status != model.QuestStatusCompleted {
			continue
		}
		result.NewlyCompleted = append(result.NewlyCompleted, q)
		result.XPAwarded += q.RewardXP
		completedIDs = append(completedIDs, q.ID)
	}

	if len(result.NewlyCompleted) > 0 {
		if err := s.repo.SettleRewards(ctx, userID, completedIDs, result.XPAwarded); err != nil {
			return nil, fmt.Errorf("failed to settle rewards: %w", err)
		}

		log.Info("banked completed quests",
			zap.Int64("user_id", userID),
			zap.Int("count", len(result.NewlyCompleted)),
			zap.Int("xp", result.XPAwarded))
	}

	level, xp, err := s.repo.GetUserLevel(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user level: %w", err)
	}
	result.Level = level
	result.XP = xp

	return result, nil
}

// CurrentState recomputes the display view without settling rewards.
// Completed-but-unbanked quests keep their completed status; the next
// Evaluate call banks them.
func (s *ProgressionService) CurrentState(ctx context.Context, userID int64) (*EvaluationResult, error) {
	snapshot, err := s.repo.GetActivitySnapshot(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get activity snapshot: %w", err)
	}

	held, err := s.repo.GetUserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user badges: %w", err)
	}

	completedIDs, err := s.repo.GetCompletedQuestIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed quest ids: %w", err)
	}

	level, xp, err := s.repo.GetUserLevel(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user level: %w", err)
	}

	return &EvaluationResult{
		Quests: s.quests.Generate(*snapshot, engine.NewCompletedSet(completedIDs)),
		Badges: held,
		Level:  level,
		XP:     xp,
	}, nil
}
