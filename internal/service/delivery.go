package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"ascend/internal/engine"
	"ascend/internal/model"
	"ascend/internal/repository"
)

// QuestDeliveryService answers on-demand, category-scoped generation
// requests and produces the unsolicited payloads pushed on connect. An
// external AI generator handles enhanced/contextual categories when
// configured; everything else (and any generator outage) falls back to the
// deterministic rule set.
type QuestDeliveryService struct {
	repo      ProgressionRepository
	quests    *engine.QuestEngine
	generator QuestGenerator
}

func NewQuestDeliveryService(repo ProgressionRepository, generator QuestGenerator) *QuestDeliveryService {
	return &QuestDeliveryService{
		repo:      repo,
		quests:    engine.NewQuestEngine(),
		generator: generator,
	}
}

var categoryMessages = map[string]string{
	model.CategoryTask:                "Fresh task quests, ready when you are",
	model.CategoryFocus:               "Focus quests to sharpen your sessions",
	model.CategoryGoal:                "Quests pointed at your goals",
	model.CategoryQuickWin:            "Quick wins within reach",
	model.CategoryLearning:            "Keep the mentor conversations going",
	model.CategoryWellness:            "Take care of yourself too",
	model.CategorySocial:              "Quests are better together",
	model.CategoryStreak:              "Protect that streak",
	model.CategoryNote:                "Capture what you learned",
	model.CategoryGoalTaskSuggestions: "Task ideas for your goals",
	model.CategoryEnhanced:            "Personalized quests just for you",
	model.CategoryContextual:          "Picked for what you just did",
}

// GenerateByCategory produces the quests for one category request. For the
// generator-backed categories a generator failure is returned as an error;
// the delivery layer folds it into the response envelope rather than
// failing the channel.
func (s *QuestDeliveryService) GenerateByCategory(ctx context.Context, userID int64, category string) ([]model.Quest, string, error) {
	if !model.ValidCategory(category) {
		return nil, "", ErrUnknownCategory
	}
	if category == model.CategoryContextual {
		return nil, "", ErrInvalidTrigger
	}

	if s.generator != nil && generatorCategory(category) {
		quests, message, err := s.generator.Generate(ctx, userID, category)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
		return s.validated(ctx, userID, quests), message, nil
	}

	quests, err := s.ruleBased(ctx, userID, category)
	if err != nil {
		return nil, "", err
	}
	return quests, categoryMessages[category], nil
}

// GenerateContextual produces quests for a contextual trigger. The trigger
// point is echoed back by the delivery layer.
func (s *QuestDeliveryService) GenerateContextual(ctx context.Context, userID int64, triggerPoint string) ([]model.Quest, string, error) {
	if !model.ValidTrigger(triggerPoint) {
		return nil, "", ErrInvalidTrigger
	}

	if s.generator != nil {
		quests, message, err := s.generator.GenerateContextual(ctx, userID, triggerPoint)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
		return s.validated(ctx, userID, quests), message, nil
	}

	category := triggerCategory(triggerPoint)
	quests, err := s.ruleBased(ctx, userID, category)
	if err != nil {
		return nil, "", err
	}
	return quests, categoryMessages[model.CategoryContextual], nil
}

// QuestOfTheDay picks the active quest closest to completion — the nudge
// most likely to land.
func (s *QuestDeliveryService) QuestOfTheDay(ctx context.Context, userID int64) (*model.Quest, error) {
	quests, err := s.activeQuests(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(quests) == 0 {
		return nil, nil
	}

	best := quests[0]
	for _, q := range quests[1:] {
		if q.Progress > best.Progress {
			best = q
		}
	}
	return &best, nil
}

// QuestSuggestions returns up to three active quests ordered by progress.
func (s *QuestDeliveryService) QuestSuggestions(ctx context.Context, userID int64) ([]model.Quest, error) {
	quests, err := s.activeQuests(ctx, userID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(quests, func(i, j int) bool {
		return quests[i].Progress > quests[j].Progress
	})
	if len(quests) > 3 {
		quests = quests[:3]
	}
	return quests, nil
}

func (s *QuestDeliveryService) ruleBased(ctx context.Context, userID int64, category string) ([]model.Quest, error) {
	snapshot, err := s.repo.GetActivitySnapshot(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get activity snapshot: %w", err)
	}

	completedIDs, err := s.repo.GetCompletedQuestIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed quest ids: %w", err)
	}

	all := s.quests.Generate(*snapshot, engine.NewCompletedSet(completedIDs))
	if category == "" {
		return all, nil
	}

	rules := s.quests.RulesByCategory(category)
	ids := make(map[string]struct{}, len(rules))
	for _, rule := range rules {
		ids[rule.ID] = struct{}{}
	}

	scoped := make([]model.Quest, 0, len(rules))
	for _, q := range all {
		if _, ok := ids[q.ID]; ok {
			scoped = append(scoped, q)
		}
	}
	return scoped, nil
}

func (s *QuestDeliveryService) activeQuests(ctx context.Context, userID int64) ([]model.Quest, error) {
	all, err := s.ruleBased(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	var active []model.Quest
	for _, q := range all {
		if q.Status == model.QuestStatusActive && q.Progress < 100 {
			active = append(active, q)
		}
	}
	return active, nil
}

// validated filters externally generated quests down to shape-valid records
// not already banked by the user.
func (s *QuestDeliveryService) validated(ctx context.Context, userID int64, external []model.Quest) []model.Quest {
	completedIDs, err := s.repo.GetCompletedQuestIDs(ctx, userID)
	if err != nil {
		// The ledger is only used to filter; on failure keep shape checks.
		completedIDs = nil
	}
	return engine.MergeExternal(nil, external, engine.NewCompletedSet(completedIDs))
}

// generatorCategory reports whether a category is served by the external
// generator when one is configured.
func generatorCategory(category string) bool {
	switch category {
	case model.CategoryEnhanced, model.CategoryWellness, model.CategorySocial,
		model.CategoryNote, model.CategoryGoalTaskSuggestions:
		return true
	}
	return false
}

func triggerCategory(triggerPoint string) string {
	switch triggerPoint {
	case model.TriggerTaskCompletion:
		return model.CategoryTask
	case model.TriggerGoalProgress:
		return model.CategoryGoal
	case model.TriggerFocusSession:
		return model.CategoryFocus
	case model.TriggerNoteCreation:
		return model.CategoryNote
	case model.TriggerStreakMilestone:
		return model.CategoryStreak
	case model.TriggerLevelUp:
		return model.CategoryQuickWin
	}
	return ""
}
