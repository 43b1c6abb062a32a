package engine

import (
	"testing"
	"time"

	"ascend/internal/model"

	"github.com/stretchr/testify/assert"
)

func questByID(quests []model.Quest, id string) *model.Quest {
	for i := range quests {
		if quests[i].ID == id {
			return &quests[i]
		}
	}
	return nil
}

func TestQuestEngine_Generate(t *testing.T) {
	engine := NewQuestEngine()

	t.Run("three sessions complete focus-3", func(t *testing.T) {
		snapshot := model.ActivitySnapshot{
			Sessions: []model.FocusSession{
				sessionAt(10, 25*time.Minute),
				sessionAt(12, 25*time.Minute),
				sessionAt(14, 25*time.Minute),
			},
		}

		quests := engine.Generate(snapshot, CompletedSet{})
		q := questByID(quests, "focus-3")

		assert.NotNil(t, q)
		assert.Equal(t, model.QuestStatusCompleted, q.Status)
		assert.Equal(t, 100, q.Progress)
	})

	t.Run("fresh level 1 user has level-5 at 20 percent", func(t *testing.T) {
		snapshot := model.ActivitySnapshot{Level: 1}

		quests := engine.Generate(snapshot, CompletedSet{})
		q := questByID(quests, "level-5")

		assert.NotNil(t, q)
		assert.Equal(t, model.QuestStatusActive, q.Status)
		assert.Equal(t, 20, q.Progress)
	})

	t.Run("banked ids are never re-emitted", func(t *testing.T) {
		snapshot := model.ActivitySnapshot{TasksCompleted: 15}
		completed := NewCompletedSet([]string{"tasks-10"})

		quests := engine.Generate(snapshot, completed)
		assert.Nil(t, questByID(quests, "tasks-10"))
	})

	t.Run("progress is clamped to 100", func(t *testing.T) {
		snapshot := model.ActivitySnapshot{Streak: 30}

		quests := engine.Generate(snapshot, CompletedSet{})
		q := questByID(quests, "streak-7")

		assert.NotNil(t, q)
		assert.Equal(t, 100, q.Progress)
		assert.Equal(t, model.QuestStatusCompleted, q.Status)
	})

	t.Run("built-in quests carry the standard type", func(t *testing.T) {
		quests := engine.Generate(model.ActivitySnapshot{}, CompletedSet{})
		assert.NotEmpty(t, quests)
		for _, q := range quests {
			assert.Equal(t, model.QuestTypeStandard, q.Type)
			assert.NotEqual(t, model.QuestStatusFailed, q.Status)
		}
	})
}

func TestQuestEngine_ProgressIsMonotonic(t *testing.T) {
	engine := NewQuestEngine()

	prev := map[string]int{}
	for completedTasks := 0; completedTasks <= 15; completedTasks++ {
		snapshot := model.ActivitySnapshot{
			TasksCompleted: completedTasks,
			Streak:         completedTasks,
			MentorTurns:    completedTasks,
		}

		for _, q := range engine.Generate(snapshot, CompletedSet{}) {
			if last, ok := prev[q.ID]; ok {
				assert.GreaterOrEqual(t, q.Progress, last,
					"quest %s progress regressed at count %d", q.ID, completedTasks)
			}
			prev[q.ID] = q.Progress
		}
	}
}

func TestQuestEngine_RewardBadgesMatchBadgeRules(t *testing.T) {
	badgeTypes := map[string]struct{}{}
	for _, rule := range NewBadgeEngine().Rules() {
		badgeTypes[rule.Type] = struct{}{}
	}

	for _, rule := range NewQuestEngine().Rules() {
		if rule.RewardBadge == "" {
			continue
		}
		_, known := badgeTypes[rule.RewardBadge]
		assert.True(t, known, "quest %s names unknown reward badge %q", rule.ID, rule.RewardBadge)
	}
}

func TestValidateExternal(t *testing.T) {
	tests := []struct {
		name  string
		quest model.Quest
		valid bool
	}{
		{
			name: "well formed ai_enhanced quest",
			quest: model.Quest{
				ID: "ai-morning-review", Title: "Morning Review",
				Type: model.QuestTypeAIEnhanced, Status: model.QuestStatusActive,
				Goal: 1, Progress: 0,
				Meta: &model.QuestMeta{Personalized: true},
			},
			valid: true,
		},
		{
			name: "fallback type accepted",
			quest: model.Quest{
				ID: "fb-1", Title: "Plan tomorrow",
				Type: model.QuestTypeFallback, Status: model.QuestStatusPending,
			},
			valid: true,
		},
		{
			name: "standard type rejected as external",
			quest: model.Quest{
				ID: "focus-3", Title: "Focus",
				Type: model.QuestTypeStandard, Status: model.QuestStatusActive,
			},
			valid: false,
		},
		{
			name: "missing id rejected",
			quest: model.Quest{
				Title: "Nameless", Type: model.QuestTypeAIEnhanced,
				Status: model.QuestStatusActive,
			},
			valid: false,
		},
		{
			name: "bad status rejected",
			quest: model.Quest{
				ID: "x", Title: "X", Type: model.QuestTypeAIEnhanced,
				Status: model.QuestStatus("archived"),
			},
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ValidateExternal(tt.quest)
			assert.Equal(t, tt.valid, ok)
		})
	}

	t.Run("progress is clamped", func(t *testing.T) {
		q, ok := ValidateExternal(model.Quest{
			ID: "x", Title: "X", Type: model.QuestTypeAIEnhanced,
			Status: model.QuestStatusActive, Progress: 140,
		})
		assert.True(t, ok)
		assert.Equal(t, 100, q.Progress)
	})
}

func TestMergeExternal(t *testing.T) {
	base := []model.Quest{
		{ID: "focus-3", Title: "Focus", Type: model.QuestTypeStandard, Status: model.QuestStatusActive},
	}
	external := []model.Quest{
		{ID: "ai-1", Title: "AI quest", Type: model.QuestTypeAIEnhanced, Status: model.QuestStatusActive},
		{ID: "focus-3", Title: "Duplicate", Type: model.QuestTypeAIEnhanced, Status: model.QuestStatusActive},
		{ID: "banked-1", Title: "Banked", Type: model.QuestTypeAIEnhanced, Status: model.QuestStatusActive},
		{ID: "", Title: "Invalid", Type: model.QuestTypeAIEnhanced, Status: model.QuestStatusActive},
	}

	merged := MergeExternal(base, external, NewCompletedSet([]string{"banked-1"}))

	var ids []string
	for _, q := range merged {
		ids = append(ids, q.ID)
	}
	assert.Equal(t, []string{"focus-3", "ai-1"}, ids)
}
