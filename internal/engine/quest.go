package engine

import (
	"time"

	"ascend/internal/model"
)

// QuestRule is one quest definition. Metric extracts the current count from
// a snapshot; the rule's ID doubles as the quest ID and is the key banked
// in the completed-quest registry.
type QuestRule struct {
	ID          string
	Title       string
	Description string
	Category    string
	Goal        int
	RewardXP    int
	RewardBadge string
	Metric      func(model.ActivitySnapshot) int
}

// QuestEngine recomputes the full quest list from an activity snapshot.
// Rules whose id is already banked are omitted entirely: the registry is
// the source of truth once a quest has been counted toward rewards.
type QuestEngine struct {
	rules []QuestRule
}

func NewQuestEngine() *QuestEngine {
	return &QuestEngine{rules: defaultQuestRules()}
}

// CompletedSet is the set of banked quest ids.
type CompletedSet map[string]struct{}

func NewCompletedSet(ids []string) CompletedSet {
	set := make(CompletedSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Generate emits one quest record per rule not yet banked. Status and
// progress are derived from the rule's metric against its fixed goal;
// counts only grow under normal operation, so progress is monotonic for a
// given id within a session.
func (e *QuestEngine) Generate(snapshot model.ActivitySnapshot, completed CompletedSet) []model.Quest {
	quests := make([]model.Quest, 0, len(e.rules))

	for _, rule := range e.rules {
		if _, banked := completed[rule.ID]; banked {
			continue
		}
		quests = append(quests, e.build(rule, snapshot))
	}

	return quests
}

func (e *QuestEngine) build(rule QuestRule, snapshot model.ActivitySnapshot) model.Quest {
	count := rule.Metric(snapshot)
	if count < 0 {
		count = 0
	}

	status := model.QuestStatusActive
	if count >= rule.Goal {
		status = model.QuestStatusCompleted
	}

	progress := 100
	if rule.Goal > 0 {
		progress = count * 100 / rule.Goal
		if progress > 100 {
			progress = 100
		}
	}

	return model.Quest{
		ID:          rule.ID,
		Title:       rule.Title,
		Description: rule.Description,
		Type:        model.QuestTypeStandard,
		Status:      status,
		Progress:    progress,
		Goal:        rule.Goal,
		RewardXP:    rule.RewardXP,
		RewardBadge: rule.RewardBadge,
	}
}

// Rules returns the rule table.
func (e *QuestEngine) Rules() []QuestRule {
	return e.rules
}

// RulesByCategory returns the rules belonging to the given category.
func (e *QuestEngine) RulesByCategory(category string) []QuestRule {
	var out []QuestRule
	for _, rule := range e.rules {
		if rule.Category == category {
			out = append(out, rule)
		}
	}
	return out
}

// ValidateExternal checks an externally generated quest against the common
// Quest shape. The meta payload is carried opaquely and never interpreted.
// Valid records are returned normalized (progress clamped to [0,100]).
func ValidateExternal(q model.Quest) (model.Quest, bool) {
	if q.Type != model.QuestTypeAIEnhanced && q.Type != model.QuestTypeFallback {
		return model.Quest{}, false
	}
	if q.ID == "" || q.Title == "" {
		return model.Quest{}, false
	}
	if !q.Status.Valid() {
		return model.Quest{}, false
	}
	if q.Progress < 0 {
		q.Progress = 0
	}
	if q.Progress > 100 {
		q.Progress = 100
	}
	return q, true
}

// MergeExternal appends shape-valid external quests to a generated list,
// skipping ids already present or already banked.
func MergeExternal(quests []model.Quest, external []model.Quest, completed CompletedSet) []model.Quest {
	seen := make(map[string]struct{}, len(quests))
	for _, q := range quests {
		seen[q.ID] = struct{}{}
	}

	for _, q := range external {
		valid, ok := ValidateExternal(q)
		if !ok {
			continue
		}
		if _, dup := seen[valid.ID]; dup {
			continue
		}
		if _, banked := completed[valid.ID]; banked {
			continue
		}
		seen[valid.ID] = struct{}{}
		quests = append(quests, valid)
	}

	return quests
}

func defaultQuestRules() []QuestRule {
	return []QuestRule{
		{
			ID: "focus-3", Title: "Focus Finder", Category: model.CategoryFocus,
			Description: "Complete 3 focus sessions",
			Goal:        3, RewardXP: 150, RewardBadge: "first-focus",
			Metric: func(s model.ActivitySnapshot) int { return s.SessionCount() },
		},
		{
			ID: "deep-focus-1", Title: "Go Deep", Category: model.CategoryFocus,
			Description: "Complete one 50-minute focus session",
			Goal:        1, RewardXP: 180, RewardBadge: "deep-diver",
			Metric: func(s model.ActivitySnapshot) int { return s.SessionsAtLeast(50 * time.Minute) },
		},
		{
			ID: "tasks-10", Title: "Task Crusher", Category: model.CategoryTask,
			Description: "Complete 10 tasks",
			Goal:        10, RewardXP: 200, RewardBadge: "task-slayer",
			Metric: func(s model.ActivitySnapshot) int { return s.TasksCompleted },
		},
		{
			ID: "streak-7", Title: "Streak Keeper", Category: model.CategoryStreak,
			Description: "Reach a 7-day streak",
			Goal:        7, RewardXP: 300, RewardBadge: "7-day-streak",
			Metric: func(s model.ActivitySnapshot) int { return s.Streak },
		},
		{
			ID: "level-5", Title: "Climbing Up", Category: model.CategoryQuickWin,
			Description: "Reach level 5",
			Goal:        5, RewardXP: 250,
			Metric: func(s model.ActivitySnapshot) int { return s.Level },
		},
		{
			ID: "mentor-5", Title: "Student of Life", Category: model.CategoryLearning,
			Description: "Have 5 mentor conversations",
			Goal:        5, RewardXP: 150, RewardBadge: "mentor-streak",
			Metric: func(s model.ActivitySnapshot) int { return s.MentorTurns },
		},
		{
			ID: "goals-1", Title: "Finisher", Category: model.CategoryGoal,
			Description: "Complete your first goal",
			Goal:        1, RewardXP: 200, RewardBadge: "goal-getter",
			Metric: func(s model.ActivitySnapshot) int { return s.GoalsCompleted },
		},
	}
}
