package engine

import (
	"time"

	"ascend/internal/model"

	"github.com/google/uuid"
)

// BadgeRule is one awarding rule. A rule fires when its predicate holds and
// the user does not already hold a badge of that type. Rules are evaluated
// in table order.
type BadgeRule struct {
	Type        string
	Name        string
	Description string
	Icon        string
	Predicate   func(model.ActivitySnapshot) bool
}

// BadgeEngine derives newly earned badges from an activity snapshot.
// Evaluation is pure and total: it never fails on a well-formed snapshot
// and treats absent fields as zero activity.
type BadgeEngine struct {
	rules []BadgeRule
}

func NewBadgeEngine() *BadgeEngine {
	return &BadgeEngine{rules: defaultBadgeRules()}
}

// Evaluate returns the badges whose predicate holds and whose type is not
// already in held — and only those. Calling it again with the returned
// badges added to held yields nothing, so awarding is idempotent.
func (e *BadgeEngine) Evaluate(snapshot model.ActivitySnapshot, held model.BadgeSet) []model.Badge {
	var earned []model.Badge
	now := time.Now().UTC()

	for _, rule := range e.rules {
		if held.Has(rule.Type) {
			continue
		}
		if !rule.Predicate(snapshot) {
			continue
		}
		earned = append(earned, model.Badge{
			ID:          uuid.New(),
			Type:        rule.Type,
			Name:        rule.Name,
			Description: rule.Description,
			Icon:        rule.Icon,
			AwardedAt:   now,
		})
	}

	return earned
}

// Rules returns the rule table (for display catalogs).
func (e *BadgeEngine) Rules() []BadgeRule {
	return e.rules
}

func defaultBadgeRules() []BadgeRule {
	return []BadgeRule{
		{
			Type: "first-focus", Name: "First Focus", Icon: "🎯",
			Description: "Complete your first focus session",
			Predicate: func(s model.ActivitySnapshot) bool {
				return s.SessionCount() >= 1
			},
		},
		{
			Type: "7-day-streak", Name: "Week Warrior", Icon: "🔥",
			Description: "Keep a 7-day streak going",
			Predicate: func(s model.ActivitySnapshot) bool {
				return s.Streak >= 7
			},
		},
		{
			Type: "mentor-buddy", Name: "Mentor Buddy", Icon: "💬",
			Description: "Talk to your mentor for the first time",
			Predicate: func(s model.ActivitySnapshot) bool {
				return s.MentorTurns >= 1
			},
		},
		{
			Type: "mentor-streak", Name: "Deep Thinker", Icon: "🧠",
			Description: "Have 5 mentor conversations",
			Predicate: func(s model.ActivitySnapshot) bool {
				return s.MentorTurns >= 5
			},
		},
		{
			Type: "pomodoro-pro", Name: "Pomodoro Pro", Icon: "🍅",
			Description: "Complete 20 focus sessions",
			Predicate: func(s model.ActivitySnapshot) bool {
				return s.SessionCount() >= 20
			},
		},
		{
			Type: "task-slayer", Name: "Task Slayer", Icon: "⚔️",
			Description: "Complete 10 tasks",
			Predicate: func(s model.ActivitySnapshot) bool {
				return s.TasksCompleted >= 10
			},
		},
		{
			Type: "goal-getter", Name: "Goal Getter", Icon: "🏆",
			Description: "Complete a goal",
			Predicate: func(s model.ActivitySnapshot) bool {
				return s.GoalsCompleted >= 1
			},
		},
		{
			Type: "deep-diver", Name: "Deep Diver", Icon: "🌊",
			Description: "Stay focused for 50 minutes in one session",
			Predicate: func(s model.ActivitySnapshot) bool {
				return s.LongestSession() >= 50*time.Minute
			},
		},
		{
			Type: "early-bird", Name: "Early Bird", Icon: "🌅",
			Description: "Start a focus session before 8 AM",
			Predicate: func(s model.ActivitySnapshot) bool {
				return s.HasSessionBefore(8)
			},
		},
	}
}
