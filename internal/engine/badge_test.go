package engine

import (
	"testing"
	"time"

	"ascend/internal/model"

	"github.com/stretchr/testify/assert"
)

func sessionAt(hour int, duration time.Duration) model.FocusSession {
	return model.FocusSession{
		StartedAt: time.Date(2025, 3, 10, hour, 0, 0, 0, time.Local),
		Duration:  duration,
	}
}

func TestBadgeEngine_Evaluate(t *testing.T) {
	engine := NewBadgeEngine()

	tests := []struct {
		name          string
		snapshot      model.ActivitySnapshot
		held          model.BadgeSet
		expectedTypes []string
	}{
		{
			name:          "empty snapshot earns nothing",
			snapshot:      model.ActivitySnapshot{},
			held:          model.BadgeSet{},
			expectedTypes: nil,
		},
		{
			name: "three completed sessions earn exactly first-focus",
			snapshot: model.ActivitySnapshot{
				Sessions: []model.FocusSession{
					sessionAt(10, 25*time.Minute),
					sessionAt(12, 25*time.Minute),
					sessionAt(14, 25*time.Minute),
				},
			},
			held:          model.BadgeSet{},
			expectedTypes: []string{"first-focus"},
		},
		{
			name: "50 minute session earns deep-diver",
			snapshot: model.ActivitySnapshot{
				Sessions: []model.FocusSession{
					sessionAt(10, 3000*time.Second),
				},
			},
			held:          model.NewBadgeSet([]model.Badge{{Type: "first-focus"}}),
			expectedTypes: []string{"deep-diver"},
		},
		{
			name: "session before 8am earns early-bird",
			snapshot: model.ActivitySnapshot{
				Sessions: []model.FocusSession{
					sessionAt(7, 25*time.Minute),
				},
			},
			held:          model.NewBadgeSet([]model.Badge{{Type: "first-focus"}}),
			expectedTypes: []string{"early-bird"},
		},
		{
			name: "streak and mentor thresholds",
			snapshot: model.ActivitySnapshot{
				Streak:      7,
				MentorTurns: 5,
			},
			held:          model.BadgeSet{},
			expectedTypes: []string{"7-day-streak", "mentor-buddy", "mentor-streak"},
		},
		{
			name: "held badges are never re-awarded",
			snapshot: model.ActivitySnapshot{
				Sessions:       []model.FocusSession{sessionAt(10, 25*time.Minute)},
				TasksCompleted: 10,
			},
			held: model.NewBadgeSet([]model.Badge{
				{Type: "first-focus"},
				{Type: "task-slayer"},
			}),
			expectedTypes: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			earned := engine.Evaluate(tt.snapshot, tt.held)

			var types []string
			for _, b := range earned {
				types = append(types, b.Type)
			}
			assert.Equal(t, tt.expectedTypes, types)
		})
	}
}

func TestBadgeEngine_EvaluateIsIdempotent(t *testing.T) {
	engine := NewBadgeEngine()

	snapshot := model.ActivitySnapshot{
		Sessions: []model.FocusSession{
			sessionAt(7, 55*time.Minute),
		},
		TasksCompleted: 12,
		GoalsCompleted: 1,
		MentorTurns:    6,
		Streak:         8,
	}

	first := engine.Evaluate(snapshot, model.BadgeSet{})
	assert.NotEmpty(t, first)

	held := model.NewBadgeSet(first)
	second := engine.Evaluate(snapshot, held)
	assert.Empty(t, second, "second evaluation with the same inputs must award nothing")
}

func TestBadgeEngine_AtMostOnePerType(t *testing.T) {
	engine := NewBadgeEngine()

	snapshot := model.ActivitySnapshot{
		Sessions:       []model.FocusSession{sessionAt(9, 25*time.Minute)},
		TasksCompleted: 15,
	}

	held := model.BadgeSet{}
	seen := map[string]int{}
	for i := 0; i < 5; i++ {
		for _, b := range engine.Evaluate(snapshot, held) {
			seen[b.Type]++
			held[b.Type] = struct{}{}
		}
	}

	for badgeType, count := range seen {
		assert.Equal(t, 1, count, "badge %q awarded more than once", badgeType)
	}
}

func TestBadgeEngine_RuleMetadata(t *testing.T) {
	engine := NewBadgeEngine()

	earned := engine.Evaluate(model.ActivitySnapshot{
		Sessions: []model.FocusSession{sessionAt(10, 25*time.Minute)},
	}, model.BadgeSet{})

	assert.Len(t, earned, 1)
	badge := earned[0]
	assert.Equal(t, "first-focus", badge.Type)
	assert.Equal(t, "First Focus", badge.Name)
	assert.NotEmpty(t, badge.Description)
	assert.NotEmpty(t, badge.Icon)
	assert.False(t, badge.AwardedAt.IsZero())
	assert.NotEqual(t, badge.ID.String(), "00000000-0000-0000-0000-000000000000")
}
