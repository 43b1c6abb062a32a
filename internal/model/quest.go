package model

import "time"

type QuestStatus string

const (
	QuestStatusPending   QuestStatus = "pending"
	QuestStatusActive    QuestStatus = "active"
	QuestStatusCompleted QuestStatus = "completed"

	// QuestStatusFailed is reachable in the type system but never produced
	// by the built-in rule set. Time-boxed quests from the external
	// generator may arrive already failed.
	QuestStatusFailed QuestStatus = "failed"
)

const (
	// QuestTypeStandard marks quests produced by the built-in rule set.
	QuestTypeStandard = "standard"

	// QuestTypeAIEnhanced and QuestTypeFallback mark quests supplied by the
	// external generator. Their Meta payload is carried opaquely.
	QuestTypeAIEnhanced = "ai_enhanced"
	QuestTypeFallback   = "fallback"
)

// Quest is a rule-defined progress tracker. ID is the stable rule key
// (e.g. "focus-3", "tasks-10"), not a UUID: one quest definition per rule,
// re-evaluated every cycle.
type Quest struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Type        string      `json:"type"`
	Status      QuestStatus `json:"status"`
	Progress    int         `json:"progress"`
	Goal        int         `json:"goal"`
	RewardXP    int         `json:"reward_xp"`
	RewardBadge string      `json:"reward_badge,omitempty"`
	Meta        *QuestMeta  `json:"meta,omitempty"`
}

// QuestMeta is the opaque payload attached to externally generated quests.
// The engine validates only the common Quest shape and never interprets it.
type QuestMeta struct {
	TimeEstimate      string    `json:"time_estimate,omitempty"`
	ActionSteps       []string  `json:"action_steps,omitempty"`
	QuestType         string    `json:"quest_type,omitempty"`
	Category          string    `json:"category,omitempty"`
	Personalized      bool      `json:"personalized,omitempty"`
	Tailored          bool      `json:"tailored,omitempty"`
	VectorContextUsed bool      `json:"vector_context_used,omitempty"`
	GeneratedAt       time.Time `json:"generated_at,omitempty"`
}

func (s QuestStatus) Valid() bool {
	switch s {
	case QuestStatusPending, QuestStatusActive, QuestStatusCompleted, QuestStatusFailed:
		return true
	}
	return false
}
