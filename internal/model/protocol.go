package model

// Wire types for the quest delivery channel. Both the server dispatch loop
// and the client channel marshal these, so they live here rather than in
// the api layer.

// Quest categories a client may request on demand.
const (
	CategoryTask                = "task"
	CategoryFocus               = "focus"
	CategoryGoal                = "goal"
	CategoryQuickWin            = "quick_win"
	CategoryLearning            = "learning"
	CategoryWellness            = "wellness"
	CategorySocial              = "social"
	CategoryStreak              = "streak"
	CategoryNote                = "note"
	CategoryGoalTaskSuggestions = "goal_task_suggestions"
	CategoryEnhanced            = "enhanced"
	CategoryContextual          = "contextual"
)

// Unsolicited push event names.
const (
	EventQuestOfTheDay     = "quest_of_the_day"
	EventQuestSuggestions  = "quest_suggestions"
	EventProgressionUpdate = "progression_update"
)

// Contextual trigger points.
const (
	TriggerTaskCompletion  = "task_completion"
	TriggerGoalProgress    = "goal_progress"
	TriggerFocusSession    = "focus_session"
	TriggerNoteCreation    = "note_creation"
	TriggerStreakMilestone = "streak_milestone"
	TriggerLevelUp         = "level_up"
)

// Categories lists every request category in a fixed order.
func Categories() []string {
	return []string{
		CategoryTask, CategoryFocus, CategoryGoal, CategoryQuickWin,
		CategoryLearning, CategoryWellness, CategorySocial, CategoryStreak,
		CategoryNote, CategoryGoalTaskSuggestions, CategoryEnhanced,
		CategoryContextual,
	}
}

// ValidCategory reports whether c names a known request category.
func ValidCategory(c string) bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// ValidTrigger reports whether t names a known contextual trigger point.
func ValidTrigger(t string) bool {
	switch t {
	case TriggerTaskCompletion, TriggerGoalProgress, TriggerFocusSession,
		TriggerNoteCreation, TriggerStreakMilestone, TriggerLevelUp:
		return true
	}
	return false
}

// RequestType returns the client->server message type for a category.
func RequestType(category string) string {
	return category + "_quests_request"
}

// ResponseType returns the server->client message type for a category.
// One logical response channel per category; within it responses arrive in
// emission order.
func ResponseType(category string) string {
	return category + "_quests_response"
}

// QuestRequest is a client->server on-demand generation request. RequestID
// is echoed back in the response so concurrent requests can be correlated;
// the observed protocol lacked one and could misattribute responses.
type QuestRequest struct {
	Type         string `json:"type"`
	RequestID    string `json:"request_id,omitempty"`
	TriggerPoint string `json:"trigger_point,omitempty"`
}

// ProgressionEvent is pushed over a live delivery channel when an
// evaluation settles new rewards for the connected user.
type ProgressionEvent struct {
	Type           string  `json:"type"`
	NewBadges      []Badge `json:"new_badges,omitempty"`
	NewlyCompleted []Quest `json:"newly_completed,omitempty"`
	XPAwarded      int     `json:"xp_awarded,omitempty"`
}

// QuestResponse is the category-scoped result envelope. Generation failures
// travel inside it as Error, never as a channel fault.
type QuestResponse struct {
	Type         string  `json:"type"`
	RequestID    string  `json:"request_id,omitempty"`
	Quests       []Quest `json:"quests"`
	TriggerPoint string  `json:"trigger_point,omitempty"`
	Message      string  `json:"message"`
	Error        string  `json:"error,omitempty"`
}
