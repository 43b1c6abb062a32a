package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"ascend/internal/model"
	"ascend/internal/service"
	"ascend/pkg/auth"
	"ascend/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

// Notifier pushes unsolicited events to a user's live delivery channel.
type Notifier interface {
	Push(userID int64, v interface{}) bool
}

type progressionRoutes struct {
	ps     service.ProgressionServiceI
	a      *auth.TokenAuth
	notify Notifier
}

func NewProgressionRoutes(handler *gin.RouterGroup, ps service.ProgressionServiceI, a *auth.TokenAuth, notify Notifier) {
	r := &progressionRoutes{ps: ps, a: a, notify: notify}
	h := handler.Group("/progression")
	h.Use(a.Middleware())
	{
		h.GET("/:user_id", r.GetProgression)
		h.POST("/:user_id/evaluate", r.Evaluate)
	}
}

type QuestResponse struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Type        string           `json:"type"`
	Status      string           `json:"status"`
	Progress    int              `json:"progress"`
	Goal        int              `json:"goal"`
	RewardXP    int              `json:"reward_xp"`
	RewardBadge string           `json:"reward_badge,omitempty"`
	Meta        *model.QuestMeta `json:"meta,omitempty"`
}

type BadgeResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	AwardedAt   time.Time `json:"awarded_at"`
}

type ProgressionResponse struct {
	Quests         []QuestResponse `json:"quests"`
	Badges         []BadgeResponse `json:"badges"`
	NewBadges      []BadgeResponse `json:"new_badges,omitempty"`
	NewlyCompleted []QuestResponse `json:"newly_completed,omitempty"`
	XPAwarded      int             `json:"xp_awarded,omitempty"`
	Level          int             `json:"level"`
	XP             int             `json:"xp"`
}

func (r *progressionRoutes) GetProgression(c *gin.Context) {
	log := logger.Logger()

	id, err := r.userID(c)
	if err != nil {
		log.Error("failed to parse user_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}
	if !r.authorize(c, id) {
		return
	}

	state, err := r.ps.CurrentState(c.Request.Context(), id)
	if err != nil {
		log.Error("failed to get progression state", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get progression state"})
		return
	}

	c.JSON(http.StatusOK, toProgressionResponse(state))
}

func (r *progressionRoutes) Evaluate(c *gin.Context) {
	log := logger.Logger()

	id, err := r.userID(c)
	if err != nil {
		log.Error("failed to parse user_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}
	if !r.authorize(c, id) {
		return
	}

	result, err := r.ps.Evaluate(c.Request.Context(), id)
	if err != nil {
		log.Error("failed to evaluate progression", zap.Error(err))
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to evaluate progression"})
		return
	}

	if r.notify != nil && (len(result.NewBadges) > 0 || len(result.NewlyCompleted) > 0) {
		r.notify.Push(id, model.ProgressionEvent{
			Type:           model.EventProgressionUpdate,
			NewBadges:      result.NewBadges,
			NewlyCompleted: result.NewlyCompleted,
			XPAwarded:      result.XPAwarded,
		})
	}

	c.JSON(http.StatusOK, toProgressionResponse(result))
}

func (r *progressionRoutes) userID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("user_id"), 10, 64)
}

// authorize rejects callers whose token user does not own the route. Tokens
// carrying the admin claim may act on any user.
func (r *progressionRoutes) authorize(c *gin.Context, id int64) bool {
	caller, err := auth.UserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return false
	}
	if caller != id && !auth.IsAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return false
	}
	return true
}

func toProgressionResponse(result *service.EvaluationResult) ProgressionResponse {
	out := ProgressionResponse{
		Quests:         toQuestResponses(result.Quests),
		Badges:         toBadgeResponses(result.Badges),
		NewBadges:      toBadgeResponses(result.NewBadges),
		NewlyCompleted: toQuestResponses(result.NewlyCompleted),
		XPAwarded:      result.XPAwarded,
		Level:          result.Level,
		XP:             result.XP,
	}
	return out
}

func toQuestResponses(quests []model.Quest) []QuestResponse {
	if len(quests) == 0 {
		return nil
	}
	out := make([]QuestResponse, len(quests))
	for i, q := range quests {
		out[i] = QuestResponse{
			ID:          q.ID,
			Title:       q.Title,
			Description: q.Description,
			Type:        q.Type,
			Status:      string(q.Status),
			Progress:    q.Progress,
			Goal:        q.Goal,
			RewardXP:    q.RewardXP,
			RewardBadge: q.RewardBadge,
			Meta:        q.Meta,
		}
	}
	return out
}

func toBadgeResponses(badges []model.Badge) []BadgeResponse {
	if len(badges) == 0 {
		return nil
	}
	out := make([]BadgeResponse, len(badges))
	for i, b := range badges {
		out[i] = BadgeResponse{
			ID:          b.ID.String(),
			Type:        b.Type,
			Name:        b.Name,
			Description: b.Description,
			Icon:        b.Icon,
			AwardedAt:   b.AwardedAt,
		}
	}
	return out
}
