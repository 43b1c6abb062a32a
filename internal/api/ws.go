package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"ascend/internal/model"
	"ascend/internal/service"
	"ascend/pkg/auth"
	"ascend/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// connection is one live delivery channel. The write mutex keeps the
// gorilla single-writer rule; reads happen only on the connection's own
// loop goroutine.
type connection struct {
	userID int64
	authed bool
	conn   *websocket.Conn
	mu     sync.Mutex
}

func (c *connection) write(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type deliveryRoutes struct {
	ds service.QuestDeliveryServiceI
	a  *auth.TokenAuth

	connsMu sync.RWMutex
	conns   map[int64]*connection
}

// NewDeliveryRoutes registers the two delivery channels: an open channel
// keyed by path (unsolicited pushes only) and an authenticated channel
// carrying the full request surface.
func NewDeliveryRoutes(handler *gin.RouterGroup, ds service.QuestDeliveryServiceI, a *auth.TokenAuth) *deliveryRoutes {
	r := &deliveryRoutes{
		ds:    ds,
		a:     a,
		conns: make(map[int64]*connection),
	}

	h := handler.Group("/quests")
	h.GET("/ws/:user_id", r.handlePublicChannel)

	authed := h.Group("/channel")
	authed.Use(a.Middleware())
	authed.GET("", r.handleChannel)

	return r
}

func (r *deliveryRoutes) handlePublicChannel(c *gin.Context) {
	log := logger.Logger()

	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		log.Error("invalid user_id on ws connect", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	r.serve(c, userID, false)
}

func (r *deliveryRoutes) handleChannel(c *gin.Context) {
	log := logger.Logger()

	userID, err := auth.UserID(c)
	if err != nil {
		log.Error("no user in context on ws connect", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	r.serve(c, userID, true)
}

func (r *deliveryRoutes) serve(c *gin.Context, userID int64, authed bool) {
	log := logger.Logger()

	wsConn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := &connection{
		userID: userID,
		authed: authed,
		conn:   wsConn,
	}

	r.connsMu.Lock()
	r.conns[userID] = conn
	r.connsMu.Unlock()

	go r.handleLoop(conn)
}

// Push writes an unsolicited event to the user's live channel. It reports
// false when the user has no open connection or the write fails.
func (r *deliveryRoutes) Push(userID int64, v interface{}) bool {
	r.connsMu.RLock()
	conn, ok := r.conns[userID]
	r.connsMu.RUnlock()
	if !ok {
		return false
	}

	if err := conn.write(v); err != nil {
		logger.Logger().Error("failed to push event",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return false
	}
	return true
}

func (r *deliveryRoutes) handleLoop(conn *connection) {
	log := logger.Logger()

	defer func() {
		conn.conn.Close()
		r.connsMu.Lock()
		delete(r.conns, conn.userID)
		r.connsMu.Unlock()
	}()

	r.pushUnsolicited(conn)

	for {
		_, msg, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Info("websocket closed unexpectedly",
					zap.Int64("user_id", conn.userID),
					zap.Error(err))
			}
			break
		}

		var req model.QuestRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			log.Error("failed to unmarshal quest request", zap.Error(err))
			continue
		}

		r.handleRequest(conn, req)
	}
}

// pushUnsolicited sends quest_of_the_day and quest_suggestions right after
// connect. Failures degrade silently; the client keeps its last known view.
func (r *deliveryRoutes) pushUnsolicited(conn *connection) {
	log := logger.Logger()
	ctx := context.TODO()

	qotd, err := r.ds.QuestOfTheDay(ctx, conn.userID)
	if err != nil {
		log.Error("failed to build quest of the day",
			zap.Int64("user_id", conn.userID),
			zap.Error(err))
	} else if qotd != nil {
		push := struct {
			Type  string      `json:"type"`
			Quest model.Quest `json:"quest"`
		}{Type: model.EventQuestOfTheDay, Quest: *qotd}

		if err := conn.write(push); err != nil {
			log.Error("failed to push quest of the day", zap.Error(err))
		}
	}

	suggestions, err := r.ds.QuestSuggestions(ctx, conn.userID)
	if err != nil {
		log.Error("failed to build quest suggestions",
			zap.Int64("user_id", conn.userID),
			zap.Error(err))
		return
	}
	if len(suggestions) == 0 {
		return
	}

	push := model.QuestResponse{
		Type:    model.EventQuestSuggestions,
		Quests:  suggestions,
		Message: "Fresh quest ideas for you",
	}
	if err := conn.write(push); err != nil {
		log.Error("failed to push quest suggestions", zap.Error(err))
	}
}

// handleRequest answers one category request. Responses for a category go
// out in the order requests are handled on this loop, which preserves the
// per-category ordering guarantee. The request_id is echoed so concurrent
// requests across categories stay correlatable.
func (r *deliveryRoutes) handleRequest(conn *connection, req model.QuestRequest) {
	log := logger.Logger()

	category := strings.TrimSuffix(req.Type, "_quests_request")
	resp := model.QuestResponse{
		Type:      model.ResponseType(category),
		RequestID: req.RequestID,
	}

	if !conn.authed {
		resp.Error = "authentication required"
		if err := conn.write(resp); err != nil {
			log.Error("failed to write response", zap.Error(err))
		}
		return
	}

	ctx := context.TODO()

	var (
		quests  []model.Quest
		message string
		err     error
	)

	if category == model.CategoryContextual {
		resp.TriggerPoint = req.TriggerPoint
		quests, message, err = r.ds.GenerateContextual(ctx, conn.userID, req.TriggerPoint)
	} else {
		quests, message, err = r.ds.GenerateByCategory(ctx, conn.userID, category)
	}

	if err != nil {
		// Generation failures ride inside the envelope; the channel itself
		// never faults on them.
		switch {
		case errors.Is(err, service.ErrUnknownCategory):
			resp.Error = "unknown quest category"
		case errors.Is(err, service.ErrInvalidTrigger):
			resp.Error = "invalid trigger point"
		case errors.Is(err, service.ErrUserNotFound):
			resp.Error = "user not found"
		default:
			log.Error("quest generation failed",
				zap.Int64("user_id", conn.userID),
				zap.String("category", category),
				zap.Error(err))
			resp.Error = "quest generation failed"
		}
	} else {
		resp.Quests = quests
		resp.Message = message
	}

	if err := conn.write(resp); err != nil {
		log.Error("failed to write quest response",
			zap.Int64("user_id", conn.userID),
			zap.Error(err))
	}
}
