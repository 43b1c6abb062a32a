package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ascend/internal/model"
	"ascend/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

// emptyDeliveryService answers every delivery call with nothing, so the
// connect-time burst stays silent and pushed events arrive alone.
type emptyDeliveryService struct{}

func (emptyDeliveryService) GenerateByCategory(ctx context.Context, userID int64, category string) ([]model.Quest, string, error) {
	return nil, "", nil
}

func (emptyDeliveryService) GenerateContextual(ctx context.Context, userID int64, triggerPoint string) ([]model.Quest, string, error) {
	return nil, "", nil
}

func (emptyDeliveryService) QuestOfTheDay(ctx context.Context, userID int64) (*model.Quest, error) {
	return nil, nil
}

func (emptyDeliveryService) QuestSuggestions(ctx context.Context, userID int64) ([]model.Quest, error) {
	return nil, nil
}

func TestDeliveryRoutes_PushToLiveChannel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := auth.NewTokenAuth("test-secret", false)
	router := gin.New()
	routes := NewDeliveryRoutes(router.Group("/api/v1"), emptyDeliveryService{}, a)

	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/quests/ws/9"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	defer conn.Close()

	event := model.ProgressionEvent{
		Type:      model.EventProgressionUpdate,
		XPAwarded: 150,
	}

	assert.False(t, routes.Push(10, event), "push without a live channel delivers nothing")

	assert.Eventually(t, func() bool {
		return routes.Push(9, event)
	}, time.Second, 10*time.Millisecond)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	assert.NoError(t, err)

	var got model.ProgressionEvent
	assert.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, model.EventProgressionUpdate, got.Type)
	assert.Equal(t, 150, got.XPAwarded)
}
