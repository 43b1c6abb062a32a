package questclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ascend/internal/model"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// echoQuestServer answers every category request with an empty envelope
// carrying the same request id, after pushing one unsolicited suggestion
// batch on connect.
func echoQuestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		push := model.QuestResponse{
			Type: model.EventQuestSuggestions,
			Quests: []model.Quest{
				{ID: "focus-3", Title: "Focus Finder", Type: model.QuestTypeStandard, Status: model.QuestStatusActive},
			},
			Message: "Fresh quest ideas for you",
		}
		data, _ := json.Marshal(push)
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}

		for {
			_, p, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var req model.QuestRequest
			if err := json.Unmarshal(p, &req); err != nil {
				continue
			}

			category := strings.TrimSuffix(req.Type, "_quests_request")
			resp := model.QuestResponse{
				Type:      model.ResponseType(category),
				RequestID: req.RequestID,
				Quests: []model.Quest{
					{ID: category + "-1", Title: "Generated", Type: model.QuestTypeFallback, Status: model.QuestStatusActive},
				},
				TriggerPoint: req.TriggerPoint,
				Message:      "ok",
			}
			data, _ := json.Marshal(resp)
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClient_RequestWhileDisconnectedTimesOut(t *testing.T) {
	// Never connected: the request is dropped, no response ever arrives,
	// and the caller's own timeout is the only signal.
	client := New(Config{URL: "ws://127.0.0.1:1/quests"})
	defer client.Close()

	assert.Equal(t, StateDisconnected, client.State())

	start := time.Now()
	resp, err := client.RequestWait(context.Background(), model.CategoryContextual, model.TriggerFocusSession, 150*time.Millisecond)

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	assert.Equal(t, StateDisconnected, client.State())
}

func TestClient_RequestResponseRoundTrip(t *testing.T) {
	srv := echoQuestServer(t)
	defer srv.Close()

	client := New(Config{URL: wsURL(srv), Token: "test-token"})
	defer client.Close()

	require.NoError(t, client.Connect(context.Background()))
	assert.Equal(t, StateConnected, client.State())

	resp, err := client.RequestWait(context.Background(), model.CategoryEnhanced, "", 2*time.Second)
	require.NoError(t, err)

	assert.Equal(t, model.ResponseType(model.CategoryEnhanced), resp.Type)
	assert.NotEmpty(t, resp.RequestID)
	assert.Len(t, resp.Quests, 1)
	assert.Equal(t, "ok", resp.Message)
}

func TestClient_ContextualEchoesTriggerPoint(t *testing.T) {
	srv := echoQuestServer(t)
	defer srv.Close()

	client := New(Config{URL: wsURL(srv)})
	defer client.Close()

	require.NoError(t, client.Connect(context.Background()))

	resp, err := client.RequestWait(context.Background(), model.CategoryContextual, model.TriggerLevelUp, 2*time.Second)
	require.NoError(t, err)

	assert.Equal(t, model.ResponseType(model.CategoryContextual), resp.Type)
	assert.Equal(t, model.TriggerLevelUp, resp.TriggerPoint)
}

func TestClient_UnsolicitedPushReachesHandler(t *testing.T) {
	srv := echoQuestServer(t)
	defer srv.Close()

	received := make(chan model.QuestResponse, 1)

	client := New(Config{URL: wsURL(srv)})
	defer client.Close()
	client.OnEvent(model.EventQuestSuggestions, func(resp model.QuestResponse) {
		received <- resp
	})

	require.NoError(t, client.Connect(context.Background()))

	select {
	case push := <-received:
		assert.Equal(t, model.EventQuestSuggestions, push.Type)
		assert.Len(t, push.Quests, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("push never arrived")
	}
}

func TestClient_ReconnectGivesUpAfterBoundedAttempts(t *testing.T) {
	srv := echoQuestServer(t)

	client := New(Config{
		URL:                  wsURL(srv),
		MaxReconnectAttempts: 2,
		ReconnectBackoff:     20 * time.Millisecond,
	})
	defer client.Close()

	require.NoError(t, client.Connect(context.Background()))

	// Server goes away; reconnection is attempted with fixed backoff and
	// then the channel settles disconnected.
	srv.Close()

	assert.Eventually(t, func() bool {
		return client.State() == StateDisconnected
	}, 3*time.Second, 25*time.Millisecond)
}
