package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bitwise74/blog-api/model"
	"bitwise74/blog-api/pubsub"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func dialSubscriptions(t *testing.T, ta *testAPI) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(ta.api.Router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/graphql"
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{
		"Sec-WebSocket-Protocol": {"graphql-transport-ws"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.WriteJSON(wsMessage{Type: "connection_init"}))

	var ack wsMessage
	require.NoError(t, conn.ReadJSON(&ack))
	require.Equal(t, "connection_ack", ack.Type)

	return conn
}

func TestSubscriptionDeliversOverWebsocket(t *testing.T) {
	ta := newTestAPI(t)
	conn := dialSubscriptions(t, ta)

	payload, _ := json.Marshal(gqlRequest{Query: `subscription { postCreated { _id title } }`})
	require.NoError(t, conn.WriteJSON(wsMessage{ID: "1", Type: "subscribe", Payload: payload}))

	post := &model.Post{ID: primitive.NewObjectID(), Title: "Live"}

	// Registration is asynchronous, publish until the event lands
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(10 * time.Millisecond):
				ta.api.Bus.Publish(pubsub.PostCreated, post)
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var next wsMessage
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, "next", next.Type)
	assert.Equal(t, "1", next.ID)
	assert.Contains(t, string(next.Payload), "Live")
}

func TestSubscriptionReusedIDReplacesPrevious(t *testing.T) {
	ta := newTestAPI(t)
	conn := dialSubscriptions(t, ta)

	payload, _ := json.Marshal(gqlRequest{Query: `subscription { postCreated { _id title } }`})
	require.NoError(t, conn.WriteJSON(wsMessage{ID: "1", Type: "subscribe", Payload: payload}))
	require.NoError(t, conn.WriteJSON(wsMessage{ID: "1", Type: "subscribe", Payload: payload}))

	// Give both operations time to register, the first must be torn
	// down when the second claims the id
	time.Sleep(300 * time.Millisecond)

	post := &model.Post{ID: primitive.NewObjectID(), Title: "Once"}
	ta.api.Bus.Publish(pubsub.PostCreated, post)

	// The surviving operation forwards the event exactly once. The
	// replaced one may still emit its complete frame, which is fine
	conn.SetReadDeadline(time.Now().Add(1500 * time.Millisecond))

	nextCount := 0
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}

		if msg.Type == "next" {
			nextCount++
		}
	}

	assert.Equal(t, 1, nextCount)
}
