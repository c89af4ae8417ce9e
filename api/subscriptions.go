package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	Subprotocols:    []string{"graphql-transport-ws", "graphql-ws"},
	// Browser origins are already screened by the CORS layer for the
	// rest of the API; the ws endpoint carries no ambient credentials
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is the framing shared by the graphql-transport-ws protocol
// and its subscriptions-transport-ws predecessor
type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// wsSub identifies one live operation on a socket. Entries are compared
// by pointer so a replaced operation can't tear down its successor
type wsSub struct {
	cancel context.CancelFunc
}

type wsSession struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	subs   map[string]*wsSub
	closed bool
}

// Subscriptions upgrades the connection and serves live post events
// over it until the client disconnects
func (a *API) Subscriptions(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error("Failed to upgrade subscription connection", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	// Everything on this socket outlives the upgrade request
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &wsSession{
		conn: conn,
		send: make(chan []byte, 16),
		subs: make(map[string]*wsSub),
	}

	go s.writePump()
	a.readPump(ctx, s)

	s.close()
}

func (a *API) readPump(ctx context.Context, s *wsSession) {
	defer s.conn.Close()

	s.conn.SetReadLimit(1 << 20)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg wsMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Debug("Subscription connection closed unexpectedly", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case "connection_init":
			s.write(wsMessage{Type: "connection_ack"})

		case "ping":
			s.write(wsMessage{Type: "pong"})

		case "subscribe", "start":
			var req gqlRequest
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				zap.L().Debug("Malformed subscribe payload", zap.Error(err))
				continue
			}

			// The older protocol names its frames start/data, the
			// newer one subscribe/next
			dataType := "next"
			if msg.Type == "start" {
				dataType = "data"
			}

			subCtx, subCancel := context.WithCancel(ctx)
			entry := &wsSub{cancel: subCancel}

			s.mu.Lock()
			// A reused id replaces the previous operation, which must be
			// stopped or its bridge goroutine lives until the socket dies
			if prev, ok := s.subs[msg.ID]; ok {
				prev.cancel()
			}
			s.subs[msg.ID] = entry
			s.mu.Unlock()

			go a.runSubscription(subCtx, s, msg.ID, dataType, req, entry)

		case "complete", "stop":
			s.cancelSub(msg.ID)

		case "connection_terminate":
			return
		}
	}
}

// runSubscription drives one subscription operation and forwards every
// result to the socket until the stream ends
func (a *API) runSubscription(ctx context.Context, s *wsSession, id, dataType string, req gqlRequest, entry *wsSub) {
	results := graphql.Subscribe(graphql.Params{
		Schema:         a.Schema,
		RequestString:  req.Query,
		OperationName:  req.OperationName,
		VariableValues: req.Variables,
		Context:        ctx,
	})

	for res := range results {
		payload, err := json.Marshal(res)
		if err != nil {
			zap.L().Error("Failed to marshal subscription result", zap.Error(err))
			continue
		}

		s.write(wsMessage{ID: id, Type: dataType, Payload: payload})
	}

	s.write(wsMessage{ID: id, Type: "complete"})
	s.removeSub(id, entry)
}

func (s *wsSession) write(msg wsMessage) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	// Never block a publisher on a dead socket
	select {
	case s.send <- b:
	default:
		zap.L().Warn("Subscription send buffer full, dropping message", zap.String("type", msg.Type))
	}
}

func (s *wsSession) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *wsSession) cancelSub(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub, ok := s.subs[id]; ok {
		delete(s.subs, id)
		sub.cancel()
	}
}

// removeSub drops the map entry only if the finished operation still
// owns it; a replacement registered under the same id stays untouched
func (s *wsSession) removeSub(id string, entry *wsSub) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subs[id] == entry {
		delete(s.subs, id)
	}

	entry.cancel()
}

// close cancels every live subscription and stops the write pump
func (s *wsSession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sub := range s.subs {
		delete(s.subs, id)
		sub.cancel()
	}

	if !s.closed {
		s.closed = true
		close(s.send)
	}
}
