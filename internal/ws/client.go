package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skillhub/chat-service/internal/model"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	actionSubscribe   = "subscribe"
	actionUnsubscribe = "unsubscribe"
)

type inboundFrame struct {
	Action         string `json:"action"`
	Token          string `json:"token,omitempty"`
	ConversationId string `json:"conversation_id,omitempty"`
}

type outboundFrame struct {
	Type    string         `json:"type"`
	Channel string         `json:"channel,omitempty"`
	Message *model.Message `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type client struct {
	gateway *Gateway
	conn    *websocket.Conn
	userID  string

	send chan []byte
	done chan struct{}

	mu         sync.Mutex
	closed     bool
	unsubs     map[string]func()
	inboxUnsub func()

	seen *seenSet
}

func newClient(gateway *Gateway, conn *websocket.Conn, userID string) *client {
	return &client{
		gateway: gateway,
		conn:    conn,
		userID:  userID,
		send:    make(chan []byte, 256),
		done:    make(chan struct{}),
		unsubs:  make(map[string]func()),
		seen:    newSeenSet(256),
	}
}

func (c *client) run() {
	c.inboxUnsub = c.gateway.notifier.SubscribeToInbox(c.userID, func() {
		c.enqueue(outboundFrame{Type: "inbox"})
	})

	go c.writePump()
	c.readPump()
	c.teardown()
}

func (c *client) readPump() {
	c.conn.SetReadLimit(1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame inboundFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			return
		}

		switch frame.Action {
		case actionSubscribe:
			c.subscribe(frame.Token)
		case actionUnsubscribe:
			c.unsubscribe(frame.ConversationId)
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) subscribe(token string) {
	claims, err := c.gateway.tokens.ValidateSubscribeToken(token)
	if err != nil {
		c.enqueue(outboundFrame{Type: "error", Error: "invalid subscribe token"})
		return
	}

	if claims.UserID != c.userID {
		c.enqueue(outboundFrame{Type: "error", Error: "subscribe token was issued to another user"})
		return
	}

	conversationID := claims.ConversationID

	c.mu.Lock()
	if _, ok := c.unsubs[conversationID]; ok {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	unsub := c.gateway.notifier.SubscribeToConversation(conversationID, func(message model.Message) {
		// the stream may replay what a concurrent page fetch already
		// delivered, so drop ids we have pushed before
		if !c.seen.add(message.ID.String()) {
			return
		}
		msg := message
		c.enqueue(outboundFrame{Type: "message", Channel: conversationID, Message: &msg})
	})

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		unsub()
		return
	}
	c.unsubs[conversationID] = unsub
	c.mu.Unlock()

	c.enqueue(outboundFrame{Type: "subscribed", Channel: conversationID})
}

func (c *client) unsubscribe(conversationID string) {
	c.mu.Lock()
	unsub, ok := c.unsubs[conversationID]
	if ok {
		delete(c.unsubs, conversationID)
	}
	c.mu.Unlock()

	if ok {
		unsub()
		c.enqueue(outboundFrame{Type: "unsubscribed", Channel: conversationID})
	}
}

// teardown releases every subscription exactly once and stops the write
// pump. Dispatchers may still drain a few queued events afterwards; enqueue
// discards them once closed is set.
func (c *client) teardown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubs := c.unsubs
	c.unsubs = map[string]func(){}
	inboxUnsub := c.inboxUnsub
	c.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	if inboxUnsub != nil {
		inboxUnsub()
	}

	close(c.done)
}

func (c *client) enqueue(frame outboundFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		log.Printf("failed to marshal frame: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	select {
	case c.send <- payload:
	default:
		// write pump is behind, the client will re-sync from REST
	}
}

// seenSet remembers recently pushed message ids with bounded memory.
type seenSet struct {
	mu    sync.Mutex
	limit int
	order []string
	ids   map[string]struct{}
}

func newSeenSet(limit int) *seenSet {
	return &seenSet{
		limit: limit,
		ids:   make(map[string]struct{}),
	}
}

// add reports whether the id was new.
func (s *seenSet) add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		return false
	}

	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
	if len(s.order) > s.limit {
		delete(s.ids, s.order[0])
		s.order = s.order[1:]
	}

	return true
}
