package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/skillhub/chat-service/internal/model"
)

const (
	messagesChannel = "chat:messages"

	// queueSize bounds each subscriber's pending events; see offer.
	queueSize = 64
)

type conversationSub struct {
	queue chan model.Message
}

type inboxSub struct {
	queue chan struct{}
}

// Notifier turns message inserts into callback invocations. Local
// subscribers are fed through per-subscriber bounded queues; a redis pub/sub
// channel bridges instances so a message stored on one node reaches
// subscribers on every node.
type Notifier struct {
	rdb    *redis.Client
	origin string

	mu            sync.RWMutex
	conversations map[string]map[*conversationSub]struct{}
	inbox         map[*inboxSub]struct{}

	dropped atomic.Int64
}

// New creates a notifier. rdb may be nil, which keeps delivery
// instance-local; single-node deployments and tests run that way.
func New(rdb *redis.Client) *Notifier {
	return &Notifier{
		rdb:           rdb,
		origin:        uuid.New().String(),
		conversations: make(map[string]map[*conversationSub]struct{}),
		inbox:         make(map[*inboxSub]struct{}),
	}
}

// Run consumes the cross-instance fanout channel until ctx is done.
func (n *Notifier) Run(ctx context.Context) error {
	if n.rdb == nil {
		<-ctx.Done()
		return nil
	}

	pubsub := n.rdb.Subscribe(ctx, messagesChannel)
	defer func() { _ = pubsub.Close() }()

	events := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-events:
			if !ok {
				return fmt.Errorf("redis subscription closed")
			}

			var event model.MessageEvent
			if err := json.Unmarshal([]byte(raw.Payload), &event); err != nil {
				log.Printf("failed to decode message event: %v", err)
				continue
			}

			// own events were already dispatched locally on publish
			if event.Origin == n.origin {
				continue
			}

			n.dispatch(event.Message)
		}
	}
}

// PublishMessage delivers the insert to local subscribers and fans it out to
// the other instances.
func (n *Notifier) PublishMessage(ctx context.Context, message model.Message) error {
	n.dispatch(message)

	if n.rdb == nil {
		return nil
	}

	payload, err := json.Marshal(model.MessageEvent{Origin: n.origin, Message: message})
	if err != nil {
		return fmt.Errorf("failed to marshal message event: %w", err)
	}

	if err := n.rdb.Publish(ctx, messagesChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish message event: %w", err)
	}

	return nil
}

func (n *Notifier) dispatch(message model.Message) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for sub := range n.conversations[message.ConversationID.String()] {
		n.offer(sub.queue, message)
	}

	for sub := range n.inbox {
		select {
		case sub.queue <- struct{}{}:
		default:
			// a pending wakeup is already queued, one is enough
		}
	}
}

// offer drops the oldest pending event when a consumer is saturated, so a
// slow consumer can never block the delivery source. Delivery stays
// at-least-once; consumers de-duplicate by message id and re-fetch on gaps.
func (n *Notifier) offer(queue chan model.Message, message model.Message) {
	select {
	case queue <- message:
		return
	default:
	}

	select {
	case <-queue:
		n.dropped.Add(1)
	default:
	}

	select {
	case queue <- message:
	default:
		n.dropped.Add(1)
	}
}

// Dropped reports how many queued events were discarded on saturated
// subscribers since start.
func (n *Notifier) Dropped() int64 {
	return n.dropped.Load()
}

// SubscribeToConversation invokes onInsert for every message stored in the
// given conversation. The returned function releases the subscription and
// must be called exactly once; events may arrive out of order relative to a
// concurrent page fetch.
func (n *Notifier) SubscribeToConversation(conversationID string, onInsert func(model.Message)) func() {
	sub := &conversationSub{queue: make(chan model.Message, queueSize)}

	n.mu.Lock()
	subs := n.conversations[conversationID]
	if subs == nil {
		subs = make(map[*conversationSub]struct{})
		n.conversations[conversationID] = subs
	}
	subs[sub] = struct{}{}
	n.mu.Unlock()

	go func() {
		for message := range sub.queue {
			onInsert(message)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.conversations[conversationID], sub)
			if len(n.conversations[conversationID]) == 0 {
				delete(n.conversations, conversationID)
			}
			n.mu.Unlock()
			close(sub.queue)
		})
	}
}

// SubscribeToInbox invokes onNewMessage for every message insert
// system-wide. The feed is deliberately coarse: no payload, the consumer
// re-queries its conversation list instead.
func (n *Notifier) SubscribeToInbox(userID string, onNewMessage func()) func() {
	_ = userID // wakeups are unfiltered; the id only identifies the consumer

	sub := &inboxSub{queue: make(chan struct{}, 1)}

	n.mu.Lock()
	n.inbox[sub] = struct{}{}
	n.mu.Unlock()

	go func() {
		for range sub.queue {
			onNewMessage()
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.inbox, sub)
			n.mu.Unlock()
			close(sub.queue)
		})
	}
}
