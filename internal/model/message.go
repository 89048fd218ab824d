package model

import (
	"time"

	"github.com/google/uuid"
)

type MessageList []Message

// Message is a single chat message. Messages are append-only: once stored
// they are never updated or deleted by this service.
type Message struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ConversationID uuid.UUID `db:"conversation_id" json:"conversation_id"`
	SenderID       uuid.UUID `db:"sender_id" json:"sender_id"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
