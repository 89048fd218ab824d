package model

import (
	"time"

	"github.com/google/uuid"
)

// Conversation pairs exactly two users. The pair is canonical: user_one_id is
// always the lexicographically smaller uuid, so one pair maps to one row.
type Conversation struct {
	ID            uuid.UUID  `db:"id"`
	UserOneID     uuid.UUID  `db:"user_one_id"`
	UserTwoID     uuid.UUID  `db:"user_two_id"`
	LastMessage   *string    `db:"last_message"`
	LastMessageAt *time.Time `db:"last_message_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

type ConversationPreviewList []ConversationPreview

// ConversationPreview is one row of a user's inbox: the counterpart's display
// data, the denormalized last message and the unread count.
type ConversationPreview struct {
	ConversationID string     `db:"conversation_id"`
	CompanionID    string     `db:"companion_id"`
	CompanionName  string     `db:"companion_nickname"`
	AvatarURL      string     `db:"avatar_url"`
	LastMessage    *string    `db:"last_message"`
	LastMessageAt  *time.Time `db:"last_message_at"`
	UnreadCount    int64      `db:"unread_count"`
}
