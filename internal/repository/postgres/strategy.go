package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/skillhub/chat-service/internal/model"
)

var procedureNames = []string{
	"get_or_create_conversation",
	"get_user_conversations",
	"get_conversation_messages",
	"mark_conversation_as_read",
}

// directoryStrategy abstracts over the two ways the directory can talk to the
// database: atomic server-side procedures when installed, plain queries when
// not. Both receive canonicalized user pairs from the repository.
type directoryStrategy interface {
	getOrCreateConversation(ctx context.Context, q querier, userOne, userTwo string) (string, error)
	getUserConversations(ctx context.Context, q querier, userID string, limit, offset int32) (*model.ConversationPreviewList, error)
	getConversationMessages(ctx context.Context, q querier, conversationID, viewerID string, limit, offset int32) (*model.MessageList, error)
	markConversationRead(ctx context.Context, q querier, userID, conversationID string) error
}

type procStrategy struct{}

func (procStrategy) getOrCreateConversation(ctx context.Context, q querier, userOne, userTwo string) (string, error) {
	var conversationID string
	err := q.GetContext(ctx, &conversationID,
		`SELECT get_or_create_conversation($1, $2)`, userOne, userTwo)
	if err != nil {
		return "", fmt.Errorf("failed to get or create conversation: %v", err)
	}

	return conversationID, nil
}

func (procStrategy) getUserConversations(ctx context.Context, q querier, userID string, limit, offset int32) (*model.ConversationPreviewList, error) {
	var previews model.ConversationPreviewList
	err := q.SelectContext(ctx, &previews,
		`SELECT conversation_id, companion_id, companion_nickname, avatar_url, last_message, last_message_at, unread_count
		   FROM get_user_conversations($1, $2, $3)`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversations: %v", err)
	}

	return &previews, nil
}

func (procStrategy) getConversationMessages(ctx context.Context, q querier, conversationID, viewerID string, limit, offset int32) (*model.MessageList, error) {
	var messages model.MessageList
	err := q.SelectContext(ctx, &messages,
		`SELECT id, conversation_id, sender_id, content, created_at
		   FROM get_conversation_messages($1, $2, $3, $4)`,
		conversationID, viewerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %v", err)
	}

	return &messages, nil
}

func (procStrategy) markConversationRead(ctx context.Context, q querier, userID, conversationID string) error {
	_, err := q.ExecContext(ctx, `SELECT mark_conversation_as_read($1, $2)`, userID, conversationID)
	if err != nil {
		return fmt.Errorf("failed to mark conversation as read: %v", err)
	}

	return nil
}

type fallbackStrategy struct{}

// getOrCreateConversation closes the lost-update race of a naive
// check-then-insert: the canonical pair is unique, and the conflict branch
// returns the surviving row's id.
func (fallbackStrategy) getOrCreateConversation(ctx context.Context, q querier, userOne, userTwo string) (string, error) {
	query, args, err := sq.Insert("conversations").
		Columns("user_one_id", "user_two_id").
		Values(userOne, userTwo).
		Suffix("ON CONFLICT (user_one_id, user_two_id) DO UPDATE SET updated_at = now() RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build sql query: %v", err)
	}

	var conversationID string
	err = q.GetContext(ctx, &conversationID, query, args...)
	if err != nil {
		return "", fmt.Errorf("failed to get or create conversation: %v", err)
	}

	return conversationID, nil
}

// getUserConversations pays O(page size) round trips for profile and unread
// enrichment; a failed enrichment degrades the row instead of failing the
// page.
func (f fallbackStrategy) getUserConversations(ctx context.Context, q querier, userID string, limit, offset int32) (*model.ConversationPreviewList, error) {
	query, args, err := sq.Select(
		"id",
		"user_one_id",
		"user_two_id",
		"last_message",
		"last_message_at",
	).
		From("conversations").
		Where(sq.Or{
			sq.Eq{"user_one_id": userID},
			sq.Eq{"user_two_id": userID},
		}).
		OrderBy("last_message_at DESC NULLS LAST").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	var conversations []model.Conversation
	err = q.SelectContext(ctx, &conversations, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversations: %v", err)
	}

	previews := make(model.ConversationPreviewList, 0, len(conversations))
	for _, conversation := range conversations {
		companionID := conversation.UserOneID.String()
		if companionID == userID {
			companionID = conversation.UserTwoID.String()
		}

		preview := model.ConversationPreview{
			ConversationID: conversation.ID.String(),
			CompanionID:    companionID,
			LastMessage:    conversation.LastMessage,
			LastMessageAt:  conversation.LastMessageAt,
		}

		var companion model.ProfileParams
		if err := f.getProfile(ctx, q, companionID, &companion); err == nil {
			preview.CompanionName = companion.Nickname
			preview.AvatarURL = companion.AvatarURL
		}

		if unread, err := f.countUnread(ctx, q, userID, conversation.ID.String()); err == nil {
			preview.UnreadCount = unread
		}

		previews = append(previews, preview)
	}

	return &previews, nil
}

func (fallbackStrategy) getProfile(ctx context.Context, q querier, userID string, dest *model.ProfileParams) error {
	query, args, err := sq.Select("id", "nickname", "avatar_url").
		From("chat_users").
		Where(sq.Eq{"id": userID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}

	return q.GetContext(ctx, dest, query, args...)
}

// countUnread counts counterpart messages newer than the viewer's read
// cursor. A missing cursor row means the conversation was never read.
func (fallbackStrategy) countUnread(ctx context.Context, q querier, userID, conversationID string) (int64, error) {
	cursorQuery, cursorArgs, err := sq.Select("last_read_at").
		From("conversation_reads").
		Where(sq.Eq{
			"user_id":         userID,
			"conversation_id": conversationID,
		}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build sql query: %v", err)
	}

	var lastReadAt sql.NullTime
	err = q.GetContext(ctx, &lastReadAt, cursorQuery, cursorArgs...)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to get read cursor: %v", err)
	}

	countBuilder := sq.Select("COUNT(*)").
		From("messages").
		Where(sq.Eq{"conversation_id": conversationID}).
		Where(sq.NotEq{"sender_id": userID})

	if lastReadAt.Valid {
		countBuilder = countBuilder.Where(sq.Gt{"created_at": lastReadAt.Time})
	}

	countQuery, countArgs, err := countBuilder.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build sql query: %v", err)
	}

	var unread int64
	err = q.GetContext(ctx, &unread, countQuery, countArgs...)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %v", err)
	}

	return unread, nil
}

// getConversationMessages relies on the handler's membership check for
// authorization; only the procedure path can enforce it server-side.
func (fallbackStrategy) getConversationMessages(ctx context.Context, q querier, conversationID, _ string, limit, offset int32) (*model.MessageList, error) {
	query, args, err := sq.Select(
		"id",
		"conversation_id",
		"sender_id",
		"content",
		"created_at",
	).
		From("messages").
		Where(sq.Eq{"conversation_id": conversationID}).
		OrderBy("created_at ASC", "id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	var messages model.MessageList
	err = q.SelectContext(ctx, &messages, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %v", err)
	}

	return &messages, nil
}

func (fallbackStrategy) markConversationRead(ctx context.Context, q querier, userID, conversationID string) error {
	query, args, err := sq.Insert("conversation_reads").
		Columns("user_id", "conversation_id", "last_read_at").
		Values(userID, conversationID, sq.Expr("now()")).
		Suffix("ON CONFLICT (user_id, conversation_id) DO UPDATE SET last_read_at = now()").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}

	_, err = q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to mark conversation as read: %v", err)
	}

	return nil
}
