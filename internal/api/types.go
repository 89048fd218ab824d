// Package api defines the REST contract of the chat service: request and
// response bodies plus the chi route bindings.
package api

type Error struct {
	Error string `json:"error"`
}

type CreateConversationRequest struct {
	CompanionId string `json:"companion_id"`
}

type CreateConversationResponse struct {
	Id string `json:"id"`
}

type ConversationPreview struct {
	ConversationId string  `json:"conversation_id"`
	CompanionId    string  `json:"companion_id"`
	CompanionName  string  `json:"companion_name"`
	AvatarUrl      *string `json:"avatar_url,omitempty"`
	LastMessage    *string `json:"last_message,omitempty"`
	LastMessageAt  *string `json:"last_message_at,omitempty"`
	UnreadCount    int64   `json:"unread_count"`
}

type GetConversationsResponse struct {
	Conversations []ConversationPreview `json:"conversations"`
}

type GetConversationsParams struct {
	Limit  *int
	Offset *int
}

type Message struct {
	Id             string `json:"id"`
	ConversationId string `json:"conversation_id"`
	SenderId       string `json:"sender_id"`
	Content        string `json:"content"`
	CreatedAt      string `json:"created_at"`
}

type GetConversationMessagesResponse struct {
	Messages []Message `json:"messages"`
}

type GetConversationMessagesParams struct {
	Limit  *int
	Offset *int
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type SendMessageResponse struct {
	Message Message `json:"message"`
}

type GetUnreadTotalResponse struct {
	Total int64 `json:"total"`
}

type GetConnectTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type GetSubscribeTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	Channel   string `json:"channel"`
}
