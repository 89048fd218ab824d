package model

import "github.com/golang-jwt/jwt/v5"

// MessageEvent is the payload fanned out through the realtime notifier.
// Origin identifies the publishing instance so the redis loop can skip
// events it already dispatched locally.
type MessageEvent struct {
	Origin  string  `json:"origin"`
	Message Message `json:"message"`
}

type RealtimeConnectClaims struct {
	jwt.RegisteredClaims
}

type RealtimeSubscribeClaims struct {
	jwt.RegisteredClaims

	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
}
