//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package rest

import (
	"context"

	"github.com/skillhub/chat-service/internal/api"
	"github.com/skillhub/chat-service/internal/model"
)

type DBRepo interface {
	GetOrCreateConversation(ctx context.Context, userA, userB string) (string, error)
	GetUserConversations(ctx context.Context, userID string, limit, offset int32) (*model.ConversationPreviewList, error)
	GetConversationMessages(ctx context.Context, conversationID, viewerID string, limit, offset int32) (*model.MessageList, error)
	SaveMessage(ctx context.Context, message *model.Message) error
	TouchConversation(ctx context.Context, conversationID string, message *model.Message) error
	MarkConversationRead(ctx context.Context, userID, conversationID string) error
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	CountUnreadTotal(ctx context.Context, userID string) (int64, error)
	UpsertProfile(ctx context.Context, profile *model.ProfileParams) error

	WithTx(ctx context.Context, cb func(ctx context.Context) error) error
}

type ProfileClient interface {
	GetProfileByUUID(ctx context.Context, userUUID string) (*model.ProfileParams, error)
}

type Notifier interface {
	PublishMessage(ctx context.Context, message model.Message) error
}

type Validator interface {
	ValidateCreateConversation(req *api.CreateConversationRequest, creatorID string) error
	ValidateSendMessage(req *api.SendMessageRequest) error
}

type JWTGenerator interface {
	GenerateConnectToken(userID string) (string, int64, error)
	GenerateSubscribeToken(userID, conversationID string) (string, int64, error)
}
