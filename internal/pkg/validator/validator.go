package validator

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/skillhub/chat-service/internal/api"
)

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

func (v *Validator) ValidateCreateConversation(req *api.CreateConversationRequest, creatorID string) error {
	companionID := strings.TrimSpace(req.CompanionId)
	if companionID == "" {
		return fmt.Errorf("companion_id is required")
	}

	if _, err := uuid.Parse(companionID); err != nil {
		return fmt.Errorf("companion_id is not a valid uuid")
	}

	if companionID == creatorID {
		return fmt.Errorf("cannot start a conversation with yourself")
	}

	return nil
}

// ValidateSendMessage checks the storage contract only; message length limits
// are a presentation concern and stay in the clients.
func (v *Validator) ValidateSendMessage(req *api.SendMessageRequest) error {
	if strings.TrimSpace(req.Content) == "" {
		return fmt.Errorf("content cannot be empty")
	}

	return nil
}
