//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=handler.go
package profile

import (
	"context"
	"encoding/json"
	"fmt"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/skillhub/chat-service/internal/config"
)

type DBRepo interface {
	UpdateProfileNickname(ctx context.Context, userUUID, newNickname string) error
	UpdateProfileAvatar(ctx context.Context, userUUID, avatarLink string) error
}

// ProfileUpdated is the profile service's change event. Empty fields mean
// "unchanged".
type ProfileUpdated struct {
	UserUUID  string `json:"user_uuid"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatar_url"`
}

type Handler struct {
	repository DBRepo
}

func New(repo DBRepo) *Handler {
	return &Handler{
		repository: repo,
	}
}

func (h *Handler) Handler(ctx context.Context, in []byte) {
	logger := logger_lib.FromContext(ctx, config.KeyLogger)
	logger.AddFuncName("ProfileUpdatedHandler")

	var event ProfileUpdated
	if err := json.Unmarshal(in, &event); err != nil {
		logger.Error(fmt.Sprintf("failed to decode profile event: %v", err))
		return
	}

	if event.UserUUID == "" {
		logger.Error("profile event has no user uuid")
		return
	}

	if event.Nickname != "" {
		if err := h.repository.UpdateProfileNickname(ctx, event.UserUUID, event.Nickname); err != nil {
			logger.Error(fmt.Sprintf("failed to update nickname for %s: %v", event.UserUUID, err))
		}
	}

	if event.AvatarURL != "" {
		if err := h.repository.UpdateProfileAvatar(ctx, event.UserUUID, event.AvatarURL); err != nil {
			logger.Error(fmt.Sprintf("failed to update avatar for %s: %v", event.UserUUID, err))
		}
	}
}
