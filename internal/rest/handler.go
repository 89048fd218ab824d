package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/skillhub/chat-service/internal/api"
	"github.com/skillhub/chat-service/internal/config"
	"github.com/skillhub/chat-service/internal/model"
	"github.com/skillhub/chat-service/internal/pkg/tx"
)

var errNotParticipant = errors.New("user is not a participant of this conversation")

type Handler struct {
	repository    DBRepo
	profileClient ProfileClient
	notifier      Notifier
	validator     Validator
	jwtGenerator  JWTGenerator
}

func New(
	repo DBRepo,
	profileClient ProfileClient,
	notifier Notifier,
	validator Validator,
	jwtGenerator JWTGenerator,
) *Handler {
	return &Handler{
		repository:    repo,
		profileClient: profileClient,
		notifier:      notifier,
		validator:     validator,
		jwtGenerator:  jwtGenerator,
	}
}

func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("CreateConversation")

	var req api.CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error(fmt.Sprintf("failed to decode request: %v", err))
		h.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	creatorID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get creator ID")
		h.writeError(w, "failed to get creator ID", http.StatusInternalServerError)
		return
	}

	if err := h.validator.ValidateCreateConversation(&req, creatorID); err != nil {
		logger.Error(fmt.Sprintf("conversation validation failed: %v", err))
		h.writeError(w, fmt.Sprintf("conversation validation failed: %v", err), http.StatusBadRequest)
		return
	}

	companionID := strings.TrimSpace(req.CompanionId)

	var conversationID string
	err := tx.TxExecute(r.Context(), func(ctx context.Context) error {
		for _, userID := range []string{creatorID, companionID} {
			profileInfo, err := h.profileClient.GetProfileByUUID(ctx, userID)
			if err != nil {
				logger.Error(fmt.Sprintf("failed to get profile for %s: %v", userID, err))
				return fmt.Errorf("failed to get profile for %s: %v", userID, err)
			}

			if err := h.repository.UpsertProfile(ctx, profileInfo); err != nil {
				logger.Error(fmt.Sprintf("failed to save profile %s: %v", userID, err))
				return fmt.Errorf("failed to save profile %s: %v", userID, err)
			}
		}

		var err error
		conversationID, err = h.repository.GetOrCreateConversation(ctx, creatorID, companionID)
		if err != nil {
			logger.Error(fmt.Sprintf("failed to get or create conversation: %v", err))
			return err
		}

		return nil
	})

	if err != nil {
		logger.Error(fmt.Sprintf("failed to complete conversation creation transaction: %v", err))
		h.writeError(w, fmt.Sprintf("failed to create conversation: %v", err), http.StatusInternalServerError)
		return
	}

	response := api.CreateConversationResponse{
		Id: conversationID,
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) GetConversations(w http.ResponseWriter, r *http.Request, params api.GetConversationsParams) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetConversations")

	userID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user ID")
		h.writeError(w, "failed to get user ID", http.StatusInternalServerError)
		return
	}

	limit := int32(20)
	if params.Limit != nil && *params.Limit > 0 && *params.Limit <= 50 {
		limit = int32(*params.Limit)
	}

	offset := int32(0)
	if params.Offset != nil && *params.Offset > 0 {
		offset = int32(*params.Offset)
	}

	previews, err := h.repository.GetUserConversations(r.Context(), userID, limit, offset)
	if err != nil {
		// a degraded inbox beats a failed one; the client shows an
		// empty list with a retry affordance
		logger.Error(fmt.Sprintf("failed to get conversations: %v", err))
		h.writeJSON(w, api.GetConversationsResponse{Conversations: []api.ConversationPreview{}}, http.StatusOK)
		return
	}

	conversations := make([]api.ConversationPreview, len(*previews))
	for i, preview := range *previews {
		var lastMessageAt *string
		if preview.LastMessageAt != nil {
			timestamp := preview.LastMessageAt.Format(time.RFC3339)
			lastMessageAt = &timestamp
		}

		var avatarURL *string
		if preview.AvatarURL != "" {
			url := preview.AvatarURL
			avatarURL = &url
		}

		conversations[i] = api.ConversationPreview{
			ConversationId: preview.ConversationID,
			CompanionId:    preview.CompanionID,
			CompanionName:  preview.CompanionName,
			AvatarUrl:      avatarURL,
			LastMessage:    preview.LastMessage,
			LastMessageAt:  lastMessageAt,
			UnreadCount:    preview.UnreadCount,
		}
	}

	response := api.GetConversationsResponse{
		Conversations: conversations,
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) GetConversationMessages(w http.ResponseWriter, r *http.Request, conversationId string, params api.GetConversationMessagesParams) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetConversationMessages")

	viewerID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get viewer ID")
		h.writeError(w, "failed to get viewer ID", http.StatusInternalServerError)
		return
	}

	isParticipant, err := h.repository.IsParticipant(r.Context(), conversationId, viewerID)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to check conversation membership: %v", err))
		h.writeError(w, fmt.Sprintf("failed to check conversation membership: %v", err), http.StatusInternalServerError)
		return
	}

	if !isParticipant {
		logger.Error("user is not a participant of the conversation")
		h.writeError(w, "user is not a participant of the conversation", http.StatusForbidden)
		return
	}

	limit := int32(50)
	if params.Limit != nil && *params.Limit > 0 && *params.Limit <= 100 {
		limit = int32(*params.Limit)
	}

	offset := int32(0)
	if params.Offset != nil && *params.Offset > 0 {
		offset = int32(*params.Offset)
	}

	messages, err := h.repository.GetConversationMessages(r.Context(), conversationId, viewerID, limit, offset)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to fetch messages: %v", err))
		h.writeJSON(w, api.GetConversationMessagesResponse{Messages: []api.Message{}}, http.StatusOK)
		return
	}

	apiMessages := make([]api.Message, len(*messages))
	for i, msg := range *messages {
		apiMessages[i] = api.Message{
			Id:             msg.ID.String(),
			ConversationId: msg.ConversationID.String(),
			SenderId:       msg.SenderID.String(),
			Content:        msg.Content,
			CreatedAt:      msg.CreatedAt.Format(time.RFC3339),
		}
	}

	response := api.GetConversationMessagesResponse{
		Messages: apiMessages,
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request, conversationId string) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("SendMessage")

	var req api.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error(fmt.Sprintf("failed to decode request: %v", err))
		h.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	senderID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get sender ID")
		h.writeError(w, "failed to get sender ID", http.StatusInternalServerError)
		return
	}

	if err := h.validator.ValidateSendMessage(&req); err != nil {
		logger.Error(fmt.Sprintf("message validation failed: %v", err))
		h.writeError(w, fmt.Sprintf("message validation failed: %v", err), http.StatusBadRequest)
		return
	}

	conversationUUID, err := uuid.Parse(conversationId)
	if err != nil {
		logger.Error(fmt.Sprintf("invalid conversation id: %v", err))
		h.writeError(w, "invalid conversation id", http.StatusBadRequest)
		return
	}

	senderUUID, err := uuid.Parse(senderID)
	if err != nil {
		logger.Error(fmt.Sprintf("sender id from context is not a uuid: %v", err))
		h.writeError(w, "failed to get sender ID", http.StatusInternalServerError)
		return
	}

	var message model.Message
	err = tx.TxExecute(r.Context(), func(ctx context.Context) error {
		isParticipant, err := h.repository.IsParticipant(ctx, conversationId, senderID)
		if err != nil {
			logger.Error(fmt.Sprintf("failed to check conversation membership: %v", err))
			return fmt.Errorf("failed to check conversation membership: %v", err)
		}

		if !isParticipant {
			logger.Error(fmt.Sprintf("user %s is not a participant of conversation %s", senderID, conversationId))
			return errNotParticipant
		}

		message = model.Message{
			ID:             uuid.New(),
			ConversationID: conversationUUID,
			SenderID:       senderUUID,
			Content:        req.Content,
			CreatedAt:      time.Now(),
		}

		err = h.repository.SaveMessage(ctx, &message)
		if err != nil {
			logger.Error(fmt.Sprintf("failed to save message: %v", err))
			return fmt.Errorf("failed to save message: %v", err)
		}

		err = h.repository.TouchConversation(ctx, conversationId, &message)
		if err != nil {
			logger.Error(fmt.Sprintf("failed to update conversation: %v", err))
			return fmt.Errorf("failed to update conversation: %v", err)
		}

		return nil
	})

	if errors.Is(err, errNotParticipant) {
		h.writeError(w, errNotParticipant.Error(), http.StatusForbidden)
		return
	}

	if err != nil {
		logger.Error(fmt.Sprintf("failed to send message transaction: %v", err))
		h.writeError(w, fmt.Sprintf("failed to send message: %v", err), http.StatusInternalServerError)
		return
	}

	err = h.notifier.PublishMessage(r.Context(), message)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to publish message event: %v", err))
	}

	response := api.SendMessageResponse{
		Message: api.Message{
			Id:             message.ID.String(),
			ConversationId: message.ConversationID.String(),
			SenderId:       message.SenderID.String(),
			Content:        message.Content,
			CreatedAt:      message.CreatedAt.Format(time.RFC3339),
		},
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) MarkConversationRead(w http.ResponseWriter, r *http.Request, conversationId string) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("MarkConversationRead")

	userID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user ID")
		h.writeError(w, "failed to get user ID", http.StatusInternalServerError)
		return
	}

	isParticipant, err := h.repository.IsParticipant(r.Context(), conversationId, userID)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to check conversation membership: %v", err))
		h.writeError(w, fmt.Sprintf("failed to check conversation membership: %v", err), http.StatusInternalServerError)
		return
	}

	if !isParticipant {
		logger.Error("user is not a participant of the conversation")
		h.writeError(w, "user is not a participant of the conversation", http.StatusForbidden)
		return
	}

	// best-effort: a lost read cursor update only leaves a transiently
	// stale unread badge
	if err := h.repository.MarkConversationRead(r.Context(), userID, conversationId); err != nil {
		logger.Error(fmt.Sprintf("failed to mark conversation as read: %v", err))
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetUnreadTotal(w http.ResponseWriter, r *http.Request) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetUnreadTotal")

	userID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user ID")
		h.writeError(w, "failed to get user ID", http.StatusInternalServerError)
		return
	}

	total, err := h.repository.CountUnreadTotal(r.Context(), userID)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to count unread messages: %v", err))
		h.writeJSON(w, api.GetUnreadTotalResponse{Total: 0}, http.StatusOK)
		return
	}

	h.writeJSON(w, api.GetUnreadTotalResponse{Total: total}, http.StatusOK)
}

func (h *Handler) GetConnectToken(w http.ResponseWriter, r *http.Request) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetConnectToken")

	userID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user ID")
		h.writeError(w, "failed to get user ID", http.StatusInternalServerError)
		return
	}

	token, expiresAt, err := h.jwtGenerator.GenerateConnectToken(userID)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to generate connect token: %v", err))
		h.writeError(w, fmt.Sprintf("failed to generate connect token: %v", err), http.StatusInternalServerError)
		return
	}

	logger.Info(fmt.Sprintf("generated connect token for user %s", userID))

	response := api.GetConnectTokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) GetSubscribeToken(w http.ResponseWriter, r *http.Request, conversationId string) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetSubscribeToken")

	userID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user ID")
		h.writeError(w, "failed to get user ID", http.StatusInternalServerError)
		return
	}

	isParticipant, err := h.repository.IsParticipant(r.Context(), conversationId, userID)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to check conversation membership: %v", err))
		h.writeError(w, fmt.Sprintf("failed to check conversation membership: %v", err), http.StatusInternalServerError)
		return
	}

	if !isParticipant {
		logger.Error("user is not a participant of the conversation")
		h.writeError(w, "user is not a participant of the conversation", http.StatusForbidden)
		return
	}

	token, expiresAt, err := h.jwtGenerator.GenerateSubscribeToken(userID, conversationId)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to generate subscribe token: %v", err))
		h.writeError(w, fmt.Sprintf("failed to generate subscribe token: %v", err), http.StatusInternalServerError)
		return
	}

	logger.Info(fmt.Sprintf("generated subscribe token for user %s, conversation %s", userID, conversationId))

	response := api.GetSubscribeTokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Channel:   conversationId,
	}

	h.writeJSON(w, response, http.StatusOK)
}

// ----------------------------- helpers -----------------------------

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(api.Error{Error: message})
}
