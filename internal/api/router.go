package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ServerInterface is implemented by the rest handler; path and query
// parameters are already extracted by the route bindings below.
type ServerInterface interface {
	CreateConversation(w http.ResponseWriter, r *http.Request)
	GetConversations(w http.ResponseWriter, r *http.Request, params GetConversationsParams)
	GetConversationMessages(w http.ResponseWriter, r *http.Request, conversationId string, params GetConversationMessagesParams)
	SendMessage(w http.ResponseWriter, r *http.Request, conversationId string)
	MarkConversationRead(w http.ResponseWriter, r *http.Request, conversationId string)
	GetUnreadTotal(w http.ResponseWriter, r *http.Request)
	GetConnectToken(w http.ResponseWriter, r *http.Request)
	GetSubscribeToken(w http.ResponseWriter, r *http.Request, conversationId string)
}

func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	r.Post("/api/chat/conversations", si.CreateConversation)

	r.Get("/api/chat/conversations", func(w http.ResponseWriter, req *http.Request) {
		params := GetConversationsParams{}
		var ok bool
		if params.Limit, ok = queryInt(w, req, "limit"); !ok {
			return
		}
		if params.Offset, ok = queryInt(w, req, "offset"); !ok {
			return
		}
		si.GetConversations(w, req, params)
	})

	r.Get("/api/chat/conversations/{conversation_id}/messages", func(w http.ResponseWriter, req *http.Request) {
		params := GetConversationMessagesParams{}
		var ok bool
		if params.Limit, ok = queryInt(w, req, "limit"); !ok {
			return
		}
		if params.Offset, ok = queryInt(w, req, "offset"); !ok {
			return
		}
		si.GetConversationMessages(w, req, chi.URLParam(req, "conversation_id"), params)
	})

	r.Post("/api/chat/conversations/{conversation_id}/messages", func(w http.ResponseWriter, req *http.Request) {
		si.SendMessage(w, req, chi.URLParam(req, "conversation_id"))
	})

	r.Post("/api/chat/conversations/{conversation_id}/read", func(w http.ResponseWriter, req *http.Request) {
		si.MarkConversationRead(w, req, chi.URLParam(req, "conversation_id"))
	})

	r.Get("/api/chat/conversations/{conversation_id}/subscribe-token", func(w http.ResponseWriter, req *http.Request) {
		si.GetSubscribeToken(w, req, chi.URLParam(req, "conversation_id"))
	})

	r.Get("/api/chat/unread/total", si.GetUnreadTotal)
	r.Get("/api/chat/realtime/token", si.GetConnectToken)

	return r
}

func queryInt(w http.ResponseWriter, r *http.Request, name string) (*int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(Error{Error: "invalid query parameter " + name})
		return nil, false
	}

	return &value, true
}
