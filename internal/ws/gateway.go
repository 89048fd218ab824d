package ws

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/skillhub/chat-service/internal/model"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type TokenValidator interface {
	ValidateConnectToken(tokenString string) (*model.RealtimeConnectClaims, error)
	ValidateSubscribeToken(tokenString string) (*model.RealtimeSubscribeClaims, error)
}

type Notifier interface {
	SubscribeToConversation(conversationID string, onInsert func(model.Message)) func()
	SubscribeToInbox(userID string, onNewMessage func()) func()
}

// Gateway upgrades clients to websocket and bridges them onto the realtime
// notifier. A client authenticates the connection with a connect token and
// each conversation feed with a subscribe token, both minted by the REST
// token endpoints.
type Gateway struct {
	notifier Notifier
	tokens   TokenValidator
}

func New(notifier Notifier, tokens TokenValidator) *Gateway {
	return &Gateway{
		notifier: notifier,
		tokens:   tokens,
	}
}

func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	claims, err := g.tokens.ValidateConnectToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid connect token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("failed to upgrade connection: %v", err)
		return
	}

	client := newClient(g, conn, claims.Subject)
	client.run()
}
