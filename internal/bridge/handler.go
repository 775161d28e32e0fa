package bridge

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// TokenValidator resolves a bearer token to a user id.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// Handler upgrades viewer connections at /ws/viewer.
type Handler struct {
	hub     *Hub
	auth    TokenValidator
	origins []string
}

// NewHandler creates the viewer endpoint. A nil auth accepts anonymous
// viewers. allowedOrigins are full origins such as http://localhost:5173.
func NewHandler(hub *Hub, auth TokenValidator, allowedOrigins []string) *Handler {
	patterns := make([]string, 0, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(o), "http://"), "https://")
		if o != "" {
			patterns = append(patterns, o)
		}
	}
	return &Handler{hub: hub, auth: auth, origins: patterns}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := "anon-" + uuid.New().String()[:8]
	if h.auth != nil {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		var err error
		userID, err = h.auth.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := NewClient(h.hub, conn, userID, uuid.New().String())
	h.hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
