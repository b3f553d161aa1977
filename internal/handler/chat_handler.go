package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/playpulse/playpulse-api/internal/models"
	"github.com/playpulse/playpulse-api/internal/service"
	"github.com/playpulse/playpulse-api/pkg/response"
)

type chatService interface {
	Send(ctx context.Context, sender models.UserInfo, req service.SendChatMessageRequest) (*models.ChatMessageDetail, error)
	List(ctx context.Context, userID string) ([]models.ChatMessageDetail, error)
}

type chatHub interface {
	Serve(conn *websocket.Conn, userID string)
}

// ChatHandler exposes parent and coach messaging plus the realtime socket.
type ChatHandler struct {
	chat     chatService
	hub      chatHub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewChatHandler constructs ChatHandler. Socket upgrades are accepted from allowedOrigins only; "*" allows any.
func NewChatHandler(chat chatService, hub chatHub, allowedOrigins []string, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	return &ChatHandler{
		chat:   chat,
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if _, ok := origins["*"]; ok {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
	}
}

// Send godoc
// @Summary Send a chat message
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SendChatMessageRequest true "Message"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /parent/chat-message [post]
func (h *ChatHandler) Send(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.SendChatMessageRequest
	if !bindJSON(c, &req, "invalid chat message") {
		return
	}
	msg, err := h.chat.Send(c.Request.Context(), userInfo(claims), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// List godoc
// @Summary Caller's conversation history, oldest first
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /parent/chat-messages [get]
func (h *ChatHandler) List(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	rows, err := h.chat.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// Socket godoc
// @Summary Realtime chat socket
// @Description Pushes chat_message envelopes to the connected user.
// @Tags Chat
// @Param access_token query string true "Access token"
// @Success 101
// @Router /chat/ws [get]
func (h *ChatHandler) Socket(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.String("user_id", claims.UserID), zap.Error(err))
		return
	}
	h.hub.Serve(conn, claims.UserID)
}
