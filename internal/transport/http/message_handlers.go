package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/bookstore-server/internal/core"
	"github.com/vovakirdan/bookstore-server/internal/store"
)

// MessageHandlers exposes direct messages over REST.
type MessageHandlers struct {
	router   *core.Router
	messages store.MessageStore
	log      *zerolog.Logger
}

// NewMessageHandlers creates message handlers on top of the channel router.
func NewMessageHandlers(router *core.Router, messages store.MessageStore, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		router:   router,
		messages: messages,
		log:      logger,
	}
}

// SendMessageRequest is the REST body for sending a message.
type SendMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

// Send persists a message and notifies live connections of both parties.
// POST /api/messages
func (h *MessageHandlers) Send(c *gin.Context) {
	uid, ok := currentUserID(c, h.log)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid send message request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	msg, err := h.router.Send(c.Request.Context(), uid, core.SendRequest{
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
	})
	if err != nil {
		switch {
		case errors.Is(err, core.ErrMalformedMessage), errors.Is(err, core.ErrInvalidReceiver):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, store.ErrUnknownSender):
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "user not found"})
		case errors.Is(err, store.ErrUnknownReceiver):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "receiver not found"})
		default:
			h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to send message")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to send message"})
		}
		return
	}

	c.JSON(http.StatusCreated, messageToProto(msg))
}

// Conversation lists messages between the caller and another user, oldest first.
// GET /api/messages/:receiverId
func (h *MessageHandlers) Conversation(c *gin.Context) {
	uid, ok := currentUserID(c, h.log)
	if !ok {
		return
	}

	otherID, err := strconv.ParseInt(c.Param("receiverId"), 10, 64)
	if err != nil || otherID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: core.ErrInvalidReceiver.Error()})
		return
	}

	messages, err := h.messages.ListConversation(c.Request.Context(), uid, otherID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Int64("other_id", otherID).Msg("failed to list conversation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, messagesToProto(messages))
}

