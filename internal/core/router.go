package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/bookstore-server/internal/store"
)

var validate = validator.New()

// SendRequest is a submit-message request. Content is checked before trimming,
// so whitespace-only content is accepted and stored empty.
type SendRequest struct {
	ReceiverID string `validate:"required"`
	Content    string `validate:"required"`
}

// Router binds connections to their identity channel and delivers messages.
type Router struct {
	registry *Registry
	messages MessageCreator
	log      *zerolog.Logger
}

// NewRouter creates a channel router on top of a registry.
func NewRouter(registry *Registry, messages MessageCreator, logger *zerolog.Logger) *Router {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Router{registry: registry, messages: messages, log: logger}
}

// Registry exposes the membership table the router publishes to.
func (r *Router) Registry() *Registry {
	return r.registry
}

// Bind joins an admitted client to the channel named by its identity.
func (r *Router) Bind(c *Client) error {
	if !c.transition(StateUnbound, StateBound) {
		return ErrInvalidState
	}
	r.registry.Join(c.Identity, c)
	r.log.Debug().Str("client_id", c.ID).Str("channel", c.Identity).Msg("client bound")
	return nil
}

// Release removes the client from its channel. Safe to call more than once.
func (r *Router) Release(c *Client) {
	if c.transition(StateBound, StateTerminated) {
		r.registry.Leave(c.Identity, c)
		r.log.Debug().Str("client_id", c.ID).Str("channel", c.Identity).Msg("client released")
		return
	}
	c.transition(StateUnbound, StateTerminated)
}

// Send persists a message from senderID and publishes it to the receiver's and
// the sender's channels. Nothing is published unless persistence succeeds.
func (r *Router) Send(ctx context.Context, senderID int64, req SendRequest) (*store.Message, error) {
	if err := validate.Struct(req); err != nil {
		return nil, ErrMalformedMessage
	}

	receiverID, err := strconv.ParseInt(strings.TrimSpace(req.ReceiverID), 10, 64)
	if err != nil || receiverID <= 0 {
		return nil, ErrInvalidReceiver
	}

	msg, err := r.messages.CreateMessage(ctx, senderID, receiverID, strings.TrimSpace(req.Content))
	if err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	ev := &Event{Kind: EventNewMessage, Message: msg}
	receiver := IdentityOf(receiverID)
	sender := IdentityOf(senderID)
	delivered := r.registry.Publish(receiver, ev)
	if sender != receiver {
		delivered += r.registry.Publish(sender, ev)
	}

	r.log.Debug().
		Int64("message_id", msg.ID).
		Int64("sender_id", senderID).
		Int64("receiver_id", receiverID).
		Int("delivered", delivered).
		Msg("message sent")

	return msg, nil
}

// Submit handles a sendMessage event from a bound client. Malformed requests
// are dropped without a reply; other failures are reported to c only.
// Persistence is not cancelled by the client disconnecting mid-send.
func (r *Router) Submit(ctx context.Context, c *Client, req SendRequest) {
	if c.State() != StateBound {
		return
	}

	_, err := r.Send(context.WithoutCancel(ctx), c.User.ID, req)
	switch {
	case err == nil:
	case errors.Is(err, ErrMalformedMessage):
		r.log.Debug().Str("client_id", c.ID).Msg("dropping malformed sendMessage")
	default:
		r.log.Warn().Err(err).Str("client_id", c.ID).Int64("user_id", c.User.ID).Msg("send message failed")
		c.deliver(&Event{Kind: EventError, Error: coreError(ErrCodeSendFailed, sendFailedMessage)})
	}
}

// Reject queues an error event for a single client.
func (r *Router) Reject(c *Client, code, msg string) {
	c.deliver(&Event{Kind: EventError, Error: coreError(code, msg)})
}
