package http

import (
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/vovakirdan/bookstore-server/internal/core"
	"github.com/vovakirdan/bookstore-server/internal/proto"
	"github.com/vovakirdan/bookstore-server/internal/store"
)

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventNewMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNewMessage,
			Data:  messageToProto(event.Message),
		}
	case core.EventError:
		if event.Error == nil {
			return errorOutbound("unknown", "unknown error")
		}
		return errorOutbound(event.Error.Code, event.Error.Message)
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func errorOutbound(code, msg string) proto.Outbound {
	return proto.Outbound{
		Type:  proto.OutboundTypeError,
		Event: proto.EventError,
		Error: &proto.Error{Code: code, Message: msg},
	}
}

func messageToProto(m *store.Message) proto.Message {
	return proto.Message{
		ID:         strconv.FormatInt(m.ID, 10),
		SenderID:   core.IdentityOf(m.SenderID),
		ReceiverID: core.IdentityOf(m.ReceiverID),
		Content:    m.Content,
		Timestamp:  m.Timestamp.UTC().Format(time.RFC3339Nano),
		Read:       m.Read,
	}
}

func messagesToProto(messages []*store.Message) []proto.Message {
	return lo.Map(messages, func(m *store.Message, _ int) proto.Message {
		return messageToProto(m)
	})
}

func userToResponse(u *store.User) UserResponse {
	return UserResponse{
		ID:        strconv.FormatInt(u.ID, 10),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Email:     u.Email,
		Role:      string(u.Role),
		Phone:     u.Phone,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}
