package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeSendMessage = "sendMessage"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventNewMessage = "newMessage"
	EventError      = "error"
)

// SendMessageData asks the server to deliver a direct message.
type SendMessageData struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Message is a persisted direct message as seen by clients.
type Message struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
	Timestamp  string `json:"timestamp"`
	Read       bool   `json:"read"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
