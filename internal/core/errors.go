package core

import "errors"

// Error codes sent to clients.
const (
	ErrCodeUnauthorized   = "unauthorized"
	ErrCodeSendFailed     = "send_failed"
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeRateLimited    = "rate_limited"
)

// Session gate rejections. The messages double as close reasons.
var (
	ErrAuthRequired    = errors.New("authentication required")
	ErrInvalidToken    = errors.New("invalid token")
	ErrUserNotFound    = errors.New("user not found")
	ErrGateUnavailable = errors.New("authentication unavailable")
)

// Channel router errors.
var (
	ErrMalformedMessage = errors.New("receiverId and content are required")
	ErrInvalidReceiver  = errors.New("invalid receiver")
	ErrInvalidState     = errors.New("invalid connection state")
)

// sendFailedMessage is the only detail a sender learns about a failed send.
const sendFailedMessage = "Message failed to send"

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
