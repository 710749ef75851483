//go:generate go run go.uber.org/mock/mockgen -source=deps.go -destination=mocks/mock_deps.go -package=mocks
package core

import (
	"context"

	"github.com/vovakirdan/bookstore-server/internal/auth"
	"github.com/vovakirdan/bookstore-server/internal/store"
)

// TokenVerifier checks a bearer credential and returns its claims.
type TokenVerifier interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// AccountFinder resolves a token subject to an account.
type AccountFinder interface {
	GetUserByID(ctx context.Context, id int64) (*store.User, error)
}

// MessageCreator persists direct messages.
type MessageCreator interface {
	CreateMessage(ctx context.Context, senderID, receiverID int64, content string) (*store.Message, error)
}
