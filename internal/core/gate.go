package core

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/bookstore-server/internal/store"
)

// Gate admits or rejects realtime connection attempts.
type Gate struct {
	verifier TokenVerifier
	accounts AccountFinder
	log      *zerolog.Logger
}

// NewGate builds a session gate. The verifier carries the signing key.
func NewGate(verifier TokenVerifier, accounts AccountFinder, logger *zerolog.Logger) *Gate {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Gate{verifier: verifier, accounts: accounts, log: logger}
}

// Admit resolves a token to an account. The returned error is one of
// ErrAuthRequired, ErrInvalidToken, ErrUserNotFound or ErrGateUnavailable.
func (g *Gate) Admit(ctx context.Context, token string) (*store.User, error) {
	if token == "" {
		return nil, ErrAuthRequired
	}

	claims, err := g.verifier.ValidateToken(token)
	if err != nil {
		g.log.Debug().Err(err).Msg("token rejected")
		return nil, ErrInvalidToken
	}

	user, err := g.accounts.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		g.log.Error().Err(err).Int64("user_id", claims.UserID).Msg("account lookup failed")
		return nil, ErrGateUnavailable
	}

	return user, nil
}
