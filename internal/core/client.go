package core

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/vovakirdan/bookstore-server/internal/store"
)

// State is the lifecycle position of a realtime connection.
type State int32

const (
	// StateUnbound is the initial state, before the client joins its channel.
	StateUnbound State = iota
	// StateBound means the client is a member of its identity channel.
	StateBound
	// StateTerminated means membership was released; no further events are processed.
	StateTerminated
)

// DefaultClientBuffer is the outbound event buffer used when none is configured.
const DefaultClientBuffer = 64

// Client is one live realtime connection as seen by the core layer.
type Client struct {
	ID       string
	Identity string
	User     *store.User
	Events   chan *Event

	state atomic.Int32
}

// NewClient constructs an unbound client for an admitted user.
func NewClient(user *store.User, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	return &Client{
		ID:       uuid.NewString(),
		Identity: IdentityOf(user.ID),
		User:     user,
		Events:   make(chan *Event, buffer),
	}
}

// State reports where the client is in its lifecycle.
func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) transition(from, to State) bool {
	return c.state.CompareAndSwap(int32(from), int32(to))
}

// deliver queues an event without blocking. Returns false if the buffer is full.
func (c *Client) deliver(ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}

// IdentityOf returns the channel name for a user.
func IdentityOf(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
