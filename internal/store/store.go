package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint would be violated.
	ErrDuplicate = errors.New("duplicate")

	// ErrUnknownSender and ErrUnknownReceiver name the missing account of a message.
	// Both match ErrNotFound.
	ErrUnknownSender   = fmt.Errorf("sender %w", ErrNotFound)
	ErrUnknownReceiver = fmt.Errorf("receiver %w", ErrNotFound)
)

// Role defines what a user is allowed to do.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User represents a bookstore account.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role
	Phone        string
	Avatar       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// NewUser holds the fields required to create a user.
type NewUser struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
}

// ProfileUpdate carries optional profile changes. Nil fields are left untouched.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Avatar    *string
}

// Message represents a persisted direct message between two users.
type Message struct {
	ID         int64
	SenderID   int64
	ReceiverID int64
	Content    string
	Timestamp  time.Time
	Read       bool
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser inserts a customer account. Returns ErrDuplicate if the email is taken.
	CreateUser(ctx context.Context, u NewUser) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// UpdateProfile applies a profile update and returns the fresh record.
	UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*User, error)

	// SetRole changes the role of a user.
	SetRole(ctx context.Context, id int64, role Role) error

	// ListUsers returns all users ordered by ID.
	ListUsers(ctx context.Context) ([]*User, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// CreateMessage persists a message. The store assigns ID and Timestamp; Read starts false.
	// A missing account is reported as ErrUnknownSender or ErrUnknownReceiver.
	CreateMessage(ctx context.Context, senderID, receiverID int64, content string) (*Message, error)

	// ListConversation returns messages exchanged between two users in either direction,
	// oldest first.
	ListConversation(ctx context.Context, userID, otherID int64) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
