package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/bookstore-server/internal/store"
)

//go:embed schema.sql
var schema string

const dsnParams = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB

	// guards lastTS so message timestamps never go backwards, even if the wall clock does.
	tsMu   sync.Mutex
	lastTS time.Time
	now    func() time.Time
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, ApplySchema)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema or seed data.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// ApplySchema creates all tables and indexes if they do not exist yet.
func ApplySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

const userColumns = `id, first_name, last_name, email, password_hash, role, phone, avatar, created_at, updated_at`

// CreateUser inserts a customer account.
func (s *SQLiteStore) CreateUser(ctx context.Context, u store.NewUser) (*store.User, error) {
	query := `
		INSERT INTO users (first_name, last_name, email, password_hash, role)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, u.FirstName, u.LastName, u.Email, u.PasswordHash, store.RoleCustomer)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintUnique) {
			return nil, fmt.Errorf("insert user: %w", store.ErrDuplicate)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return s.queryUser(ctx, query, id)
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return s.queryUser(ctx, query, email)
}

// UpdateProfile applies the non-nil fields of upd.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, id int64, upd store.ProfileUpdate) (*store.User, error) {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	add := func(column string, v *string) {
		if v != nil {
			sets = append(sets, column+" = ?")
			args = append(args, *v)
		}
	}
	add("first_name", upd.FirstName)
	add("last_name", upd.LastName)
	add("phone", upd.Phone)
	add("avatar", upd.Avatar)

	sets = append(sets, "updated_at = ?")
	args = append(args, s.now().UTC(), id)

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}

	return s.GetUserByID(ctx, id)
}

// SetRole changes the role of a user.
func (s *SQLiteStore) SetRole(ctx context.Context, id int64, role store.Role) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`, role, s.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	return nil
}

// ListUsers returns all users ordered by ID.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*store.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func (s *SQLiteStore) queryUser(ctx context.Context, query string, arg any) (*store.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*store.User, error) {
	var u store.User
	var role string
	err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.Phone,
		&u.Avatar,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = store.Role(role)
	return &u, nil
}

// ==== MessageStore implementation ====

// CreateMessage persists a message with a store-assigned timestamp.
// A missing account is reported as store.ErrUnknownSender or store.ErrUnknownReceiver.
func (s *SQLiteStore) CreateMessage(ctx context.Context, senderID, receiverID int64, content string) (*store.Message, error) {
	ts := s.nextTimestamp()

	query := `
		INSERT INTO messages (sender_id, receiver_id, content, timestamp, is_read)
		VALUES (?, ?, ?, ?, 0)
	`
	result, err := s.db.ExecContext(ctx, query, senderID, receiverID, content, ts)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
			return nil, fmt.Errorf("insert message: %w", s.missingParty(ctx, senderID))
		}
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return &store.Message{
		ID:         id,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Timestamp:  ts,
		Read:       false,
	}, nil
}

// missingParty tells which side of a failed message insert has no account.
// The sender is checked first; otherwise the receiver is to blame.
func (s *SQLiteStore) missingParty(ctx context.Context, senderID int64) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, senderID).Scan(&exists)
	if err == nil && !exists {
		return store.ErrUnknownSender
	}
	return store.ErrUnknownReceiver
}

// ListConversation returns messages between two users, oldest first.
func (s *SQLiteStore) ListConversation(ctx context.Context, userID, otherID int64) ([]*store.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, content, timestamp, is_read
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY timestamp ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, otherID, otherID, userID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		var m store.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Timestamp, &m.Read); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

func (s *SQLiteStore) nextTimestamp() time.Time {
	s.tsMu.Lock()
	defer s.tsMu.Unlock()

	ts := s.now().UTC().Round(0)
	if ts.Before(s.lastTS) {
		ts = s.lastTS
	}
	s.lastTS = ts
	return ts
}

func isConstraint(err error, code sqlite3.ErrNoExtended) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == code
}
