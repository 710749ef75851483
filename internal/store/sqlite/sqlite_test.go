package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/bookstore-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewWithSetup(":memory:", ApplySchema)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustCreateUser(t *testing.T, s *SQLiteStore, email string) *store.User {
	t.Helper()

	u, err := s.CreateUser(context.Background(), store.NewUser{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return u
}

func TestCreateUserDefaultsAndDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := mustCreateUser(t, s, "alice@example.com")
	if u.ID == 0 || u.Role != store.RoleCustomer {
		t.Fatalf("unexpected user: %+v", u)
	}

	_, err := s.CreateUser(ctx, store.NewUser{FirstName: "A", LastName: "B", Email: "alice@example.com", PasswordHash: "x"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("lookup by email: %+v, %v", byEmail, err)
	}

	if _, err := s.GetUserByID(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateProfileAndRole(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustCreateUser(t, s, "bob@example.com")

	phone := "+1-555-0100"
	updated, err := s.UpdateProfile(ctx, u.ID, store.ProfileUpdate{Phone: &phone})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Phone != phone || updated.FirstName != "Test" {
		t.Fatalf("unexpected profile: %+v", updated)
	}

	if err := s.SetRole(ctx, u.ID, store.RoleAdmin); err != nil {
		t.Fatalf("set role: %v", err)
	}
	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 || users[0].Role != store.RoleAdmin {
		t.Fatalf("unexpected users: %+v", users)
	}

	if err := s.SetRole(ctx, 42, store.RoleAdmin); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateMessageRejectsUnknownReceiver(t *testing.T) {
	s := newTestStore(t)
	alice := mustCreateUser(t, s, "alice@example.com")

	_, err := s.CreateMessage(context.Background(), alice.ID, 777, "hello")
	if !errors.Is(err, store.ErrUnknownReceiver) || !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrUnknownReceiver for unknown receiver, got %v", err)
	}
}

func TestCreateMessageRejectsUnknownSender(t *testing.T) {
	s := newTestStore(t)
	bob := mustCreateUser(t, s, "bob@example.com")

	_, err := s.CreateMessage(context.Background(), 555, bob.ID, "hello")
	if !errors.Is(err, store.ErrUnknownSender) {
		t.Fatalf("expected ErrUnknownSender for deleted sender, got %v", err)
	}
	if errors.Is(err, store.ErrUnknownReceiver) {
		t.Fatalf("sender failure reported as receiver: %v", err)
	}
}

func TestListConversationBothDirectionsInOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, s, "alice@example.com")
	bob := mustCreateUser(t, s, "bob@example.com")
	carol := mustCreateUser(t, s, "carol@example.com")

	texts := []struct {
		from, to int64
		body     string
	}{
		{alice.ID, bob.ID, "hi bob"},
		{bob.ID, alice.ID, "hi alice"},
		{carol.ID, alice.ID, "not in this conversation"},
		{alice.ID, bob.ID, "how are you"},
	}
	for _, m := range texts {
		msg, err := s.CreateMessage(ctx, m.from, m.to, m.body)
		if err != nil {
			t.Fatalf("create message: %v", err)
		}
		if msg.Read {
			t.Fatalf("new message must be unread")
		}
	}

	conv, err := s.ListConversation(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("list conversation: %v", err)
	}

	want := []string{"hi bob", "hi alice", "how are you"}
	if len(conv) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(conv))
	}
	for i, m := range conv {
		if m.Content != want[i] {
			t.Errorf("message %d: expected %q, got %q", i, want[i], m.Content)
		}
		if i > 0 && m.Timestamp.Before(conv[i-1].Timestamp) {
			t.Errorf("message %d timestamp went backwards", i)
		}
	}
}

func TestMessageTimestampsNeverDecrease(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := mustCreateUser(t, s, "alice@example.com")
	bob := mustCreateUser(t, s, "bob@example.com")

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := []time.Time{base, base.Add(-time.Minute)}
	s.now = func() time.Time {
		ts := clock[0]
		clock = clock[1:]
		return ts
	}

	first, err := s.CreateMessage(ctx, alice.ID, bob.ID, "m1")
	if err != nil {
		t.Fatalf("create m1: %v", err)
	}
	second, err := s.CreateMessage(ctx, alice.ID, bob.ID, "m2")
	if err != nil {
		t.Fatalf("create m2: %v", err)
	}

	if second.Timestamp.Before(first.Timestamp) {
		t.Fatalf("timestamp went backwards: %v < %v", second.Timestamp, first.Timestamp)
	}
}
