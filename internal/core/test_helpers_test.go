package core

import (
	"testing"
	"time"

	"github.com/vovakirdan/bookstore-server/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func testUser(id int64) *store.User {
	return &store.User{ID: id, FirstName: "user", LastName: IdentityOf(id), Role: store.RoleCustomer}
}

func boundClient(t *testing.T, r *Router, userID int64) *Client {
	t.Helper()

	c := NewClient(testUser(userID), 8)
	if err := r.Bind(c); err != nil {
		t.Fatalf("bind: %v", err)
	}
	return c
}
