package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/bookstore-server/internal/auth"
	"github.com/vovakirdan/bookstore-server/internal/proto"
)

func TestRESTSendNotifiesBothParties(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	aliceToken, aliceID := env.register(t, "Alice", "alice@example.com")
	bobToken, bobID := env.register(t, "Bob", "bob@example.com")
	carolToken, carolID := env.register(t, "Carol", "carol@example.com")

	alice := env.dial(t, ctx, aliceToken, aliceID)
	bob := env.dial(t, ctx, bobToken, bobID)
	carol := env.dial(t, ctx, carolToken, carolID)

	resp := env.do(t, http.MethodPost, "/api/messages", aliceToken, SendMessageRequest{ReceiverID: bobID, Content: "order shipped"})
	req.Equal(http.StatusCreated, resp.Code, resp.Body.String())

	var created proto.Message
	req.NoError(json.Unmarshal(resp.Body.Bytes(), &created))
	req.Equal(aliceID, created.SenderID)
	req.Equal(bobID, created.ReceiverID)

	req.Equal(created.ID, readNewMessage(t, ctx, bob).ID)
	req.Equal(created.ID, readNewMessage(t, ctx, alice).ID)
	expectSilence(t, ctx, carol)
}

func TestRESTSendErrors(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "Alice", "alice@example.com")
	_, bobID := env.register(t, "Bob", "bob@example.com")

	cases := []struct {
		name  string
		token string
		body  any
		want  int
	}{
		{name: "no token", token: "", body: SendMessageRequest{ReceiverID: bobID, Content: "hi"}, want: http.StatusUnauthorized},
		{name: "bad json", token: token, body: `{"receiverId":`, want: http.StatusBadRequest},
		{name: "missing content", token: token, body: SendMessageRequest{ReceiverID: bobID}, want: http.StatusBadRequest},
		{name: "missing receiver", token: token, body: SendMessageRequest{Content: "hi"}, want: http.StatusBadRequest},
		{name: "non-numeric receiver", token: token, body: SendMessageRequest{ReceiverID: "bob", Content: "hi"}, want: http.StatusBadRequest},
		{name: "unknown receiver", token: token, body: SendMessageRequest{ReceiverID: "404", Content: "hi"}, want: http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/messages", tc.token, tc.body)
			require.Equal(t, tc.want, resp.Code, resp.Body.String())
		})
	}
}

func TestConversationHistory(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	aliceToken, aliceID := env.register(t, "Alice", "alice@example.com")
	bobToken, bobID := env.register(t, "Bob", "bob@example.com")
	carolToken, carolID := env.register(t, "Carol", "carol@example.com")

	send := func(token, to, content string) {
		resp := env.do(t, http.MethodPost, "/api/messages", token, SendMessageRequest{ReceiverID: to, Content: content})
		req.Equal(http.StatusCreated, resp.Code)
	}
	send(aliceToken, bobID, "hello")
	send(bobToken, aliceID, "hi alice")
	send(carolToken, aliceID, "unrelated")
	send(aliceToken, bobID, "bye")

	resp := env.do(t, http.MethodGet, "/api/messages/"+bobID, aliceToken, nil)
	req.Equal(http.StatusOK, resp.Code)
	var conv []proto.Message
	req.NoError(json.Unmarshal(resp.Body.Bytes(), &conv))
	req.Len(conv, 3)
	req.Equal("hello", conv[0].Content)
	req.Equal("hi alice", conv[1].Content)
	req.Equal("bye", conv[2].Content)

	resp = env.do(t, http.MethodGet, "/api/messages/"+carolID, bobToken, nil)
	req.Equal(http.StatusOK, resp.Code)
	req.JSONEq("[]", resp.Body.String())

	resp = env.do(t, http.MethodGet, "/api/messages/abc", aliceToken, nil)
	req.Equal(http.StatusBadRequest, resp.Code)
}

func TestRESTSendFromDeletedAccount(t *testing.T) {
	env := newTestEnv(t)
	_, bobID := env.register(t, "Bob", "bob@example.com")

	// A valid signature for an account that no longer exists.
	ghost, err := auth.GenerateToken(env.jwt, 4242, "customer")
	require.NoError(t, err)

	resp := env.do(t, http.MethodPost, "/api/messages", ghost, SendMessageRequest{ReceiverID: bobID, Content: "hi"})
	require.Equal(t, http.StatusUnauthorized, resp.Code, resp.Body.String())
	require.Contains(t, resp.Body.String(), "user not found")
}
