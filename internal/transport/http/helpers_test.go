package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/bookstore-server/internal/auth"
	"github.com/vovakirdan/bookstore-server/internal/config"
	"github.com/vovakirdan/bookstore-server/internal/core"
	"github.com/vovakirdan/bookstore-server/internal/proto"
	"github.com/vovakirdan/bookstore-server/internal/store"
	"github.com/vovakirdan/bookstore-server/internal/store/sqlite"
)

type testEnv struct {
	ts     *httptest.Server
	store  *sqlite.SQLiteStore
	auth   *auth.Service
	router *core.Router
	jwt    *auth.JWTConfig
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.JWTSecret = "transport-test-secret"
	for _, m := range mutate {
		m(&cfg)
	}

	st, err := sqlite.NewWithSetup(":memory:", sqlite.ApplySchema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	logger := zerolog.Nop()
	jwtCfg := &auth.JWTConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.JWTTTL,
	}
	authService := auth.NewService(st, jwtCfg)
	router := core.NewRouter(core.NewRegistry(&logger), st, &logger)
	gate := core.NewGate(authService, st, &logger)

	srv := NewServer(router, gate, authService, st, &cfg, &logger)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, store: st, auth: authService, router: router, jwt: jwtCfg}
}

// register creates an account through the API and returns its token and id.
func (e *testEnv) register(t *testing.T, first, email string) (string, string) {
	t.Helper()

	resp := e.do(t, stdhttp.MethodPost, "/api/users/register", "", RegisterRequest{
		FirstName: first,
		LastName:  "Reader",
		Email:     email,
		Password:  "secret123",
	})
	require.Equal(t, stdhttp.StatusCreated, resp.Code, resp.Body.String())

	var out AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	return out.Token, out.User.ID
}

type recordedResponse struct {
	Code int
	Body *bytes.Buffer
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) recordedResponse {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			payload.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&payload).Encode(body))
		}
	}

	req, err := stdhttp.NewRequest(method, e.ts.URL+path, &payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return recordedResponse{Code: resp.StatusCode, Body: &out}
}

func (e *testEnv) wsURL() string {
	return "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/ws"
}

// dial opens a realtime connection and waits until it is bound to its channel.
func (e *testEnv) dial(t *testing.T, ctx context.Context, token, identity string) *websocket.Conn {
	t.Helper()

	before := e.router.Registry().Count(identity)
	conn, _, err := websocket.Dial(ctx, e.wsURL()+"?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })

	require.Eventually(t, func() bool {
		return e.router.Registry().Count(identity) > before
	}, 2*time.Second, 5*time.Millisecond, "connection was not bound")
	return conn
}

// frame mirrors proto.Outbound with raw data for decoding on the client side.
type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) frame {
	t.Helper()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var f frame
	require.NoError(t, wsjson.Read(ctx, conn, &f))
	return f
}

func readNewMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) proto.Message {
	t.Helper()

	f := readFrame(t, ctx, conn)
	require.Equal(t, proto.OutboundTypeEvent, f.Type)
	require.Equal(t, proto.EventNewMessage, f.Event)

	var msg proto.Message
	require.NoError(t, json.Unmarshal(f.Data, &msg))
	return msg
}

// expectSilence asserts that nothing arrives on conn for a short while.
// The connection is unusable afterwards because the timed-out read closes it.
func expectSilence(t *testing.T, ctx context.Context, conn *websocket.Conn) {
	t.Helper()

	ctx, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()

	var f frame
	err := wsjson.Read(ctx, conn, &f)
	require.Error(t, err, "unexpected frame: %+v", f)
}

func sendMessage(t *testing.T, ctx context.Context, conn *websocket.Conn, receiverID, content string) {
	t.Helper()

	data, err := json.Marshal(proto.SendMessageData{ReceiverID: receiverID, Content: content})
	require.NoError(t, err)
	require.NoError(t, wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeSendMessage, Data: data}))
}

func promote(t *testing.T, st store.UserStore, email string) {
	t.Helper()

	u, err := st.GetUserByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NoError(t, st.SetRole(context.Background(), u.ID, store.RoleAdmin))
}
