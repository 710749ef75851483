package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"net/url"
	"slices"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/bookstore-server/internal/config"
	"github.com/vovakirdan/bookstore-server/internal/core"
	"github.com/vovakirdan/bookstore-server/internal/proto"
)

// WSHandler upgrades HTTP connections, admits them through the gate and
// bridges them to a core.Client bound on the router.
type WSHandler struct {
	router *core.Router
	gate   *core.Gate
	log    *zerolog.Logger

	acceptOpts      *websocket.AcceptOptions
	maxMessageBytes int64
	clientBuffer    int
	sendRate        int
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(router *core.Router, gate *core.Gate, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		router:          router,
		gate:            gate,
		log:             logger,
		acceptOpts:      acceptOptions(cfg.AllowedOrigins),
		maxMessageBytes: cfg.MaxMessageBytes,
		clientBuffer:    cfg.ClientBuffer,
		sendRate:        cfg.SendRatePerMinute,
	}
}

// acceptOptions turns configured origins into host patterns. "*" disables the origin check.
func acceptOptions(origins []string) *websocket.AcceptOptions {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, o)
	}
	return &websocket.AcceptOptions{OriginPatterns: patterns}
}

// tokenFromRequest reads the bearer token, falling back to the "token" query parameter.
func tokenFromRequest(r *stdhttp.Request) string {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok && token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, h.acceptOpts)
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}

	user, err := h.gate.Admit(ctx, tokenFromRequest(r))
	if err != nil {
		h.log.Info().Err(err).Str("remote_addr", r.RemoteAddr).Msg("ws connection rejected")
		_ = wsjson.Write(ctx, conn, errorOutbound(core.ErrCodeUnauthorized, err.Error()))
		conn.Close(websocket.StatusPolicyViolation, err.Error())
		return
	}

	client := core.NewClient(user, h.clientBuffer)
	if err := h.router.Bind(client); err != nil {
		h.log.Error().Err(err).Str("client_id", client.ID).Msg("bind client")
		return
	}
	defer h.router.Release(client)

	h.log.Info().Str("client_id", client.ID).Int64("user_id", user.ID).Msg("ws client connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusProtocolError
			}
			reason = "protocol error"
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	h.log.Info().Str("client_id", client.ID).Int64("user_id", user.ID).Msg("ws client disconnected")
	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.sendRate)
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		switch inbound.Type {
		case proto.InboundTypeSendMessage:
			if !limiter.allow() {
				h.router.Reject(client, core.ErrCodeRateLimited, "rate limit exceeded")
				continue
			}
			var data proto.SendMessageData
			if err := json.Unmarshal(inbound.Data, &data); err != nil {
				h.log.Debug().Err(err).Str("client_id", client.ID).Msg("dropping undecodable sendMessage")
				continue
			}
			h.router.Submit(ctx, client, core.SendRequest{
				ReceiverID: data.ReceiverID,
				Content:    data.Content,
			})
		default:
			h.router.Reject(client, core.ErrCodeInvalidMessage, "unknown message type")
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
