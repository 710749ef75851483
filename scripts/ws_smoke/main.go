package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/bookstore-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:5000/ws", "WebSocket address")
	token := flag.String("token", os.Getenv("BOOKSTORE_TOKEN"), "bearer token (see `bookstore-server token`)")
	to := flag.String("to", "", "receiver user id")
	text := flag.String("text", "hello from smoke test", "message content to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	if *token == "" || *to == "" {
		return fmt.Errorf("-token and -to are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr+"?token="+*token, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	payload, err := json.Marshal(proto.SendMessageData{ReceiverID: *to, Content: *text})
	if err != nil {
		return fmt.Errorf("marshal sendMessage: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeSendMessage, Data: payload}); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		if outbound.Error != nil {
			return fmt.Errorf("server error %s: %s", outbound.Error.Code, outbound.Error.Message)
		}

		if outbound.Event == proto.EventNewMessage {
			var msg proto.Message
			if err := json.Unmarshal(outbound.Data, &msg); err != nil {
				return fmt.Errorf("unmarshal message: %w", err)
			}
			fmt.Printf("newMessage: id=%s from=%s to=%s content=%q ts=%s\n",
				msg.ID, msg.SenderID, msg.ReceiverID, msg.Content, msg.Timestamp)
			return nil
		}
	}
}
