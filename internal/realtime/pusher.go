// Package realtime delivers deposit notifications over Pusher private
// channels. Each authenticated chat holds at most one open subscription.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/logger"
	"log/slog"
)

const (
	protocolVersion = "7"
	clientName      = "copperx-payout-bot"
	clientVersion   = "1.0"

	writeTimeout     = 10 * time.Second
	activityTimeout  = 120 * time.Second
	handshakeTimeout = 15 * time.Second
)

// Authorizer signs a private-channel subscription. The payout API acts as
// the Pusher auth endpoint.
type Authorizer func(ctx context.Context, socketID, channel string) (auth string, err error)

// DepositEvent is the payload of a "deposit" event on the org channel.
type DepositEvent struct {
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Network       string `json:"network"`
	WalletAddress string `json:"walletAddress"`
	TransactionID string `json:"transactionId"`
}

// DepositHandler receives deposit events for a chat.
type DepositHandler func(chatID int64, ev DepositEvent)

type pusherFrame struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type connEstablished struct {
	SocketID string `json:"socket_id"`
}

// Subscription is one live websocket connection bound to a single org
// channel. It is created by the Manager and closed either explicitly or when
// the read loop errors out.
type Subscription struct {
	chatID  int64
	channel string
	conn    *websocket.Conn
	done    chan struct{}
}

// dial performs the full Pusher handshake: connect, wait for
// connection_established, authorize and subscribe to the private channel,
// then wait for subscription_succeeded.
func dial(ctx context.Context, key, cluster string, chatID int64, orgID string, authorize Authorizer) (*Subscription, error) {
	url := fmt.Sprintf("wss://ws-%s.pusher.com/app/%s?protocol=%s&client=%s&version=%s",
		cluster, key, protocolVersion, clientName, clientVersion)

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial pusher: %w", err)
	}

	sub := &Subscription{
		chatID:  chatID,
		channel: "private-org-" + orgID,
		conn:    conn,
		done:    make(chan struct{}),
	}

	socketID, err := sub.awaitEstablished(ctx)
	if err != nil {
		conn.Close()
		return nil, err
	}

	auth, err := authorize(ctx, socketID, sub.channel)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("authorize channel: %w", err)
	}

	subData, _ := json.Marshal(map[string]string{"channel": sub.channel, "auth": auth})
	if err := sub.write(pusherFrame{Event: "pusher:subscribe", Data: subData}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	if err := sub.awaitSubscribed(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return sub, nil
}

func (s *Subscription) awaitEstablished(ctx context.Context) (string, error) {
	frame, err := s.readFrame(ctx)
	if err != nil {
		return "", fmt.Errorf("await connection: %w", err)
	}
	if frame.Event != "pusher:connection_established" {
		return "", fmt.Errorf("unexpected event %q during handshake", frame.Event)
	}
	// Data of connection_established is a JSON string holding JSON.
	var inner string
	if err := json.Unmarshal(frame.Data, &inner); err != nil {
		inner = string(frame.Data)
	}
	var est connEstablished
	if err := json.Unmarshal([]byte(inner), &est); err != nil {
		return "", fmt.Errorf("decode connection_established: %w", err)
	}
	return est.SocketID, nil
}

func (s *Subscription) awaitSubscribed(ctx context.Context) error {
	for {
		frame, err := s.readFrame(ctx)
		if err != nil {
			return fmt.Errorf("await subscription: %w", err)
		}
		switch frame.Event {
		case "pusher_internal:subscription_succeeded":
			return nil
		case "pusher:error":
			return fmt.Errorf("pusher rejected subscription: %s", string(frame.Data))
		}
	}
}

func (s *Subscription) readFrame(ctx context.Context) (*pusherFrame, error) {
	if deadline, ok := ctx.Deadline(); ok {
		s.conn.SetReadDeadline(deadline)
	} else {
		s.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	}
	_, raw, err := s.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var frame pusherFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return &frame, nil
}

func (s *Subscription) write(frame pusherFrame) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(frame)
}

// run pumps events until the connection drops or Close is called. It fires
// onExit exactly once so the Manager can drop its bookkeeping entry.
func (s *Subscription) run(handler DepositHandler, onExit func()) {
	defer onExit()
	defer s.conn.Close()

	for {
		s.conn.SetReadDeadline(time.Now().Add(activityTimeout))
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				// Closed on purpose, stay quiet.
			default:
				logger.RT.Warn("subscription dropped",
					slog.String("event", "rt.drop"),
					slog.Int64("chat_id", s.chatID),
					slog.String("channel", s.channel),
					slog.String("err", err.Error()),
				)
			}
			return
		}

		var frame pusherFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}

		switch frame.Event {
		case "pusher:ping":
			_ = s.write(pusherFrame{Event: "pusher:pong"})
		case "deposit":
			ev, err := decodeDeposit(frame.Data)
			if err != nil {
				logger.RT.Warn("bad deposit payload",
					slog.String("event", "rt.deposit"),
					slog.Int64("chat_id", s.chatID),
					slog.String("err", err.Error()),
				)
				continue
			}
			logger.RT.Info("deposit received",
				slog.String("event", "rt.deposit"),
				slog.Int64("chat_id", s.chatID),
				slog.String("channel", s.channel),
				slog.String("amount", ev.Amount),
				slog.String("currency", ev.Currency),
			)
			handler(s.chatID, ev)
		}
	}
}

// decodeDeposit handles both a raw object and the double-encoded string
// Pusher uses for client payloads.
func decodeDeposit(data json.RawMessage) (DepositEvent, error) {
	var ev DepositEvent
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return ev, err
		}
		data = json.RawMessage(inner)
	}
	err := json.Unmarshal(data, &ev)
	return ev, err
}

// Close tears the connection down. Safe to call more than once.
func (s *Subscription) Close() {
	select {
	case <-s.done:
		return
	default:
		close(s.done)
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = s.conn.WriteMessage(websocket.CloseMessage, msg)
	s.conn.Close()
}

// Tail returns the last n characters of a value for display, so wallet
// addresses and transaction hashes stay short in chat.
func Tail(v string, n int) string {
	v = strings.TrimSpace(v)
	if len(v) <= n {
		return v
	}
	return "…" + v[len(v)-n:]
}
