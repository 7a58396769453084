package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chatwire/contract"
	"chatwire/domain"
	"chatwire/domain/event"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxFrameLength = 16 * 1024
)

// Client is one live websocket connection. It is the registry's sink for
// its user: events arrive through Consume and leave through the write pump.
type Client struct {
	gateway *Gateway
	conn    *websocket.Conn
	log     *slog.Logger

	connID   contract.ConnID
	userID   string
	username string

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// Consume queues an event frame for delivery. A full buffer drops the
// event rather than blocking the broadcaster; persistence stays correct
// and the client catches up on its next fetch.
func (c *Client) Consume(_ context.Context, e event.DomainEvent) error {
	frame, err := encodeEvent(e)
	if err != nil {
		return err
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return fmt.Errorf("connection %s is closed", c.connID)
	default:
		return fmt.Errorf("send buffer full for user %s", c.userID)
	}
}

// Close stops the write pump, which closes the underlying connection and
// in turn unblocks the read pump.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) serve(ctx context.Context) {
	go c.writePump()
	c.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.gateway.unregister(ctx, c)
		c.Close()
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxFrameLength)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("websocket read failed", "user", c.userID, "error", err)
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.reply(errorFrame("", fmt.Errorf("invalid frame: %w", err)))
			continue
		}
		c.dispatch(ctx, env)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) reply(frame []byte) {
	select {
	case c.send <- frame:
	case <-c.done:
	default:
	}
}

func (c *Client) dispatch(ctx context.Context, env Envelope) {
	var err error
	switch env.Type {
	case "join_chat":
		err = c.onJoin(ctx, env)
	case "leave_chat":
		err = c.onLeave(env)
	case "typing":
		err = c.onTyping(ctx, env)
	case "stop_typing":
		err = c.onStopTyping(ctx, env)
	case "send_message":
		err = c.onSendMessage(ctx, env)
	case "mark_as_read":
		err = c.onMarkRead(ctx, env)
	case "update_pin":
		err = c.onUpdatePin(ctx, env)
	case "message_delete":
		err = c.onDeleteMessage(ctx, env)
	default:
		err = fmt.Errorf("unknown command %q", env.Type)
	}
	if err != nil {
		c.log.Info("command rejected", "command", env.Type, "user", c.userID, "error", err)
		c.reply(errorFrame(env.TempID, err))
	}
}

type roomPayload struct {
	ChatID domain.ChatID `json:"chatId"`
}

func (c *Client) onJoin(ctx context.Context, env Envelope) error {
	var p roomPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return fmt.Errorf("invalid join payload: %w", err)
	}
	// Knowing a chat id is not enough to listen in on its room.
	if _, _, err := c.gateway.chats.Get(ctx, p.ChatID, c.userID); err != nil {
		return err
	}
	c.gateway.registry.Join(c.connID, p.ChatID)
	c.reply(ackFrame(env.TempID, p))
	return nil
}

func (c *Client) onLeave(env Envelope) error {
	var p roomPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return fmt.Errorf("invalid leave payload: %w", err)
	}
	c.gateway.registry.Leave(c.connID, p.ChatID)
	c.reply(ackFrame(env.TempID, p))
	return nil
}

func (c *Client) onTyping(ctx context.Context, env Envelope) error {
	var p roomPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return fmt.Errorf("invalid typing payload: %w", err)
	}
	c.gateway.typing.Typing(ctx, p.ChatID, c.userID, c.username, c.connID)
	return nil
}

func (c *Client) onStopTyping(ctx context.Context, env Envelope) error {
	var p roomPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return fmt.Errorf("invalid stop_typing payload: %w", err)
	}
	c.gateway.typing.StopTyping(ctx, p.ChatID, c.userID, c.connID)
	return nil
}

func (c *Client) onSendMessage(ctx context.Context, env Envelope) error {
	var p struct {
		ChatID        domain.ChatID      `json:"chatId"`
		Text          string             `json:"text"`
		Type          domain.MessageType `json:"type"`
		FileURL       string             `json:"fileUrl"`
		Timestamp     *time.Time         `json:"timestamp"`
		ReplyToID     *uuid.UUID         `json:"replyToId"`
		ForwardFromID *uuid.UUID         `json:"forwardFromId"`
	}
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return fmt.Errorf("invalid send_message payload: %w", err)
	}
	if p.Type == "" {
		p.Type = domain.MessageText
	}
	msg, err := c.gateway.messages.Send(ctx, domain.SendMessageCommand{
		ChatID:        p.ChatID,
		SenderID:      c.userID,
		Content:       p.Text,
		Type:          p.Type,
		FileURL:       p.FileURL,
		ClientSentAt:  p.Timestamp,
		ReplyToID:     p.ReplyToID,
		ForwardFromID: p.ForwardFromID,
	})
	if err != nil {
		return err
	}
	c.reply(ackFrame(env.TempID, msg))
	return nil
}

func (c *Client) onMarkRead(ctx context.Context, env Envelope) error {
	var p roomPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return fmt.Errorf("invalid mark_as_read payload: %w", err)
	}
	if err := c.gateway.receipts.MarkRead(ctx, domain.MarkReadCommand{
		ChatID: p.ChatID,
		UserID: c.userID,
	}); err != nil {
		return err
	}
	c.reply(ackFrame(env.TempID, p))
	return nil
}

func (c *Client) onUpdatePin(ctx context.Context, env Envelope) error {
	var p struct {
		ChatID     domain.ChatID    `json:"chatId"`
		MessageID  uuid.UUID        `json:"messageId"`
		Action     domain.PinAction `json:"action"`
		PinVersion uint64           `json:"pinVersion"`
	}
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return fmt.Errorf("invalid update_pin payload: %w", err)
	}
	chat, err := c.gateway.pins.SetPin(ctx, domain.SetPinCommand{
		ChatID:     p.ChatID,
		MessageID:  p.MessageID,
		Action:     p.Action,
		PinVersion: p.PinVersion,
		CallerID:   c.userID,
	})
	if err != nil {
		return err
	}
	c.reply(ackFrame(env.TempID, struct {
		ChatID         domain.ChatID `json:"chatId"`
		PinnedMessages []uuid.UUID   `json:"pinnedMessages"`
		PinVersion     uint64        `json:"pinVersion"`
	}{chat.ID, chat.PinnedMessages, chat.PinVersion}))
	return nil
}

func (c *Client) onDeleteMessage(ctx context.Context, env Envelope) error {
	var p struct {
		ChatID    domain.ChatID `json:"chatId"`
		MessageID uuid.UUID     `json:"messageId"`
	}
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return fmt.Errorf("invalid message_delete payload: %w", err)
	}
	if _, err := c.gateway.pins.Delete(ctx, domain.DeleteMessageCommand{
		ChatID:    p.ChatID,
		MessageID: p.MessageID,
		CallerID:  c.userID,
	}); err != nil {
		return err
	}
	c.reply(ackFrame(env.TempID, p))
	return nil
}
