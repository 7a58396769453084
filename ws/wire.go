package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"chatwire/domain"
	"chatwire/domain/event"
)

// Envelope is the frame exchanged on the socket in both directions.
// Inbound frames carry a command type and an optional tempId the client
// uses to correlate the ack; outbound frames carry an event name or one
// of the "ack"/"error" types.
type Envelope struct {
	Type    string          `json:"type"`
	TempID  string          `json:"tempId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type typingUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// encodeEvent turns a domain event into its wire frame. The frame type is
// the event name, so clients can switch on it directly.
func encodeEvent(e event.DomainEvent) ([]byte, error) {
	var payload any

	switch ev := e.(type) {
	case event.MessagePosted:
		payload = ev.Message
	case event.MessagesRead:
		payload = struct {
			ChatID domain.ChatID `json:"chatId"`
			UserID string        `json:"userId"`
		}{ev.Chat, ev.UserID}
	case event.PinUpdated:
		payload = struct {
			ChatID    domain.ChatID    `json:"chatId"`
			MessageID uuid.UUID        `json:"messageId"`
			Action    domain.PinAction `json:"action"`
			Timestamp time.Time        `json:"timestamp"`
		}{ev.Chat, ev.MessageID, ev.Action, ev.At}
	case event.MessageDeleted:
		payload = struct {
			MessageID uuid.UUID     `json:"messageId"`
			ChatID    domain.ChatID `json:"chatId"`
		}{ev.MessageID, ev.Chat}
	case event.UserTyping:
		payload = struct {
			ChatID domain.ChatID `json:"chatId"`
			User   typingUser    `json:"user"`
		}{ev.Chat, typingUser{ev.UserID, ev.Username}}
	case event.UserStopTyping:
		payload = struct {
			ChatID domain.ChatID `json:"chatId"`
			UserID string        `json:"userId"`
		}{ev.Chat, ev.UserID}
	case event.PresenceChanged:
		var lastSeen *time.Time
		if ev.Status == "offline" {
			lastSeen = &ev.LastSeen
		}
		payload = struct {
			UserID   string     `json:"userId"`
			Status   string     `json:"status"`
			LastSeen *time.Time `json:"lastSeen,omitempty"`
		}{ev.UserID, ev.Status, lastSeen}
	case event.ChatListChanged:
		payload = struct {
			ChatID domain.ChatID `json:"chatId"`
		}{ev.Chat}
	default:
		return nil, fmt.Errorf("no wire encoding for event %q", e.EventName())
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", e.EventName(), err)
	}
	return json.Marshal(Envelope{Type: e.EventName(), Payload: raw})
}

// ackFrame answers one inbound command. The payload echoes the state the
// command produced so clients can reconcile optimistic UI.
func ackFrame(tempID string, payload any) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errorFrame(tempID, err)
	}
	frame, _ := json.Marshal(Envelope{Type: "ack", TempID: tempID, Payload: raw})
	return frame
}

func errorFrame(tempID string, err error) []byte {
	raw, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{err.Error()})
	frame, _ := json.Marshal(Envelope{Type: "error", TempID: tempID, Payload: raw})
	return frame
}
