// Package event defines the domain events broadcast to connected clients.
// Room events reach only the members of one chat's room; global events reach
// every live connection.
package event

import (
	"time"

	"github.com/google/uuid"

	"chatwire/domain"
)

type DomainEvent interface {
	EventName() string
}

// RoomEvent is a chat-scoped event, delivered to the room's current members.
type RoomEvent interface {
	DomainEvent
	ChatID() domain.ChatID
}

// MessagePosted carries the fully-resolved persisted message.
type MessagePosted struct {
	Message domain.Message
}

func (e MessagePosted) EventName() string     { return "receive_message" }
func (e MessagePosted) ChatID() domain.ChatID { return e.Message.ChatID }

// MessagesRead signals one bulk read-receipt mutation. The event is emitted
// once per effective markRead call, never per message.
type MessagesRead struct {
	Chat   domain.ChatID
	UserID string
}

func (e MessagesRead) EventName() string     { return "messages_read" }
func (e MessagesRead) ChatID() domain.ChatID { return e.Chat }

// PinUpdated is hint-only: it does not carry the new pin list. Receivers
// re-fetch the chat to observe the state.
type PinUpdated struct {
	Chat      domain.ChatID
	MessageID uuid.UUID
	Action    domain.PinAction
	At        time.Time
}

func (e PinUpdated) EventName() string     { return "pin_updated" }
func (e PinUpdated) ChatID() domain.ChatID { return e.Chat }

type MessageDeleted struct {
	Chat      domain.ChatID
	MessageID uuid.UUID
}

func (e MessageDeleted) EventName() string     { return "message_was_deleted" }
func (e MessageDeleted) ChatID() domain.ChatID { return e.Chat }

// UserTyping is ephemeral and never persisted. The sender's own connection
// is excluded from delivery.
type UserTyping struct {
	Chat     domain.ChatID
	UserID   string
	Username string
}

func (e UserTyping) EventName() string     { return "user_typing" }
func (e UserTyping) ChatID() domain.ChatID { return e.Chat }

type UserStopTyping struct {
	Chat   domain.ChatID
	UserID string
}

func (e UserStopTyping) EventName() string     { return "user_stop_typing" }
func (e UserStopTyping) ChatID() domain.ChatID { return e.Chat }

// PresenceChanged is global: every connection learns about it, room
// membership does not matter.
type PresenceChanged struct {
	UserID   string
	Status   string // "online" or "offline"
	LastSeen time.Time
}

func (e PresenceChanged) EventName() string { return "user_status_changed" }

// ChatListChanged is the global hint telling idle conversation-list views to
// refresh. It carries no state beyond the chat that moved.
type ChatListChanged struct {
	Chat domain.ChatID
}

func (e ChatListChanged) EventName() string { return "chat_list_update" }
