package domain

import (
	"slices"

	"github.com/google/uuid"
)

type ChatID = uuid.UUID

type ChatType string

const (
	ChatPrivate ChatType = "private"
	ChatGroup   ChatType = "group"
)

// Chat is a conversation between two users (private) or many (group).
// LastMessageID is a denormalized pointer to the most recent message,
// maintained by the message pipeline so list views never scan history.
// PinVersion increments on every pin-list mutation and lets concurrent
// pin operations detect a stale view of the list.
type Chat struct {
	ID             ChatID      `json:"id"`
	Type           ChatType    `json:"type"`
	Name           string      `json:"name,omitempty"` // group name, empty for private chats
	Members        []string    `json:"members"`
	Admins         []string    `json:"admins,omitempty"` // group only, subset of Members
	LastMessageID  *uuid.UUID  `json:"lastMessageId,omitempty"`
	PinnedMessages []uuid.UUID `json:"pinnedMessages"`
	PinVersion     uint64      `json:"pinVersion"`
}

func (c *Chat) HasMember(userID string) bool {
	return slices.Contains(c.Members, userID)
}

// Counterpart returns the other participant of a private chat.
func (c *Chat) Counterpart(userID string) string {
	for _, m := range c.Members {
		if m != userID {
			return m
		}
	}
	return ""
}

func (c *Chat) IsPinned(messageID uuid.UUID) bool {
	return slices.Contains(c.PinnedMessages, messageID)
}

// Pin adds the message to the pinned set. Reports whether the set changed.
func (c *Chat) Pin(messageID uuid.UUID) bool {
	if c.IsPinned(messageID) {
		return false
	}
	c.PinnedMessages = append(c.PinnedMessages, messageID)
	return true
}

// Unpin removes the message from the pinned set. Reports whether the set changed.
func (c *Chat) Unpin(messageID uuid.UUID) bool {
	before := len(c.PinnedMessages)
	c.PinnedMessages = slices.DeleteFunc(c.PinnedMessages, func(id uuid.UUID) bool {
		return id == messageID
	})
	return len(c.PinnedMessages) != before
}
