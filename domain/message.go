package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageVideo MessageType = "video"
	MessageFile  MessageType = "file"
)

// Tombstone replaces the content of a soft-deleted message for every
// future read. The original text is gone for good.
const Tombstone = "This message was deleted"

// MessageSnapshot is an immutable copy of a message summary taken at link
// time. Reply and forward references never follow the live message.
type MessageSnapshot struct {
	MessageID uuid.UUID `json:"messageId"`
	SenderID  string    `json:"senderId"`
	Preview   string    `json:"preview"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message is created once by the pipeline and never physically deleted.
// CreatedAt is stamped by the server; ClientSentAt keeps the caller's
// declared send time as a hint only.
type Message struct {
	ID            uuid.UUID        `json:"id"`
	ChatID        ChatID           `json:"chatId"`
	SenderID      string           `json:"senderId"`
	Content       string           `json:"text"`
	Type          MessageType      `json:"type"`
	FileURL       string           `json:"fileUrl,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	ClientSentAt  *time.Time       `json:"clientSentAt,omitempty"`
	ReadBy        []string         `json:"readBy"`
	IsDeleted     bool             `json:"isDeleted"`
	ReplyTo       *MessageSnapshot `json:"replyToSnapshot,omitempty"`
	ForwardedFrom *MessageSnapshot `json:"forwardedFrom,omitempty"`
}

func (m *Message) IsReadBy(userID string) bool {
	return slices.Contains(m.ReadBy, userID)
}

// MarkReadBy adds the user to ReadBy. The set only grows; re-marking is a
// no-op. Reports whether the message changed.
func (m *Message) MarkReadBy(userID string) bool {
	if m.IsReadBy(userID) {
		return false
	}
	m.ReadBy = append(m.ReadBy, userID)
	return true
}

// Delete applies the irreversible tombstone.
func (m *Message) Delete() {
	m.IsDeleted = true
	m.Content = Tombstone
	m.FileURL = ""
}

// Snapshot captures the summary used for reply/forward linking.
func (m *Message) Snapshot() MessageSnapshot {
	return MessageSnapshot{
		MessageID: m.ID,
		SenderID:  m.SenderID,
		Preview:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}
