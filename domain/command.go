package domain

import (
	"time"

	"github.com/google/uuid"
)

type PinAction string

const (
	PinActionPin   PinAction = "pin"
	PinActionUnpin PinAction = "unpin"
)

// SendMessageCommand is the sending intent as received from a client.
// ClientSentAt is the caller-declared timestamp; it is kept as a hint and
// never used as the authoritative creation time.
type SendMessageCommand struct {
	ChatID        ChatID      `validate:"required"`
	SenderID      string      `validate:"required"`
	Content       string      `validate:"required_without=FileURL"`
	Type          MessageType `validate:"required,oneof=text image video file"`
	FileURL       string      `validate:"required_unless=Type text,omitempty,url"`
	ClientSentAt  *time.Time
	ReplyToID     *uuid.UUID
	ForwardFromID *uuid.UUID
}

type MarkReadCommand struct {
	ChatID ChatID `validate:"required"`
	UserID string `validate:"required"`
}

type SetPinCommand struct {
	ChatID    ChatID    `validate:"required"`
	MessageID uuid.UUID `validate:"required"`
	Action    PinAction `validate:"required,oneof=pin unpin"`
	// CallerID is re-verified against the chat's membership server side.
	CallerID string `validate:"required"`
	// PinVersion is the version of the pin list the caller last observed.
	// A mismatch rejects the operation instead of silently losing an update.
	PinVersion uint64
}

type DeleteMessageCommand struct {
	ChatID    ChatID    `validate:"required"`
	MessageID uuid.UUID `validate:"required"`
	// CallerID is re-verified against the message author server side.
	CallerID string `validate:"required"`
}

type PageCommand struct {
	ChatID   ChatID `validate:"required"`
	CallerID string `validate:"required"`
	Cursor   *Cursor
	Size     int `validate:"omitempty,gt=0,max=100"`
}
