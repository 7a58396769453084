package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Cursor is the opaque pagination token for message history. It encodes the
// (CreatedAt, ID) composite of the oldest message returned so far; the next
// page contains messages strictly older under (CreatedAt desc, ID desc).
//
// The encoded form "{%019d unixnano}:{uuid}" is byte-for-byte the suffix of
// the message storage key, so a cursor seeks directly in the store with no
// translation. The 19-digit zero padding keeps lexicographic order equal to
// chronological order.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

func (c Cursor) Encode() string {
	return fmt.Sprintf("%019d:%s", c.CreatedAt.UnixNano(), c.ID)
}

func ParseCursor(token string) (Cursor, error) {
	ts, id, ok := strings.Cut(token, ":")
	if !ok {
		return Cursor{}, fmt.Errorf("malformed cursor %q", token)
	}
	nanos, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("malformed cursor timestamp: %w", err)
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return Cursor{}, fmt.Errorf("malformed cursor id: %w", err)
	}
	return Cursor{CreatedAt: time.Unix(0, nanos).UTC(), ID: parsedID}, nil
}

// CursorOf is the cursor positioned at a message.
func CursorOf(m Message) Cursor {
	return Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
}
