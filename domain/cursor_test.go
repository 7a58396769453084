package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Cursor_Round_Trip(t *testing.T) {
	req := require.New(t)

	original := Cursor{CreatedAt: time.Now().UTC().Truncate(time.Nanosecond), ID: uuid.New()}
	parsed, err := ParseCursor(original.Encode())
	req.NoError(err)
	req.Equal(original.CreatedAt.UnixNano(), parsed.CreatedAt.UnixNano())
	req.Equal(original.ID, parsed.ID)
}

func Test_Cursor_Encoding_Orders_Lexicographically(t *testing.T) {
	req := require.New(t)

	earlier := Cursor{CreatedAt: time.Unix(0, 1_000), ID: uuid.New()}
	later := Cursor{CreatedAt: time.Unix(0, 2_000_000_000_000), ID: uuid.New()}

	// Zero padding keeps byte order equal to chronological order
	req.Less(earlier.Encode()[:19], later.Encode()[:19])
	req.Len(earlier.Encode()[:19], 19)
}

func Test_ParseCursor_Rejects_Garbage(t *testing.T) {
	req := require.New(t)

	_, err := ParseCursor("no-separator")
	req.Error(err)
	_, err = ParseCursor("notanumber:" + uuid.NewString())
	req.Error(err)
	_, err = ParseCursor("0000000000000001000:not-a-uuid")
	req.Error(err)
}
