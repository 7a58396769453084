package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chatwire/domain"
	"chatwire/errors"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newMessage(chatID domain.ChatID, sender, content string, at time.Time) domain.Message {
	return domain.Message{
		ID:        uuid.New(),
		ChatID:    chatID,
		SenderID:  sender,
		Content:   content,
		Type:      domain.MessageText,
		CreatedAt: at,
		ReadBy:    []string{sender},
	}
}

func Test_Store_And_Get_Message(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, slog.Default())

	chatID := uuid.New()
	message := newMessage(chatID, "alice", "hello there", time.Now().UTC())

	req.NoError(repository.Store(message))

	fetched, err := repository.Get(message.ID)
	req.NoError(err)
	req.Equal(message.ID, fetched.ID)
	req.Equal("hello there", fetched.Content)
	req.Equal([]string{"alice"}, fetched.ReadBy)
}

func Test_Get_Unknown_Message(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, slog.Default())

	_, err := repository.Get(uuid.New())
	req.ErrorIs(err, errors.ErrMessageNotFound)
}

func Test_Page_Empty_Chat(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, slog.Default())

	messages, err := repository.Page(uuid.New(), nil, 10)
	req.NoError(err)
	req.Empty(messages)
}

func Test_Page_Newest_First_And_Cursor_Exclusive(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, slog.Default())

	chatID := uuid.New()
	at := time.Now().UTC()
	var stored []domain.Message
	for i := 0; i < 5; i++ {
		m := newMessage(chatID, "alice", "hello", at.Add(time.Duration(i)*time.Second))
		req.NoError(repository.Store(m))
		stored = append(stored, m)
	}

	// First page walks backwards from the newest message
	page, err := repository.Page(chatID, nil, 2)
	req.NoError(err)
	req.Len(page, 2)
	req.Equal(stored[4].ID, page[0].ID)
	req.Equal(stored[3].ID, page[1].ID)

	// The cursor points at the last returned message and is excluded
	cursor := domain.CursorOf(page[1])
	page, err = repository.Page(chatID, &cursor, 2)
	req.NoError(err)
	req.Len(page, 2)
	req.Equal(stored[2].ID, page[0].ID)
	req.Equal(stored[1].ID, page[1].ID)
}

func Test_Page_Full_Walk_No_Duplicates_No_Gaps(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, slog.Default())

	chatID := uuid.New()
	at := time.Now().UTC()
	expected := make(map[uuid.UUID]struct{})
	for i := 0; i < 25; i++ {
		m := newMessage(chatID, "alice", "hello", at.Add(time.Duration(i)*time.Millisecond))
		req.NoError(repository.Store(m))
		expected[m.ID] = struct{}{}
	}

	seen := make(map[uuid.UUID]struct{})
	var cursor *domain.Cursor
	pages := 0
	for {
		page, err := repository.Page(chatID, cursor, 10)
		req.NoError(err)
		if len(page) == 0 {
			break
		}
		pages++
		for _, m := range page {
			_, dup := seen[m.ID]
			req.False(dup, "message returned twice")
			seen[m.ID] = struct{}{}
		}
		last := domain.CursorOf(page[len(page)-1])
		cursor = &last
	}
	req.Equal(3, pages)
	req.Equal(expected, seen)
}

func Test_MarkAllRead_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, slog.Default())

	chatID := uuid.New()
	at := time.Now().UTC()
	for i := 0; i < 3; i++ {
		m := newMessage(chatID, "alice", "hello", at.Add(time.Duration(i)*time.Second))
		req.NoError(repository.Store(m))
	}

	modified, err := repository.MarkAllRead(chatID, "bob")
	req.NoError(err)
	req.Equal(3, modified)

	// Second run converges to zero mutations
	modified, err = repository.MarkAllRead(chatID, "bob")
	req.NoError(err)
	req.Equal(0, modified)

	page, err := repository.Page(chatID, nil, 10)
	req.NoError(err)
	for _, m := range page {
		req.True(m.IsReadBy("bob"))
		req.True(m.IsReadBy("alice"))
	}
}

func Test_SoftDelete_Is_Permanent(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, slog.Default())

	chatID := uuid.New()
	message := newMessage(chatID, "alice", "delete me", time.Now().UTC())
	req.NoError(repository.Store(message))

	deleted, err := repository.SoftDelete(message.ID)
	req.NoError(err)
	req.True(deleted.IsDeleted)
	req.Equal(domain.Tombstone, deleted.Content)

	// The original content is gone from every read path
	fetched, err := repository.Get(message.ID)
	req.NoError(err)
	req.True(fetched.IsDeleted)
	req.Equal(domain.Tombstone, fetched.Content)

	page, err := repository.Page(chatID, nil, 10)
	req.NoError(err)
	req.Len(page, 1)
	req.Equal(domain.Tombstone, page[0].Content)

	// Deleting again changes nothing
	again, err := repository.SoftDelete(message.ID)
	req.NoError(err)
	req.Equal(domain.Tombstone, again.Content)
}
