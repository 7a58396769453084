package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatwire/domain"
)

func Test_List_Annotates_Unread_And_Labels(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	f := newFixture(t)

	// Given known usernames for the row labels
	req.NoError(f.userRepo.Upsert(domain.User{ID: "alice", Username: "Alice"}))
	req.NoError(f.userRepo.Upsert(domain.User{ID: "bob", Username: "Bob"}))

	chat := f.privateChat(t, "alice", "bob")
	sent, err := f.messages.Send(ctx, domain.SendMessageCommand{
		ChatID: chat.ID, SenderID: "alice", Content: "unread for bob", Type: domain.MessageText,
	})
	req.NoError(err)

	// Bob sees the counterpart's name and an unread marker
	rows, err := f.list.List(ctx, "bob", "")
	req.NoError(err)
	req.Len(rows, 1)
	req.Equal("Alice", rows[0].Label)
	req.True(rows[0].Unread)
	req.Equal(sent.ID, rows[0].LastMessage.ID)

	// The sender's own list is never unread
	rows, err = f.list.List(ctx, "alice", "")
	req.NoError(err)
	req.Equal("Bob", rows[0].Label)
	req.False(rows[0].Unread)

	// Reading the chat clears the marker
	req.NoError(f.receipts.MarkRead(ctx, domain.MarkReadCommand{ChatID: chat.ID, UserID: "bob"}))
	rows, err = f.list.List(ctx, "bob", "")
	req.NoError(err)
	req.False(rows[0].Unread)
}

func Test_List_Sorts_By_Recency_With_Empty_Chats_Last(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	f := newFixture(t)

	older := f.privateChat(t, "alice", "bob")
	newer := f.privateChat(t, "alice", "clara")
	empty := f.privateChat(t, "alice", "dave")

	base := time.Now()
	tick := 0
	f.messages.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	_, err := f.messages.Send(ctx, domain.SendMessageCommand{
		ChatID: older.ID, SenderID: "alice", Content: "first", Type: domain.MessageText,
	})
	req.NoError(err)
	_, err = f.messages.Send(ctx, domain.SendMessageCommand{
		ChatID: newer.ID, SenderID: "alice", Content: "second", Type: domain.MessageText,
	})
	req.NoError(err)

	rows, err := f.list.List(ctx, "alice", "")
	req.NoError(err)
	req.Len(rows, 3)
	req.Equal(newer.ID, rows[0].Chat.ID)
	req.Equal(older.ID, rows[1].Chat.ID)
	req.Equal(empty.ID, rows[2].Chat.ID)
}

func Test_List_Filters_By_Label(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	f := newFixture(t)

	req.NoError(f.userRepo.Upsert(domain.User{ID: "bob", Username: "Bob Builder"}))
	req.NoError(f.userRepo.Upsert(domain.User{ID: "clara", Username: "Clara"}))
	f.privateChat(t, "alice", "bob")
	f.privateChat(t, "alice", "clara")

	rows, err := f.list.List(ctx, "alice", "builder")
	req.NoError(err)
	req.Len(rows, 1)
	req.Equal("Bob Builder", rows[0].Label)

	rows, err = f.list.List(ctx, "alice", "nothing-matches")
	req.NoError(err)
	req.Empty(rows)
}
