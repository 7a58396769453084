package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chatwire/domain"
	"chatwire/errors"
)

func Test_Page_Empty_Chat_Returns_Empty_Page(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	f := newFixture(t)

	chat := f.privateChat(t, "alice", "bob")

	page, err := f.history.Page(ctx, domain.PageCommand{ChatID: chat.ID, CallerID: "alice"})
	req.NoError(err)
	req.Empty(page.Messages)
	req.False(page.HasMore)
	req.Nil(page.NextCursor)
}

func Test_Page_Unknown_Chat(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	f := newFixture(t)

	_, err := f.history.Page(ctx, domain.PageCommand{ChatID: uuid.New(), CallerID: "alice"})
	req.ErrorIs(err, errors.ErrChatNotFound)
}

func Test_Page_Requires_Chat_Membership(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	f := newFixture(t)

	chat := f.privateChat(t, "alice", "bob")
	_, err := f.messages.Send(ctx, domain.SendMessageCommand{
		ChatID: chat.ID, SenderID: "alice", Content: "members only", Type: domain.MessageText,
	})
	req.NoError(err)

	_, err = f.history.Page(ctx, domain.PageCommand{ChatID: chat.ID, CallerID: "mallory"})
	req.ErrorIs(err, errors.ErrNotMember)
}

func Test_Page_25_Messages_Size_10(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	f := newFixture(t)

	chat := f.privateChat(t, "alice", "bob")

	// Deterministic clock so every message lands on a distinct instant
	base := time.Now()
	tick := 0
	f.messages.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Millisecond)
	}

	var sent []domain.Message
	for i := 0; i < 25; i++ {
		m, err := f.messages.Send(ctx, domain.SendMessageCommand{
			ChatID: chat.ID, SenderID: "alice", Content: "msg", Type: domain.MessageText,
		})
		req.NoError(err)
		sent = append(sent, m)
	}

	// Page 1: the 10 newest, in chronological order
	page1, err := f.history.Page(ctx, domain.PageCommand{ChatID: chat.ID, CallerID: "alice", Size: 10})
	req.NoError(err)
	req.Len(page1.Messages, 10)
	req.True(page1.HasMore)
	req.NotNil(page1.NextCursor)
	req.Equal(sent[15].ID, page1.Messages[0].ID)
	req.Equal(sent[24].ID, page1.Messages[9].ID)

	// Page 2: the next 10
	page2, err := f.history.Page(ctx, domain.PageCommand{ChatID: chat.ID, CallerID: "alice", Size: 10, Cursor: page1.NextCursor})
	req.NoError(err)
	req.Len(page2.Messages, 10)
	req.True(page2.HasMore)
	req.Equal(sent[5].ID, page2.Messages[0].ID)
	req.Equal(sent[14].ID, page2.Messages[9].ID)

	// Page 3: the remaining 5, no further cursor
	page3, err := f.history.Page(ctx, domain.PageCommand{ChatID: chat.ID, CallerID: "alice", Size: 10, Cursor: page2.NextCursor})
	req.NoError(err)
	req.Len(page3.Messages, 5)
	req.False(page3.HasMore)
	req.Nil(page3.NextCursor)
	req.Equal(sent[0].ID, page3.Messages[0].ID)

	// Concatenating all pages oldest to newest reproduces the full set
	var all []uuid.UUID
	for _, p := range [][]domain.Message{page3.Messages, page2.Messages, page1.Messages} {
		for _, m := range p {
			all = append(all, m.ID)
		}
	}
	req.Len(all, 25)
	for i, m := range sent {
		req.Equal(m.ID, all[i])
	}
}

func Test_Page_Defaults_Size(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	f := newFixture(t)

	chat := f.privateChat(t, "alice", "bob")
	for i := 0; i < DefaultPageSize+3; i++ {
		_, err := f.messages.Send(ctx, domain.SendMessageCommand{
			ChatID: chat.ID, SenderID: "alice", Content: "msg", Type: domain.MessageText,
		})
		req.NoError(err)
	}

	page, err := f.history.Page(ctx, domain.PageCommand{ChatID: chat.ID, CallerID: "alice"})
	req.NoError(err)
	req.Len(page.Messages, DefaultPageSize)
	req.True(page.HasMore)
}
