package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"chatwire/domain"
	"chatwire/errors"
)

func Test_GetOrCreatePrivate_Is_Idempotent(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	f := newFixture(t)

	first, err := f.chats.GetOrCreatePrivate(ctx, "alice", "bob")
	req.NoError(err)
	req.Equal(domain.ChatPrivate, first.Type)
	req.ElementsMatch([]string{"alice", "bob"}, first.Members)

	// Same pair in either direction finds the existing chat
	second, err := f.chats.GetOrCreatePrivate(ctx, "bob", "alice")
	req.NoError(err)
	req.Equal(first.ID, second.ID)
}

func Test_GetOrCreatePrivate_Rejects_Self(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	f := newFixture(t)

	_, err := f.chats.GetOrCreatePrivate(ctx, "alice", "alice")
	req.ErrorIs(err, errors.ErrSelfPrivateChat)

	_, err = f.chats.GetOrCreatePrivate(ctx, "alice", "")
	req.ErrorIs(err, errors.ErrSelfPrivateChat)
}

func Test_CreateGroup_Creator_Is_Admin_And_Member(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	f := newFixture(t)

	chat, err := f.chats.CreateGroup(ctx, CreateGroupRequest{
		Name:      "backend",
		CreatorID: "alice",
		MemberIDs: []string{"bob", "clara", "alice"},
	})
	req.NoError(err)
	req.Equal(domain.ChatGroup, chat.Type)
	req.Equal([]string{"alice"}, chat.Admins)
	req.ElementsMatch([]string{"alice", "bob", "clara"}, chat.Members)
}

func Test_CreateGroup_Validates_Request(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	f := newFixture(t)

	_, err := f.chats.CreateGroup(ctx, CreateGroupRequest{
		CreatorID: "alice",
		MemberIDs: []string{"bob"},
	})
	req.ErrorIs(err, errors.ErrInvalidPayload)
}

func Test_AddMember_Group_Only_And_Members_Only(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	f := newFixture(t)

	private := f.privateChat(t, "alice", "bob")
	group, err := f.chats.CreateGroup(ctx, CreateGroupRequest{
		Name: "backend", CreatorID: "alice", MemberIDs: []string{"bob"},
	})
	req.NoError(err)

	_, err = f.chats.AddMember(ctx, private.ID, "alice", "clara")
	req.ErrorIs(err, errors.ErrInvalidPayload)

	_, err = f.chats.AddMember(ctx, group.ID, "clara", "dave")
	req.ErrorIs(err, errors.ErrNotMember)

	updated, err := f.chats.AddMember(ctx, group.ID, "alice", "clara")
	req.NoError(err)
	req.True(updated.HasMember("clara"))
}

func Test_SearchMessages_Finds_Content_Within_Chat(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	f := newFixture(t)

	chat := f.privateChat(t, "alice", "bob")
	other := f.privateChat(t, "alice", "clara")

	needle, err := f.messages.Send(ctx, domain.SendMessageCommand{
		ChatID: chat.ID, SenderID: "alice", Content: "the quarterly report is ready", Type: domain.MessageText,
	})
	req.NoError(err)
	_, err = f.messages.Send(ctx, domain.SendMessageCommand{
		ChatID: chat.ID, SenderID: "bob", Content: "lunch today?", Type: domain.MessageText,
	})
	req.NoError(err)
	// Same words in another chat must not leak into results
	_, err = f.messages.Send(ctx, domain.SendMessageCommand{
		ChatID: other.ID, SenderID: "alice", Content: "quarterly report again", Type: domain.MessageText,
	})
	req.NoError(err)

	results, err := f.chats.SearchMessages(ctx, chat.ID, "alice", "quarterly", 10)
	req.NoError(err)
	req.Len(results, 1)
	req.Equal(needle.ID, results[0].ID)

	// Non-members cannot search
	_, err = f.chats.SearchMessages(ctx, chat.ID, "clara", "quarterly", 10)
	req.ErrorIs(err, errors.ErrNotMember)
}

func Test_SearchMessages_Tombstoned_Content_Stops_Matching(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	f := newFixture(t)

	chat := f.privateChat(t, "alice", "bob")
	sent, err := f.messages.Send(ctx, domain.SendMessageCommand{
		ChatID: chat.ID, SenderID: "alice", Content: "ephemeral secret", Type: domain.MessageText,
	})
	req.NoError(err)

	results, err := f.chats.SearchMessages(ctx, chat.ID, "alice", "ephemeral", 10)
	req.NoError(err)
	req.Len(results, 1)

	_, err = f.pins.Delete(ctx, domain.DeleteMessageCommand{
		ChatID: chat.ID, MessageID: sent.ID, CallerID: "alice",
	})
	req.NoError(err)

	results, err = f.chats.SearchMessages(ctx, chat.ID, "alice", "ephemeral", 10)
	req.NoError(err)
	req.Empty(results)
}
