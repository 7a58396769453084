package ws

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chatwire/domain"
	"chatwire/domain/event"
)

func decodeFrame(t *testing.T, raw []byte) (Envelope, map[string]any) {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	var payload map[string]any
	if len(env.Payload) > 0 {
		require.NoError(t, json.Unmarshal(env.Payload, &payload))
	}
	return env, payload
}

func Test_Encode_MessagePosted_Carries_The_Full_Message(t *testing.T) {
	req := require.New(t)
	chatID := uuid.New()
	message := domain.Message{
		ID:       uuid.New(),
		ChatID:   chatID,
		SenderID: "alice",
		Content:  "hello",
		Type:     domain.MessageText,
		ReadBy:   []string{"alice"},
	}

	raw, err := encodeEvent(event.MessagePosted{Message: message})
	req.NoError(err)

	env, payload := decodeFrame(t, raw)
	req.Equal("receive_message", env.Type)
	req.Empty(env.TempID)
	req.Equal(message.ID.String(), payload["id"])
	req.Equal(chatID.String(), payload["chatId"])
	req.Equal("hello", payload["text"])
}

func Test_Encode_MessagesRead(t *testing.T) {
	req := require.New(t)

	chatID := uuid.New()
	raw, err := encodeEvent(event.MessagesRead{Chat: chatID, UserID: "bob"})
	req.NoError(err)

	env, payload := decodeFrame(t, raw)
	req.Equal("messages_read", env.Type)
	req.Equal(chatID.String(), payload["chatId"])
	req.Equal("bob", payload["userId"])
}

func Test_Encode_PinUpdated_Is_A_Hint_Without_The_Pin_List(t *testing.T) {
	req := require.New(t)
	messageID := uuid.New()

	raw, err := encodeEvent(event.PinUpdated{
		Chat:      uuid.New(),
		MessageID: messageID,
		Action:    domain.PinActionPin,
		At:        time.Now().UTC(),
	})
	req.NoError(err)

	env, payload := decodeFrame(t, raw)
	req.Equal("pin_updated", env.Type)
	req.Equal(messageID.String(), payload["messageId"])
	req.Equal(string(domain.PinActionPin), payload["action"])
	req.NotContains(payload, "pinnedMessages")
}

func Test_Encode_UserTyping_Nests_The_User(t *testing.T) {
	req := require.New(t)

	raw, err := encodeEvent(event.UserTyping{Chat: uuid.New(), UserID: "alice", Username: "alice-dev"})
	req.NoError(err)

	env, payload := decodeFrame(t, raw)
	req.Equal("user_typing", env.Type)
	user := payload["user"].(map[string]any)
	req.Equal("alice", user["id"])
	req.Equal("alice-dev", user["username"])
}

func Test_Encode_Presence_LastSeen_Only_When_Offline(t *testing.T) {
	req := require.New(t)
	seen := time.Now().UTC()

	raw, err := encodeEvent(event.PresenceChanged{UserID: "alice", Status: "online", LastSeen: seen})
	req.NoError(err)
	_, payload := decodeFrame(t, raw)
	req.NotContains(payload, "lastSeen")

	raw, err = encodeEvent(event.PresenceChanged{UserID: "alice", Status: "offline", LastSeen: seen})
	req.NoError(err)
	env, payload := decodeFrame(t, raw)
	req.Equal("user_status_changed", env.Type)
	req.Contains(payload, "lastSeen")
}

func Test_Encode_MessageDeleted(t *testing.T) {
	req := require.New(t)
	messageID := uuid.New()

	chatID := uuid.New()
	raw, err := encodeEvent(event.MessageDeleted{Chat: chatID, MessageID: messageID})
	req.NoError(err)

	env, payload := decodeFrame(t, raw)
	req.Equal("message_was_deleted", env.Type)
	req.Equal(messageID.String(), payload["messageId"])
	req.Equal(chatID.String(), payload["chatId"])
}

func Test_Ack_Frame_Echoes_The_TempID(t *testing.T) {
	req := require.New(t)

	raw := ackFrame("t-42", struct {
		ChatID string `json:"chatId"`
	}{"chat-1"})

	env, payload := decodeFrame(t, raw)
	req.Equal("ack", env.Type)
	req.Equal("t-42", env.TempID)
	req.Equal("chat-1", payload["chatId"])
}

func Test_Error_Frame_Carries_The_Message(t *testing.T) {
	req := require.New(t)

	raw := errorFrame("t-42", fmt.Errorf("not a member of this chat"))

	env, payload := decodeFrame(t, raw)
	req.Equal("error", env.Type)
	req.Equal("t-42", env.TempID)
	req.Equal("not a member of this chat", payload["error"])
}

func Test_Encode_Unknown_Event_Fails(t *testing.T) {
	req := require.New(t)

	_, err := encodeEvent(unnamedEvent{})
	req.Error(err)
}

type unnamedEvent struct{}

func (unnamedEvent) EventName() string { return "unnamed" }
