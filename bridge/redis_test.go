package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chatwire/contract"
	"chatwire/domain"
	"chatwire/domain/event"
)

type deliveryRecorder struct {
	room   []event.RoomEvent
	global []event.DomainEvent
}

func (d *deliveryRecorder) LocalRoom(_ context.Context, e event.RoomEvent, _ ...contract.ConnID) {
	d.room = append(d.room, e)
}

func (d *deliveryRecorder) LocalGlobal(_ context.Context, e event.DomainEvent) {
	d.global = append(d.global, e)
}

func bridgeUnderTest(local localDeliverer) *RedisBridge {
	return &RedisBridge{log: slog.Default(), local: local, nodeID: uuid.NewString()}
}

func Test_Decode_Round_Trips_Every_Event(t *testing.T) {
	req := require.New(t)

	chatID := uuid.New()
	events := []event.DomainEvent{
		event.MessagePosted{Message: domain.Message{ID: uuid.New(), ChatID: chatID, Content: "hi"}},
		event.MessagesRead{Chat: chatID, UserID: "bob"},
		event.PinUpdated{Chat: chatID, MessageID: uuid.New(), Action: domain.PinActionPin},
		event.MessageDeleted{Chat: chatID, MessageID: uuid.New()},
		event.UserTyping{Chat: chatID, UserID: "alice", Username: "alice-dev"},
		event.UserStopTyping{Chat: chatID, UserID: "alice"},
		event.PresenceChanged{UserID: "alice", Status: "online"},
		event.ChatListChanged{Chat: chatID},
	}

	for _, original := range events {
		t.Run(original.EventName(), func(t *testing.T) {
			payload, err := json.Marshal(original)
			req.NoError(err)

			decoded, err := decodeEvent(original.EventName(), payload)
			req.NoError(err)
			req.Equal(original, decoded)
		})
	}
}

func Test_Decode_Unknown_Event_Fails(t *testing.T) {
	req := require.New(t)

	_, err := decodeEvent("no_such_event", []byte(`{}`))
	req.Error(err)
}

func Test_Consume_Skips_Own_Publications(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	recorder := &deliveryRecorder{}
	b := bridgeUnderTest(recorder)

	payload, err := json.Marshal(event.ChatListChanged{Chat: uuid.New()})
	req.NoError(err)
	raw, err := json.Marshal(wireEvent{Origin: b.nodeID, Name: "chat_list_update", Payload: payload})
	req.NoError(err)

	b.consume(ctx, raw)

	req.Empty(recorder.room)
	req.Empty(recorder.global)
}

func Test_Consume_Routes_Room_And_Global_Events(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	recorder := &deliveryRecorder{}
	b := bridgeUnderTest(recorder)

	frame := func(e event.DomainEvent) []byte {
		payload, err := json.Marshal(e)
		req.NoError(err)
		raw, err := json.Marshal(wireEvent{Origin: "another-node", Name: e.EventName(), Payload: payload})
		req.NoError(err)
		return raw
	}

	chatID := uuid.New()
	b.consume(ctx, frame(event.UserTyping{Chat: chatID, UserID: "alice"}))
	b.consume(ctx, frame(event.PresenceChanged{UserID: "alice", Status: "online"}))

	req.Len(recorder.room, 1)
	req.Equal(chatID, recorder.room[0].ChatID())
	req.Len(recorder.global, 1)
	req.Equal("user_status_changed", recorder.global[0].EventName())
}

func Test_Consume_Drops_Undecodable_Frames(t *testing.T) {
	ctx := context.Background()
	recorder := &deliveryRecorder{}
	b := bridgeUnderTest(recorder)

	b.consume(ctx, []byte("not json"))
	b.consume(ctx, []byte(`{"origin":"x","name":"no_such_event","payload":{}}`))

	require.Empty(t, recorder.room)
	require.Empty(t, recorder.global)
}
