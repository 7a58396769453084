// Package bridge carries broadcasts across nodes. Each node publishes its
// events to one Redis channel and re-injects what other nodes publish into
// its local broadcaster.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"chatwire/contract"
	"chatwire/domain/event"
)

const channel = "chatwire:events"

// localDeliverer is the re-injection side of the broadcaster. Remote events
// go through the Local variants so they are not published again.
type localDeliverer interface {
	LocalRoom(ctx context.Context, e event.RoomEvent, exclude ...contract.ConnID)
	LocalGlobal(ctx context.Context, e event.DomainEvent)
}

type wireEvent struct {
	Origin  string          `json:"origin"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// RedisBridge implements the broadcaster's Publisher on its producing side
// and runs as a worker on its consuming side.
type RedisBridge struct {
	log    *slog.Logger
	client *redis.Client
	local  localDeliverer
	nodeID string
}

func NewRedisBridge(log *slog.Logger, client *redis.Client, local localDeliverer) *RedisBridge {
	return &RedisBridge{
		log:    log,
		client: client,
		local:  local,
		nodeID: uuid.NewString(),
	}
}

func (b *RedisBridge) Publish(ctx context.Context, e event.DomainEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", e.EventName(), err)
	}
	raw, err := json.Marshal(wireEvent{Origin: b.nodeID, Name: e.EventName(), Payload: payload})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channel, raw).Err()
}

// Run subscribes and re-injects remote events until the context ends. It is
// supervised like any other worker.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, channel)
	defer func() { _ = sub.Close() }()

	// Fail fast if the subscription never establishes.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-sub.Channel():
			if !ok {
				return fmt.Errorf("subscription channel %s closed", channel)
			}
			b.consume(ctx, []byte(msg.Payload))
		}
	}
}

func (b *RedisBridge) consume(ctx context.Context, raw []byte) {
	var w wireEvent
	if err := json.Unmarshal(raw, &w); err != nil {
		b.log.Warn("Dropping undecodable bridge frame", "error", err)
		return
	}
	// Own publications already went out locally before the publish.
	if w.Origin == b.nodeID {
		return
	}
	e, err := decodeEvent(w.Name, w.Payload)
	if err != nil {
		b.log.Warn("Dropping unknown bridge event", "event", w.Name, "error", err)
		return
	}
	if room, ok := e.(event.RoomEvent); ok {
		b.local.LocalRoom(ctx, room)
		return
	}
	b.local.LocalGlobal(ctx, e)
}

// decodeEvent returns the value-typed event the broadcaster and the wire
// encoder expect.
func decodeEvent(name string, payload []byte) (event.DomainEvent, error) {
	switch name {
	case event.MessagePosted{}.EventName():
		return decodeAs[event.MessagePosted](payload)
	case event.MessagesRead{}.EventName():
		return decodeAs[event.MessagesRead](payload)
	case event.PinUpdated{}.EventName():
		return decodeAs[event.PinUpdated](payload)
	case event.MessageDeleted{}.EventName():
		return decodeAs[event.MessageDeleted](payload)
	case event.UserTyping{}.EventName():
		return decodeAs[event.UserTyping](payload)
	case event.UserStopTyping{}.EventName():
		return decodeAs[event.UserStopTyping](payload)
	case event.PresenceChanged{}.EventName():
		return decodeAs[event.PresenceChanged](payload)
	case event.ChatListChanged{}.EventName():
		return decodeAs[event.ChatListChanged](payload)
	default:
		return nil, fmt.Errorf("no decoder for event %q", name)
	}
}

func decodeAs[T event.DomainEvent](payload []byte) (event.DomainEvent, error) {
	var ev T
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}
