package runtime

import (
	"context"
	"log/slog"
	"time"

	"chatwire/contract"
	"chatwire/domain/event"
	"chatwire/observability"
)

// Publisher is the optional cross-node leg of a broadcast. On a single node
// it is nil; with more nodes a pub/sub bridge implements it and re-injects
// remote events through LocalRoom/LocalGlobal.
type Publisher interface {
	Publish(ctx context.Context, e event.DomainEvent) error
}

// Broadcaster fans events out to the connections the registry holds.
// Delivery is best-effort and bounded by sinkTimeout per sink: one slow
// client must not delay the others or the write path.
type Broadcaster struct {
	log         *slog.Logger
	registry    contract.IRegistry
	metrics     *observability.Metrics
	bridge      Publisher
	sinkTimeout time.Duration
}

func NewBroadcaster(log *slog.Logger, registry contract.IRegistry,
	metrics *observability.Metrics, sinkTimeout time.Duration) *Broadcaster {
	return &Broadcaster{
		log:         log,
		registry:    registry,
		metrics:     metrics,
		sinkTimeout: sinkTimeout,
	}
}

// WithBridge attaches the cross-node publisher. Must be called before the
// broadcaster is shared.
func (b *Broadcaster) WithBridge(bridge Publisher) *Broadcaster {
	b.bridge = bridge
	return b
}

func (b *Broadcaster) Room(ctx context.Context, e event.RoomEvent, exclude ...contract.ConnID) {
	b.LocalRoom(ctx, e, exclude...)
	b.publish(ctx, e)
}

func (b *Broadcaster) Global(ctx context.Context, e event.DomainEvent) {
	b.LocalGlobal(ctx, e)
	b.publish(ctx, e)
}

// LocalRoom delivers to this node's room members only. The bridge uses it
// for remote events so they are not re-published in a loop.
func (b *Broadcaster) LocalRoom(ctx context.Context, e event.RoomEvent, exclude ...contract.ConnID) {
	b.deliver(ctx, e, b.registry.SinksForRoom(e.ChatID(), exclude...))
}

func (b *Broadcaster) LocalGlobal(ctx context.Context, e event.DomainEvent) {
	b.deliver(ctx, e, b.registry.AllSinks())
}

func (b *Broadcaster) deliver(ctx context.Context, e event.DomainEvent, sinks []contract.EventSink) {
	for _, sink := range sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, b.sinkTimeout)
		if err := sink.Consume(sinkCtx, e); err != nil {
			b.log.Debug("Sink refused event", "event", e.EventName(), "error", err)
		}
		cancel()
	}
	b.metrics.EventsBroadcast.WithLabelValues(e.EventName()).Add(float64(len(sinks)))
}

func (b *Broadcaster) publish(ctx context.Context, e event.DomainEvent) {
	if b.bridge == nil {
		return
	}
	if err := b.bridge.Publish(ctx, e); err != nil {
		b.log.Warn("Bridge publish failed", "event", e.EventName(), "error", err)
	}
}
