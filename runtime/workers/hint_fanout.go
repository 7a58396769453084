package workers

import (
	"context"
	"log/slog"

	"chatwire/contract"
	"chatwire/domain/event"
)

// HintFanout decouples the write paths from global hint delivery. Chat-list
// hints are freshness signals, not data: when the buffer is full they are
// dropped with a warning rather than blocking a send or a read receipt.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// ordering, durability, or retries. HintFanout is not a message broker.
type HintFanout struct {
	log         *slog.Logger
	hints       chan event.DomainEvent
	broadcaster contract.IBroadcaster
}

func NewHintFanout(log *slog.Logger, broadcaster contract.IBroadcaster, bufferSize int) *HintFanout {
	return &HintFanout{
		log:         log,
		hints:       make(chan event.DomainEvent, bufferSize),
		broadcaster: broadcaster,
	}
}

// Offer enqueues a hint, dropping it if the buffer is full.
func (w *HintFanout) Offer(e event.DomainEvent) {
	select {
	case w.hints <- e:
	default:
		w.log.Warn("Hint buffer full, dropping event", "event", e.EventName())
	}
}

func (w *HintFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping hint fanout")
			return nil
		case e := <-w.hints:
			w.broadcaster.Global(ctx, e)
		}
	}
}
