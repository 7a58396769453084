package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerGC reclaims value-log space periodically. Badger never runs value
// garbage collection on its own; read-receipt updates rewrite messages in
// place and would otherwise grow the value log without bound.
type BadgerGC struct {
	log      *slog.Logger
	db       *badger.DB
	interval time.Duration
}

func NewBadgerGC(log *slog.Logger, db *badger.DB, interval time.Duration) *BadgerGC {
	return &BadgerGC{log: log, db: db, interval: interval}
}

func (w *BadgerGC) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping badger GC worker")
			return nil
		case <-ticker.C:
			// Rerun while a GC pass keeps finding files worth rewriting.
			for {
				if err := w.db.RunValueLogGC(0.5); err != nil {
					break
				}
				w.log.Debug("Badger value log GC reclaimed a file")
			}
		}
	}
}
