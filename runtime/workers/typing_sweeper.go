package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"chatwire/contract"
	"chatwire/domain"
	"chatwire/domain/event"
)

type TypingKey struct {
	ChatID domain.ChatID
	UserID string
}

// TypingTracker remembers who is typing where, with a deadline. The client
// is expected to send stop_typing itself; the tracker is the server-side
// safety net for the case where that signal is lost in transit, so a "user
// is typing" indicator cannot stay stuck on other screens.
type TypingTracker struct {
	mu       sync.Mutex
	ttl      time.Duration
	deadline map[TypingKey]time.Time
}

func NewTypingTracker(ttl time.Duration) *TypingTracker {
	return &TypingTracker{ttl: ttl, deadline: make(map[TypingKey]time.Time)}
}

// Touch refreshes the typing deadline; each keystroke signal pushes it out.
func (t *TypingTracker) Touch(chatID domain.ChatID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deadline[TypingKey{chatID, userID}] = time.Now().Add(t.ttl)
}

// Clear drops the entry, on explicit stop_typing or on send.
func (t *TypingTracker) Clear(chatID domain.ChatID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.deadline, TypingKey{chatID, userID})
}

// Expire removes and returns every entry whose deadline has passed.
func (t *TypingTracker) Expire(now time.Time) []TypingKey {
	t.mu.Lock()
	defer t.mu.Unlock()

	var expired []TypingKey
	for key, deadline := range t.deadline {
		if now.After(deadline) {
			expired = append(expired, key)
			delete(t.deadline, key)
		}
	}
	return expired
}

// TypingSweeper periodically expires stale typing entries and broadcasts the
// stop event the client failed to deliver.
type TypingSweeper struct {
	log         *slog.Logger
	tracker     *TypingTracker
	broadcaster contract.IBroadcaster
	interval    time.Duration
}

func NewTypingSweeper(log *slog.Logger, tracker *TypingTracker,
	broadcaster contract.IBroadcaster, interval time.Duration) *TypingSweeper {
	return &TypingSweeper{log: log, tracker: tracker, broadcaster: broadcaster, interval: interval}
}

func (w *TypingSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping typing sweeper")
			return nil
		case now := <-ticker.C:
			for _, key := range w.tracker.Expire(now) {
				w.broadcaster.Room(ctx, event.UserStopTyping{
					Chat:   key.ChatID,
					UserID: key.UserID,
				})
			}
		}
	}
}
