package services

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"chatwire/contract"
	"chatwire/domain"
	"chatwire/domain/event"
	"chatwire/moderation"
	"chatwire/observability"
	"chatwire/repositories"
	"chatwire/runtime"
	"chatwire/runtime/workers"
	"chatwire/search"
	"chatwire/sink"
)

// hintRecorder collects chat-list hints synchronously instead of going
// through the fanout worker.
type hintRecorder struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (h *hintRecorder) Offer(e event.DomainEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *hintRecorder) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

// fixture wires the full service stack on throwaway storage. No fakes on
// the write path: real badger, real index, real registry and broadcaster.
type fixture struct {
	log         *slog.Logger
	registry    *runtime.Registry
	broadcaster *runtime.Broadcaster
	metrics     *observability.Metrics
	hints       *hintRecorder
	tracker     *workers.TypingTracker

	messageRepo repositories.MessageRepository
	chatRepo    repositories.ChatRepository
	userRepo    repositories.UserRepository
	index       *search.MessageIndex

	messages *MessageService
	receipts *ReceiptService
	pins     *PinService
	history  *HistoryService
	chats    *ChatService
	list     *ChatListService
	presence *PresenceService
	typing   *TypingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	req := require.New(t)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	req.NoError(err)
	t.Cleanup(func() { _ = writer.Close() })

	log := slog.Default()
	f := &fixture{
		log:         log,
		registry:    runtime.NewRegistry(),
		metrics:     observability.NewMetrics(prometheus.NewRegistry()),
		hints:       &hintRecorder{},
		tracker:     workers.NewTypingTracker(5 * time.Second),
		messageRepo: repositories.NewMessageRepository(db, log),
		chatRepo:    repositories.NewChatRepository(db, log),
		userRepo:    repositories.NewUserRepository(db),
		index:       search.NewMessageIndex(writer, log),
	}
	f.broadcaster = runtime.NewBroadcaster(log, f.registry, f.metrics, time.Second)

	moderator, err := moderation.NewModerator([]string{"flooble"}, '*', log)
	req.NoError(err)

	f.messages = NewMessageService(log, f.messageRepo, f.chatRepo, &moderator,
		f.index, f.broadcaster, f.hints, f.tracker, f.metrics)
	f.receipts = NewReceiptService(log, f.messageRepo, f.chatRepo, f.broadcaster, f.hints, f.metrics)
	f.pins = NewPinService(log, f.messageRepo, f.chatRepo, f.index, f.broadcaster, time.Hour)
	f.history = NewHistoryService(log, f.messageRepo, f.chatRepo)
	f.chats = NewChatService(log, f.chatRepo, f.messageRepo, f.index)
	f.list = NewChatListService(log, f.chatRepo, f.userRepo, f.messageRepo)
	f.presence = NewPresenceService(log, f.userRepo, f.broadcaster)
	f.typing = NewTypingService(f.broadcaster, f.tracker)
	return f
}

// connect registers a live connection for the user and returns its sink.
func (f *fixture) connect(userID string) (*sink.Timeline, contract.ConnID) {
	timeline := sink.NewTimeline(userID)
	connID := contract.ConnID("conn-" + userID + "-" + uuid.NewString()[:8])
	f.registry.Connect(connID, userID, timeline)
	return timeline, connID
}

// privateChat creates and persists a private chat for two members.
func (f *fixture) privateChat(t *testing.T, userA, userB string) domain.Chat {
	t.Helper()
	chat, err := f.chats.GetOrCreatePrivate(context.Background(), userA, userB)
	require.NoError(t, err)
	return chat
}
