//go:generate go run go.uber.org/mock/mockgen -source=receipt_service.go -destination=../mocks/mock_receipt_service.go -package=mocks
package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"chatwire/contract"
	"chatwire/domain"
	"chatwire/domain/event"
	"chatwire/errors"
	"chatwire/observability"
	"chatwire/repositories"
)

type IReceiptService interface {
	MarkRead(ctx context.Context, cmd domain.MarkReadCommand) error
}

// ReceiptService performs the bulk read-receipt mutation. The operation is
// idempotent and convergent, so callers may fire it on every room join and
// on every received message without duplicate side effects.
type ReceiptService struct {
	log         *slog.Logger
	messages    repositories.IMessageRepository
	chats       repositories.IChatRepository
	broadcaster contract.IBroadcaster
	hints       HintSink
	metrics     *observability.Metrics
}

func NewReceiptService(log *slog.Logger, messages repositories.IMessageRepository,
	chats repositories.IChatRepository, broadcaster contract.IBroadcaster,
	hints HintSink, metrics *observability.Metrics) *ReceiptService {
	return &ReceiptService{
		log:         log,
		messages:    messages,
		chats:       chats,
		broadcaster: broadcaster,
		hints:       hints,
		metrics:     metrics,
	}
}

// MarkRead adds the user to ReadBy for every unread message of the chat in
// one batch. Zero modifications is a silent success: no event, no hint. On
// any modification exactly one messages_read event reaches the room,
// regardless of how many messages the batch touched.
func (s *ReceiptService) MarkRead(ctx context.Context, cmd domain.MarkReadCommand) error {
	if cmd.ChatID == uuid.Nil {
		return errors.ErrMissingChat
	}
	chat, err := s.chats.Get(cmd.ChatID)
	if err != nil {
		return err
	}
	if !chat.HasMember(cmd.UserID) {
		return errors.ErrNotMember
	}

	modified, err := s.messages.MarkAllRead(cmd.ChatID, cmd.UserID)
	if err != nil {
		return err
	}
	if modified == 0 {
		return nil
	}

	s.broadcaster.Room(ctx, event.MessagesRead{Chat: cmd.ChatID, UserID: cmd.UserID})
	s.hints.Offer(event.ChatListChanged{Chat: cmd.ChatID})
	s.metrics.ReadReceipts.Inc()
	s.log.Debug("Marked chat read", "chat_id", cmd.ChatID, "user_id", cmd.UserID, "modified", modified)
	return nil
}
