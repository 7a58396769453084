//go:generate go run go.uber.org/mock/mockgen -source=message_service.go -destination=../mocks/mock_message_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"chatwire/contract"
	"chatwire/domain"
	"chatwire/domain/event"
	"chatwire/errors"
	"chatwire/moderation"
	"chatwire/observability"
	"chatwire/repositories"
	"chatwire/search"
)

// HintSink receives the global "conversation list changed" hints emitted by
// the write paths.
type HintSink interface {
	Offer(e event.DomainEvent)
}

// TypingState lets the pipeline clear a sender's typing entry when their
// message lands.
type TypingState interface {
	Touch(chatID domain.ChatID, userID string)
	Clear(chatID domain.ChatID, userID string)
}

type IMessageService interface {
	Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
}

// MessageService is the write pipeline for new messages: validate, moderate,
// persist, then broadcast. Persistence is the source of truth; if it fails,
// nothing is broadcast and the caller sees the error.
type MessageService struct {
	log         *slog.Logger
	validate    *validator.Validate
	messages    repositories.IMessageRepository
	chats       repositories.IChatRepository
	moderator   *moderation.Moderator
	index       search.IMessageIndex
	broadcaster contract.IBroadcaster
	hints       HintSink
	typing      TypingState
	metrics     *observability.Metrics
	now         func() time.Time
}

func NewMessageService(log *slog.Logger, messages repositories.IMessageRepository,
	chats repositories.IChatRepository, moderator *moderation.Moderator,
	index search.IMessageIndex, broadcaster contract.IBroadcaster,
	hints HintSink, typing TypingState, metrics *observability.Metrics) *MessageService {
	return &MessageService{
		log:         log,
		validate:    validator.New(),
		messages:    messages,
		chats:       chats,
		moderator:   moderator,
		index:       index,
		broadcaster: broadcaster,
		hints:       hints,
		typing:      typing,
		metrics:     metrics,
		now:         time.Now,
	}
}

// Send runs the full pipeline. Message order within a chat is the order of
// successful persistence here, not the client-declared time: CreatedAt is
// always stamped by the server and the client value survives only as the
// ClientSentAt hint.
func (s *MessageService) Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	if cmd.ChatID == uuid.Nil {
		return domain.Message{}, errors.ErrMissingChat
	}
	if cmd.Content == "" && cmd.FileURL == "" {
		return domain.Message{}, errors.ErrEmptyContent
	}
	if err := s.validate.Struct(cmd); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}

	chat, err := s.chats.Get(cmd.ChatID)
	if err != nil {
		return domain.Message{}, err
	}
	if !chat.HasMember(cmd.SenderID) {
		return domain.Message{}, errors.ErrNotMember
	}

	content := s.censor(cmd.Content, cmd.SenderID)

	message := domain.Message{
		ID:           uuid.New(),
		ChatID:       cmd.ChatID,
		SenderID:     cmd.SenderID,
		Content:      content,
		Type:         cmd.Type,
		FileURL:      cmd.FileURL,
		CreatedAt:    s.now().UTC(),
		ClientSentAt: cmd.ClientSentAt,
		ReadBy:       []string{cmd.SenderID},
	}

	if message.ReplyTo, err = s.snapshot(cmd.ReplyToID); err != nil {
		return domain.Message{}, err
	}
	if message.ForwardedFrom, err = s.snapshot(cmd.ForwardFromID); err != nil {
		return domain.Message{}, err
	}

	if err = s.messages.Store(message); err != nil {
		return domain.Message{}, fmt.Errorf("store message: %w", err)
	}
	if err = s.chats.SetLastMessage(chat.ID, message.ID); err != nil {
		return domain.Message{}, fmt.Errorf("update last message pointer: %w", err)
	}
	if err = s.index.Index(message); err != nil {
		// The index is derived state, never a reason to fail a send.
		s.log.Warn("Failed to index message", "message_id", message.ID, "error", err)
	}

	s.typing.Clear(chat.ID, cmd.SenderID)
	s.broadcaster.Room(ctx, event.MessagePosted{Message: message})
	s.hints.Offer(event.ChatListChanged{Chat: chat.ID})
	s.metrics.MessagesSent.Inc()

	return message, nil
}

// censor masks forbidden words before the message ever reaches disk. The
// original text is not kept anywhere.
func (s *MessageService) censor(content, senderID string) string {
	if content == "" {
		return content
	}
	censored, found := s.moderator.Censor(content)
	if len(found) > 0 {
		info := whatlanggo.Detect(content)
		s.log.Warn("Censored message content",
			"sender", senderID,
			"lang", info.Lang.Iso6391(),
			"words", len(found))
		s.metrics.CensorHits.Inc()
	}
	return censored
}

// snapshot resolves a reply/forward reference into an immutable copy of the
// referenced message's summary at link time.
func (s *MessageService) snapshot(messageID *uuid.UUID) (*domain.MessageSnapshot, error) {
	if messageID == nil {
		return nil, nil
	}
	original, err := s.messages.Get(*messageID)
	if err != nil {
		return nil, err
	}
	snap := original.Snapshot()
	return &snap, nil
}
