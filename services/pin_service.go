//go:generate go run go.uber.org/mock/mockgen -source=pin_service.go -destination=../mocks/mock_pin_service.go -package=mocks
package services

import (
	"context"
	"log/slog"
	"time"

	"chatwire/contract"
	"chatwire/domain"
	"chatwire/domain/event"
	"chatwire/errors"
	"chatwire/repositories"
	"chatwire/search"
)

type IPinService interface {
	SetPin(ctx context.Context, cmd domain.SetPinCommand) (domain.Chat, error)
	Delete(ctx context.Context, cmd domain.DeleteMessageCommand) (domain.Message, error)
}

// PinService toggles pinned membership and applies soft deletion. Both
// authorizations are enforced here, server side, never trusted from the
// caller.
type PinService struct {
	log          *slog.Logger
	messages     repositories.IMessageRepository
	chats        repositories.IChatRepository
	index        search.IMessageIndex
	broadcaster  contract.IBroadcaster
	deleteWindow time.Duration
	now          func() time.Time
}

func NewPinService(log *slog.Logger, messages repositories.IMessageRepository,
	chats repositories.IChatRepository, index search.IMessageIndex,
	broadcaster contract.IBroadcaster, deleteWindow time.Duration) *PinService {
	return &PinService{
		log:          log,
		messages:     messages,
		chats:        chats,
		index:        index,
		broadcaster:  broadcaster,
		deleteWindow: deleteWindow,
		now:          time.Now,
	}
}

// SetPin applies one explicit pin/unpin action on behalf of a chat member;
// callers outside the chat are rejected here regardless of what the client
// claimed. The action is a stated intent rather than a computed toggle,
// which keeps concurrent callers from
// flipping each other's result; the pin-list version rejects the ones who
// acted on a stale list. A no-op action (pin of an already-pinned message)
// succeeds silently with no broadcast.
//
// The broadcast is hint-only: it does not carry the updated pin list and
// receivers re-fetch the chat to observe it.
func (s *PinService) SetPin(ctx context.Context, cmd domain.SetPinCommand) (domain.Chat, error) {
	if cmd.Action != domain.PinActionPin && cmd.Action != domain.PinActionUnpin {
		return domain.Chat{}, errors.ErrInvalidPinOp
	}
	chat, err := s.chats.Get(cmd.ChatID)
	if err != nil {
		return domain.Chat{}, err
	}
	if !chat.HasMember(cmd.CallerID) {
		return domain.Chat{}, errors.ErrNotMember
	}

	message, err := s.messages.Get(cmd.MessageID)
	if err != nil {
		return domain.Chat{}, err
	}
	// Pinned ids must always belong to the chat's own messages.
	if message.ChatID != cmd.ChatID {
		return domain.Chat{}, errors.ErrPinForeignMessage
	}

	chat, changed, err := s.chats.UpdatePins(cmd.ChatID, cmd.PinVersion, cmd.Action, cmd.MessageID)
	if err != nil {
		return domain.Chat{}, err
	}
	if !changed {
		return chat, nil
	}

	s.broadcaster.Room(ctx, event.PinUpdated{
		Chat:      cmd.ChatID,
		MessageID: cmd.MessageID,
		Action:    cmd.Action,
		At:        s.now().UTC(),
	})
	return chat, nil
}

// Delete tombstones a message. Only the original author may delete, and only
// within the configured window after creation; both checks happen here even
// though the UI hides the action outside them. Deleting an already-deleted
// message succeeds silently with no second broadcast.
func (s *PinService) Delete(ctx context.Context, cmd domain.DeleteMessageCommand) (domain.Message, error) {
	message, err := s.messages.Get(cmd.MessageID)
	if err != nil {
		return domain.Message{}, err
	}
	if message.SenderID != cmd.CallerID {
		return domain.Message{}, errors.ErrNotAuthor
	}
	if s.now().UTC().Sub(message.CreatedAt) > s.deleteWindow {
		return domain.Message{}, errors.ErrDeleteWindowExpired
	}
	if message.IsDeleted {
		return message, nil
	}

	deleted, err := s.messages.SoftDelete(cmd.MessageID)
	if err != nil {
		return domain.Message{}, err
	}
	// Re-index the tombstone so the original text stops matching searches.
	if err = s.index.Index(deleted); err != nil {
		s.log.Warn("Failed to re-index deleted message", "message_id", deleted.ID, "error", err)
	}

	s.broadcaster.Room(ctx, event.MessageDeleted{Chat: deleted.ChatID, MessageID: deleted.ID})
	return deleted, nil
}
