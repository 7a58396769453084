//go:generate go run go.uber.org/mock/mockgen -source=typing_service.go -destination=../mocks/mock_typing_service.go -package=mocks
package services

import (
	"context"

	"chatwire/contract"
	"chatwire/domain"
	"chatwire/domain/event"
)

type ITypingService interface {
	Typing(ctx context.Context, chatID domain.ChatID, userID, username string, sender contract.ConnID)
	StopTyping(ctx context.Context, chatID domain.ChatID, userID string, sender contract.ConnID)
}

// TypingService relays ephemeral typing signals. Nothing here is persisted;
// the only state is the TTL tracker that un-sticks lost stop signals.
type TypingService struct {
	broadcaster contract.IBroadcaster
	tracker     TypingState
}

func NewTypingService(broadcaster contract.IBroadcaster, tracker TypingState) *TypingService {
	return &TypingService{broadcaster: broadcaster, tracker: tracker}
}

// Typing broadcasts to the room, excluding the sender's own connection.
func (s *TypingService) Typing(ctx context.Context, chatID domain.ChatID, userID, username string, sender contract.ConnID) {
	s.tracker.Touch(chatID, userID)
	s.broadcaster.Room(ctx, event.UserTyping{Chat: chatID, UserID: userID, Username: username}, sender)
}

func (s *TypingService) StopTyping(ctx context.Context, chatID domain.ChatID, userID string, sender contract.ConnID) {
	s.tracker.Clear(chatID, userID)
	s.broadcaster.Room(ctx, event.UserStopTyping{Chat: chatID, UserID: userID}, sender)
}
