//go:generate go run go.uber.org/mock/mockgen -source=history_service.go -destination=../mocks/mock_history_service.go -package=mocks
package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"chatwire/domain"
	"chatwire/errors"
	"chatwire/repositories"
)

const DefaultPageSize = 20

// HistoryPage is one page of message history, oldest first, plus the cursor
// for the next (older) page.
type HistoryPage struct {
	Messages   []domain.Message
	NextCursor *domain.Cursor
	HasMore    bool
}

type IHistoryService interface {
	Page(ctx context.Context, cmd domain.PageCommand) (HistoryPage, error)
}

type HistoryService struct {
	log      *slog.Logger
	messages repositories.IMessageRepository
	chats    repositories.IChatRepository
}

func NewHistoryService(log *slog.Logger, messages repositories.IMessageRepository,
	chats repositories.IChatRepository) *HistoryService {
	return &HistoryService{log: log, messages: messages, chats: chats}
}

// Page serves cursor-paginated history. Internally the store is walked
// newest-first under (CreatedAt desc, ID desc); one extra message is fetched
// to detect hasMore, and the page is returned re-ordered chronologically.
// The next cursor points at the oldest message returned. Only members of
// the chat may read its history.
func (s *HistoryService) Page(_ context.Context, cmd domain.PageCommand) (HistoryPage, error) {
	if cmd.ChatID == uuid.Nil {
		return HistoryPage{}, errors.ErrMissingChat
	}
	chat, err := s.chats.Get(cmd.ChatID)
	if err != nil {
		return HistoryPage{}, err
	}
	if !chat.HasMember(cmd.CallerID) {
		return HistoryPage{}, errors.ErrNotMember
	}

	size := cmd.Size
	if size <= 0 {
		size = DefaultPageSize
	}

	newestFirst, err := s.messages.Page(cmd.ChatID, cmd.Cursor, size+1)
	if err != nil {
		return HistoryPage{}, err
	}

	hasMore := len(newestFirst) > size
	if hasMore {
		newestFirst = newestFirst[:size]
	}

	page := HistoryPage{
		Messages: lo.Reverse(newestFirst),
		HasMore:  hasMore,
	}
	if hasMore {
		cursor := domain.CursorOf(page.Messages[0]) // oldest returned
		page.NextCursor = &cursor
	}
	if page.Messages == nil {
		page.Messages = []domain.Message{}
	}
	return page, nil
}
