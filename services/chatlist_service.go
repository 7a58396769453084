//go:generate go run go.uber.org/mock/mockgen -source=chatlist_service.go -destination=../mocks/mock_chatlist_service.go -package=mocks
package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/samber/lo"

	"chatwire/domain"
	"chatwire/repositories"
)

// ChatSummary is one row of a user's conversation list.
type ChatSummary struct {
	Chat        domain.Chat
	Label       string
	LastMessage *domain.Message
	Unread      bool
}

type IChatListService interface {
	List(ctx context.Context, userID, filter string) ([]ChatSummary, error)
}

// ChatListService builds the ranked conversation list. It reads only the
// denormalized last-message pointers, never full histories; clients refresh
// it when the global chat_list_update hint arrives.
type ChatListService struct {
	log   *slog.Logger
	chats repositories.IChatRepository
	users repositories.IUserRepository
	msgs  repositories.IMessageRepository
}

func NewChatListService(log *slog.Logger, chats repositories.IChatRepository,
	users repositories.IUserRepository, msgs repositories.IMessageRepository) *ChatListService {
	return &ChatListService{log: log, chats: chats, users: users, msgs: msgs}
}

// List annotates every chat the user belongs to and sorts by recency of last
// activity. A chat is unread when its last message is from someone else and
// the user is not in its ReadBy set. The filter is a case-insensitive
// substring match over the display label.
func (s *ChatListService) List(_ context.Context, userID, filter string) ([]ChatSummary, error) {
	chats, err := s.chats.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summary := ChatSummary{Chat: chat, Label: s.label(chat, userID)}

		if chat.LastMessageID != nil {
			last, err := s.msgs.Get(*chat.LastMessageID)
			if err != nil {
				s.log.Warn("Dangling last-message pointer", "chat_id", chat.ID, "error", err)
			} else {
				summary.LastMessage = &last
				summary.Unread = last.SenderID != userID && !last.IsReadBy(userID)
			}
		}
		summaries = append(summaries, summary)
	}

	if filter != "" {
		needle := strings.ToLower(filter)
		summaries = lo.Filter(summaries, func(s ChatSummary, _ int) bool {
			return strings.Contains(strings.ToLower(s.Label), needle)
		})
	}

	// Most recent activity first; chats with no messages yet sink to the end.
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i].LastMessage, summaries[j].LastMessage
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
	return summaries, nil
}

// label resolves the row title: the counterpart's name for private chats,
// the group name otherwise.
func (s *ChatListService) label(chat domain.Chat, userID string) string {
	if chat.Type != domain.ChatPrivate {
		return chat.Name
	}
	counterpartID := chat.Counterpart(userID)
	counterpart, err := s.users.Get(counterpartID)
	if err != nil {
		return counterpartID
	}
	return counterpart.Username
}
