//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"chatwire/domain"
	"chatwire/errors"
	"chatwire/repositories"
	"chatwire/search"
)

type CreateGroupRequest struct {
	Name      string   `validate:"required,min=1,max=120"`
	CreatorID string   `validate:"required"`
	MemberIDs []string `validate:"required,min=1,dive,required"`
}

type IChatService interface {
	GetOrCreatePrivate(ctx context.Context, userA, userB string) (domain.Chat, error)
	CreateGroup(ctx context.Context, req CreateGroupRequest) (domain.Chat, error)
	Get(ctx context.Context, chatID domain.ChatID, callerID string) (domain.Chat, []domain.Message, error)
	AddMember(ctx context.Context, chatID domain.ChatID, callerID, newMemberID string) (domain.Chat, error)
	SearchMessages(ctx context.Context, chatID domain.ChatID, callerID, query string, limit int) ([]domain.Message, error)
}

// ChatService covers the chat CRUD surface the UI consumes. Chats only ever
// grow: there is no member-removal or chat-deletion path.
type ChatService struct {
	log      *slog.Logger
	validate *validator.Validate
	chats    repositories.IChatRepository
	messages repositories.IMessageRepository
	index    search.IMessageIndex
}

func NewChatService(log *slog.Logger, chats repositories.IChatRepository,
	messages repositories.IMessageRepository, index search.IMessageIndex) *ChatService {
	return &ChatService{
		log:      log,
		validate: validator.New(),
		chats:    chats,
		messages: messages,
		index:    index,
	}
}

// GetOrCreatePrivate returns the existing private chat between the two users
// or creates it on first contact.
func (s *ChatService) GetOrCreatePrivate(_ context.Context, userA, userB string) (domain.Chat, error) {
	if userA == "" || userB == "" || userA == userB {
		return domain.Chat{}, errors.ErrSelfPrivateChat
	}
	existing, found, err := s.chats.FindPrivate(userA, userB)
	if err != nil {
		return domain.Chat{}, err
	}
	if found {
		return existing, nil
	}

	chat := domain.Chat{
		ID:      uuid.New(),
		Type:    domain.ChatPrivate,
		Members: []string{userA, userB},
	}
	if err = s.chats.Create(chat); err != nil {
		return domain.Chat{}, err
	}
	s.log.Info("Created private chat", "chat_id", chat.ID)
	return chat, nil
}

// CreateGroup creates a group chat. The creator is always a member and the
// sole initial admin, so the admin set starts non-empty.
func (s *ChatService) CreateGroup(_ context.Context, req CreateGroupRequest) (domain.Chat, error) {
	if err := s.validate.Struct(req); err != nil {
		return domain.Chat{}, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}

	chat := domain.Chat{
		ID:      uuid.New(),
		Type:    domain.ChatGroup,
		Name:    req.Name,
		Members: lo.Uniq(append([]string{req.CreatorID}, req.MemberIDs...)),
		Admins:  []string{req.CreatorID},
	}
	if err := s.chats.Create(chat); err != nil {
		return domain.Chat{}, err
	}
	s.log.Info("Created group chat", "chat_id", chat.ID, "members", len(chat.Members))
	return chat, nil
}

// Get returns the chat with its pinned messages populated, for members
// only. Pins that no longer resolve are skipped rather than failing the
// whole read.
func (s *ChatService) Get(_ context.Context, chatID domain.ChatID, callerID string) (domain.Chat, []domain.Message, error) {
	chat, err := s.chats.Get(chatID)
	if err != nil {
		return domain.Chat{}, nil, err
	}
	if !chat.HasMember(callerID) {
		return domain.Chat{}, nil, errors.ErrNotMember
	}

	pinned := make([]domain.Message, 0, len(chat.PinnedMessages))
	for _, id := range chat.PinnedMessages {
		message, err := s.messages.Get(id)
		if err != nil {
			s.log.Warn("Dangling pinned message", "chat_id", chatID, "message_id", id)
			continue
		}
		pinned = append(pinned, message)
	}
	return chat, pinned, nil
}

// AddMember grows a group's membership. Only current members may invite.
func (s *ChatService) AddMember(_ context.Context, chatID domain.ChatID, callerID, newMemberID string) (domain.Chat, error) {
	if newMemberID == "" {
		return domain.Chat{}, errors.ErrInvalidPayload
	}
	chat, err := s.chats.Get(chatID)
	if err != nil {
		return domain.Chat{}, err
	}
	if chat.Type != domain.ChatGroup {
		return domain.Chat{}, fmt.Errorf("%w: members can only be added to groups", errors.ErrInvalidPayload)
	}
	if !chat.HasMember(callerID) {
		return domain.Chat{}, errors.ErrNotMember
	}
	return s.chats.AddMember(chatID, newMemberID)
}

// SearchMessages resolves a full-text query against the chat's history.
func (s *ChatService) SearchMessages(ctx context.Context, chatID domain.ChatID, callerID, query string, limit int) ([]domain.Message, error) {
	chat, err := s.chats.Get(chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasMember(callerID) {
		return nil, errors.ErrNotMember
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}

	ids, err := s.index.Search(ctx, chatID, query, limit)
	if err != nil {
		return nil, err
	}

	results := make([]domain.Message, 0, len(ids))
	for _, id := range ids {
		message, err := s.messages.Get(id)
		if err != nil {
			continue // index ahead of the store, skip
		}
		results = append(results, message)
	}
	return results, nil
}
