//go:generate go run go.uber.org/mock/mockgen -source=chat.go -destination=../mocks/mock_chat_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chatwire/domain"
	"chatwire/errors"
)

type IChatRepository interface {
	Create(chat domain.Chat) error
	Get(chatID domain.ChatID) (domain.Chat, error)
	AddMember(chatID domain.ChatID, userID string) (domain.Chat, error)
	SetLastMessage(chatID domain.ChatID, messageID uuid.UUID) error
	UpdatePins(chatID domain.ChatID, expectedVersion uint64, action domain.PinAction, messageID uuid.UUID) (domain.Chat, bool, error)
	FindPrivate(userA, userB string) (domain.Chat, bool, error)
	ListByUser(userID string) ([]domain.Chat, error)
}

type ChatRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewChatRepository(db *badger.DB, log *slog.Logger) ChatRepository {
	return ChatRepository{db: db, log: log}
}

// Create persists the chat plus the indexes that serve the read paths:
// "member:{user}:{chat}" lists a user's chats without scanning everything,
// and "private:{lo}:{hi}" finds the existing private chat of a user pair.
func (c ChatRepository) Create(chat domain.Chat) error {
	bytes, err := json.Marshal(chat)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(chatKey(chat.ID)), bytes); err != nil {
			return err
		}
		for _, member := range chat.Members {
			if err := txn.Set([]byte(memberKey(member, chat.ID)), nil); err != nil {
				return err
			}
		}
		if chat.Type == domain.ChatPrivate && len(chat.Members) == 2 {
			key := privateKey(chat.Members[0], chat.Members[1])
			if err := txn.Set([]byte(key), []byte(chat.ID.String())); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c ChatRepository) Get(chatID domain.ChatID) (domain.Chat, error) {
	var chat domain.Chat
	err := c.db.View(func(txn *badger.Txn) error {
		var err error
		chat, err = getChat(txn, chatID)
		return err
	})
	return chat, err
}

func (c ChatRepository) AddMember(chatID domain.ChatID, userID string) (domain.Chat, error) {
	var chat domain.Chat
	err := c.db.Update(func(txn *badger.Txn) error {
		var err error
		chat, err = getChat(txn, chatID)
		if err != nil {
			return err
		}
		if chat.HasMember(userID) {
			return nil
		}
		chat.Members = append(chat.Members, userID)
		bytes, err := json.Marshal(chat)
		if err != nil {
			return err
		}
		if err = txn.Set([]byte(chatKey(chatID)), bytes); err != nil {
			return err
		}
		return txn.Set([]byte(memberKey(userID, chatID)), nil)
	})
	return chat, err
}

// SetLastMessage overwrites the denormalized last-message pointer. One field
// for both chat types; the projection per type happens at read time.
func (c ChatRepository) SetLastMessage(chatID domain.ChatID, messageID uuid.UUID) error {
	return c.db.Update(func(txn *badger.Txn) error {
		chat, err := getChat(txn, chatID)
		if err != nil {
			return err
		}
		chat.LastMessageID = &messageID
		bytes, err := json.Marshal(chat)
		if err != nil {
			return err
		}
		return txn.Set([]byte(chatKey(chatID)), bytes)
	})
}

// UpdatePins applies one pin/unpin action under optimistic versioning.
// The caller states which version of the pin list it saw; a mismatch means a
// concurrent pin operation won, and the caller must re-fetch instead of
// silently clobbering the list. Returns the chat after the operation and
// whether the set actually changed (idempotent re-pins change nothing).
func (c ChatRepository) UpdatePins(chatID domain.ChatID, expectedVersion uint64,
	action domain.PinAction, messageID uuid.UUID) (domain.Chat, bool, error) {
	var chat domain.Chat
	var changed bool
	err := c.db.Update(func(txn *badger.Txn) error {
		var err error
		chat, err = getChat(txn, chatID)
		if err != nil {
			return err
		}
		if chat.PinVersion != expectedVersion {
			return errors.ErrStalePinVersion
		}
		switch action {
		case domain.PinActionPin:
			changed = chat.Pin(messageID)
		case domain.PinActionUnpin:
			changed = chat.Unpin(messageID)
		default:
			return errors.ErrInvalidPinOp
		}
		if !changed {
			return nil
		}
		chat.PinVersion++
		bytes, err := json.Marshal(chat)
		if err != nil {
			return err
		}
		return txn.Set([]byte(chatKey(chatID)), bytes)
	})
	return chat, changed, err
}

func (c ChatRepository) FindPrivate(userA, userB string) (domain.Chat, bool, error) {
	var chat domain.Chat
	found := false
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(privateKey(userA, userB)))
		if err != nil {
			return nil // no such pair yet
		}
		var idBytes []byte
		if err = item.Value(func(v []byte) error {
			idBytes = append([]byte{}, v...)
			return nil
		}); err != nil {
			return err
		}
		chatID, err := uuid.Parse(string(idBytes))
		if err != nil {
			return err
		}
		chat, err = getChat(txn, chatID)
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return chat, found, err
}

// ListByUser resolves the member index into full chats.
func (c ChatRepository) ListByUser(userID string) ([]domain.Chat, error) {
	var chats []domain.Chat
	err := c.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("member:%s:", userID))
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			rawID := strings.TrimPrefix(string(it.Item().Key()), string(prefix))
			chatID, err := uuid.Parse(rawID)
			if err != nil {
				c.log.Warn("Skipping malformed member index key", "key", string(it.Item().Key()))
				continue
			}
			chat, err := getChat(txn, chatID)
			if err != nil {
				return err
			}
			chats = append(chats, chat)
		}
		return nil
	})
	return chats, err
}

func getChat(txn *badger.Txn, chatID domain.ChatID) (domain.Chat, error) {
	item, err := txn.Get([]byte(chatKey(chatID)))
	if err != nil {
		return domain.Chat{}, errors.ErrChatNotFound
	}
	var chat domain.Chat
	err = item.Value(func(value []byte) error {
		return json.Unmarshal(value, &chat)
	})
	return chat, err
}

func chatKey(chatID domain.ChatID) string {
	return "chat:" + chatID.String()
}

func memberKey(userID string, chatID domain.ChatID) string {
	return fmt.Sprintf("member:%s:%s", userID, chatID)
}

// privateKey orders the pair so both lookup directions hit the same key.
func privateKey(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("private:%s:%s", userA, userB)
}
