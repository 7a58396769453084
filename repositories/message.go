//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chatwire/domain"
	"chatwire/errors"
)

type IMessageRepository interface {
	Store(message domain.Message) error
	Get(messageID uuid.UUID) (domain.Message, error)
	Page(chatID domain.ChatID, cursor *domain.Cursor, limit int) ([]domain.Message, error)
	MarkAllRead(chatID domain.ChatID, userID string) (int, error)
	SoftDelete(messageID uuid.UUID) (domain.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// Store persists a message under two keys:
//  1. "msg:{chat_id}:{timestamp_padded}:{uuid}": the 19-digit zero padding
//     makes lexicographic order equal to chronological order, and the UUID
//     disambiguates two messages arriving at the same nanosecond.
//  2. "msgref:{uuid}": points back at the primary key so point lookups
//     (read receipts on a single message, soft delete) don't scan the chat.
func (m MessageRepository) Store(message domain.Message) error {
	key := primaryKey(message)
	bytes, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), bytes); err != nil {
			return err
		}
		return txn.Set([]byte(refKey(message.ID)), []byte(key))
	})
}

func (m MessageRepository) Get(messageID uuid.UUID) (domain.Message, error) {
	var message domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		var err error
		message, err = getByRef(txn, messageID)
		return err
	})
	return message, err
}

// Page retrieves up to limit messages strictly older than the cursor under
// (CreatedAt desc, ID desc), newest first. A nil cursor starts from the most
// recent message. Thanks to the padded timestamp in the key, a reverse
// prefix scan yields exactly this order.
func (m MessageRepository) Page(chatID domain.ChatID, cursor *domain.Cursor, limit int) ([]domain.Message, error) {
	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", chatID))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past every possible timestamp, then walk backwards.
			seekKey = append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		default:
			seekKey = append(append([]byte{}, prefix...), []byte(cursor.Encode())...)
		}

		it.Seek(seekKey)

		// A cursor points at an already-returned message: skip it.
		if cursor != nil && it.ValidForPrefix(prefix) &&
			string(it.Item().Key()) == string(seekKey) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if len(raw) == limit {
				break
			}
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, b := range raw {
		var message domain.Message
		if err = json.Unmarshal(b, &message); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// MarkAllRead adds the user to ReadBy for every message of the chat that
// does not already contain it, in one pass. The mutation is idempotent and
// convergent: repeating it is safe and touches nothing the second time.
// Returns how many messages were modified.
func (m MessageRepository) MarkAllRead(chatID domain.ChatID, userID string) (int, error) {
	modified := 0
	err := m.db.Update(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", chatID))
		options := badger.DefaultIteratorOptions
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var message domain.Message
			err := item.Value(func(value []byte) error {
				return json.Unmarshal(value, &message)
			})
			if err != nil {
				return err
			}
			if !message.MarkReadBy(userID) {
				continue
			}
			bytes, err := json.Marshal(message)
			if err != nil {
				return err
			}
			if err = txn.Set(item.KeyCopy(nil), bytes); err != nil {
				return err
			}
			modified++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return modified, nil
}

// SoftDelete tombstones the message in place and returns the updated copy.
// The original content is not recoverable afterwards.
func (m MessageRepository) SoftDelete(messageID uuid.UUID) (domain.Message, error) {
	var message domain.Message
	err := m.db.Update(func(txn *badger.Txn) error {
		var err error
		message, err = getByRef(txn, messageID)
		if err != nil {
			return err
		}
		if message.IsDeleted {
			// Already tombstoned, nothing left to erase.
			return nil
		}
		message.Delete()
		bytes, err := json.Marshal(message)
		if err != nil {
			return err
		}
		return txn.Set([]byte(primaryKey(message)), bytes)
	})
	return message, err
}

func getByRef(txn *badger.Txn, messageID uuid.UUID) (domain.Message, error) {
	item, err := txn.Get([]byte(refKey(messageID)))
	if err != nil {
		return domain.Message{}, errors.ErrMessageNotFound
	}
	var key []byte
	if err = item.Value(func(v []byte) error {
		key = append([]byte{}, v...)
		return nil
	}); err != nil {
		return domain.Message{}, err
	}
	item, err = txn.Get(key)
	if err != nil {
		return domain.Message{}, errors.ErrMessageNotFound
	}
	var message domain.Message
	err = item.Value(func(value []byte) error {
		return json.Unmarshal(value, &message)
	})
	return message, err
}

func primaryKey(message domain.Message) string {
	return fmt.Sprintf("msg:%s:%019d:%s",
		message.ChatID,
		message.CreatedAt.UnixNano(),
		message.ID,
	)
}

func refKey(messageID uuid.UUID) string {
	return "msgref:" + messageID.String()
}
