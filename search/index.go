// Package search maintains the full-text index over message content.
// Badger stays the source of truth; the index only resolves queries to
// message ids.
package search

import (
	"context"
	"log/slog"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"

	"chatwire/domain"
)

type IMessageIndex interface {
	Index(message domain.Message) error
	Search(ctx context.Context, chatID domain.ChatID, query string, limit int) ([]uuid.UUID, error)
}

type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) *MessageIndex {
	return &MessageIndex{writer: writer, log: log}
}

// Index adds or replaces the message in the index. Tombstoned messages are
// indexed with their tombstone text, which effectively removes the original
// content from search results.
func (m *MessageIndex) Index(message domain.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewKeywordField("chat_id", message.ChatID.String())).
		AddField(bluge.NewTextField("content", message.Content)).
		AddField(bluge.NewKeywordField("sender_id", message.SenderID))
	return m.writer.Update(doc.ID(), doc)
}

// Search returns the ids of messages in the chat matching the query, best
// match first.
func (m *MessageIndex) Search(ctx context.Context, chatID domain.ChatID, query string, limit int) ([]uuid.UUID, error) {
	reader, err := m.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			m.log.Warn("Failed to close index reader", "error", err)
		}
	}()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(chatID.String()).SetField("chat_id")).
		AddMust(bluge.NewMatchQuery(query).SetField("content"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				if id, parseErr := uuid.Parse(string(value)); parseErr == nil {
					ids = append(ids, id)
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}
