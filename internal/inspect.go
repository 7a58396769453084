// Package internal holds the operator-facing store browser shared by the
// server's /debug/store endpoint and the inspect command.
package internal

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"chatwire/domain"
)

//go:embed inspect.html
var templatesFS embed.FS

type InspectRow struct {
	Key       string
	Type      string
	Timestamp string
	EntityID  string
	Detail    string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

// ScanRows walks every key under the prefix and maps its value to a row.
func ScanRows(db *badger.DB, prefix string, mapper RowMapper) ([]InspectRow, error) {
	if mapper == nil {
		mapper = DomainMapper
	}
	var rows []InspectRow
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				rows = append(rows, mapper(string(item.Key()), val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return rows, err
}

// StoreHandler renders the store as an HTML table, filtered by ?prefix=.
func StoreHandler(db *badger.DB, mapper RowMapper, statsProvider StatsProvider) http.HandlerFunc {
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))
	return func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "msg:"
		}
		data := PageData{Prefix: prefix, Stats: make(map[string]any)}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}
		rows, err := ScanRows(db, prefix, mapper)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		data.Items = rows
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	}
}

// DomainMapper decodes the chat store's JSON values. Unknown prefixes fall
// back to a raw size row.
func DomainMapper(key string, val []byte) InspectRow {
	switch {
	case strings.HasPrefix(key, "msg:"):
		var m domain.Message
		if err := json.Unmarshal(val, &m); err != nil {
			return rawRow(key, val)
		}
		detail := m.Content
		if m.IsDeleted {
			detail = "(deleted)"
		}
		return InspectRow{
			Key:       key,
			Type:      "MSG",
			Timestamp: m.CreatedAt.Format("15:04:05"),
			EntityID:  shorten(m.ID.String()),
			Detail:    detail,
		}
	case strings.HasPrefix(key, "chat:"):
		var c domain.Chat
		if err := json.Unmarshal(val, &c); err != nil {
			return rawRow(key, val)
		}
		return InspectRow{
			Key:      key,
			Type:     "CHAT",
			EntityID: shorten(c.ID.String()),
			Detail:   fmt.Sprintf("%s members=%d pins=%d", c.Type, len(c.Members), len(c.PinnedMessages)),
		}
	case strings.HasPrefix(key, "user:"):
		var u domain.User
		if err := json.Unmarshal(val, &u); err != nil {
			return rawRow(key, val)
		}
		status := "offline"
		if u.IsOnline {
			status = "online"
		}
		return InspectRow{
			Key:       key,
			Type:      "USER",
			Timestamp: u.LastSeen.Format("15:04:05"),
			EntityID:  u.ID,
			Detail:    u.Username + " " + status,
		}
	default:
		return rawRow(key, val)
	}
}

func rawRow(key string, val []byte) InspectRow {
	row := InspectRow{
		Key:       key,
		Type:      "RAW",
		Timestamp: "--:--:--",
		EntityID:  "--------",
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
	}
	// msg keys carry their timestamp, readable even without the payload.
	parts := strings.Split(key, ":")
	if len(parts) >= 4 {
		if tsNano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			row.Timestamp = time.Unix(0, tsNano).Format("15:04:05")
		}
		row.EntityID = shorten(parts[3])
	}
	return row
}

func shorten(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
