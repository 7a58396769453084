// Package handlers exposes the REST surface the UI consumes. Everything
// here is a thin translation layer: decode, call a service, encode.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"chatwire/domain"
	"chatwire/errors"
	"chatwire/services"
)

type ChatHandler struct {
	log     *slog.Logger
	chats   services.IChatService
	history services.IHistoryService
	list    services.IChatListService
	pins    services.IPinService
}

func NewChatHandler(log *slog.Logger, chats services.IChatService, history services.IHistoryService,
	list services.IChatListService, pins services.IPinService) *ChatHandler {
	return &ChatHandler{log: log, chats: chats, history: history, list: list, pins: pins}
}

// Register mounts the chat routes on the router. The router must already
// carry the Authenticate middleware.
func (h *ChatHandler) Register(r *mux.Router) {
	r.HandleFunc("/chats", h.ListChats).Methods(http.MethodGet)
	r.HandleFunc("/chats/private", h.GetOrCreatePrivate).Methods(http.MethodPost)
	r.HandleFunc("/chats/group", h.CreateGroup).Methods(http.MethodPost)
	r.HandleFunc("/chats/{id}", h.GetChat).Methods(http.MethodGet)
	r.HandleFunc("/chats/{id}/members", h.AddMember).Methods(http.MethodPost)
	r.HandleFunc("/chats/{id}/messages", h.GetMessages).Methods(http.MethodGet)
	r.HandleFunc("/chats/{id}/messages/search", h.SearchMessages).Methods(http.MethodGet)
	r.HandleFunc("/chats/{id}/pin", h.TogglePin).Methods(http.MethodPost)
	r.HandleFunc("/chats/{id}/messages/{messageId}", h.DeleteMessage).Methods(http.MethodDelete)
}

type privateChatRequest struct {
	UserID string `json:"userId"`
}

func (h *ChatHandler) GetOrCreatePrivate(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerOf(r)
	if !ok {
		respondError(w, errors.ErrMissingIdentity)
		return
	}
	var req privateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.ErrInvalidPayload)
		return
	}
	chat, err := h.chats.GetOrCreatePrivate(r.Context(), caller.UserID, req.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, chat)
}

type createGroupRequest struct {
	Name      string   `json:"name"`
	MemberIDs []string `json:"memberIds"`
}

func (h *ChatHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerOf(r)
	if !ok {
		respondError(w, errors.ErrMissingIdentity)
		return
	}
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.ErrInvalidPayload)
		return
	}
	chat, err := h.chats.CreateGroup(r.Context(), services.CreateGroupRequest{
		Name:      req.Name,
		CreatorID: caller.UserID,
		MemberIDs: req.MemberIDs,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, chat)
}

type chatResponse struct {
	Chat           domain.Chat      `json:"chat"`
	PinnedMessages []domain.Message `json:"pinnedMessages"`
}

func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerOf(r)
	if !ok {
		respondError(w, errors.ErrMissingIdentity)
		return
	}
	chatID, err := pathChatID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	chat, pinned, err := h.chats.Get(r.Context(), chatID, caller.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	if pinned == nil {
		pinned = []domain.Message{}
	}
	respondJSON(w, http.StatusOK, chatResponse{Chat: chat, PinnedMessages: pinned})
}

type addMemberRequest struct {
	UserID string `json:"userId"`
}

func (h *ChatHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerOf(r)
	if !ok {
		respondError(w, errors.ErrMissingIdentity)
		return
	}
	chatID, err := pathChatID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.ErrInvalidPayload)
		return
	}
	chat, err := h.chats.AddMember(r.Context(), chatID, caller.UserID, req.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, chat)
}

type chatSummaryResponse struct {
	Chat        domain.Chat     `json:"chat"`
	Label       string          `json:"label"`
	LastMessage *domain.Message `json:"lastMessage,omitempty"`
	Unread      bool            `json:"unread"`
}

func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerOf(r)
	if !ok {
		respondError(w, errors.ErrMissingIdentity)
		return
	}
	summaries, err := h.list.List(r.Context(), caller.UserID, r.URL.Query().Get("search"))
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]chatSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, chatSummaryResponse{
			Chat:        s.Chat,
			Label:       s.Label,
			LastMessage: s.LastMessage,
			Unread:      s.Unread,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

type nextCursorResponse struct {
	CursorTimestamp int64     `json:"cursorTimestamp"`
	CursorID        uuid.UUID `json:"cursorId"`
}

type historyResponse struct {
	Messages   []domain.Message    `json:"messages"`
	NextCursor *nextCursorResponse `json:"nextCursor"`
	HasMore    bool                `json:"hasMore"`
}

func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerOf(r)
	if !ok {
		respondError(w, errors.ErrMissingIdentity)
		return
	}
	chatID, err := pathChatID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	cursor, err := queryCursor(r)
	if err != nil {
		respondError(w, err)
		return
	}
	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		size, err = strconv.Atoi(raw)
		if err != nil || size < 0 {
			respondError(w, errors.ErrInvalidPayload)
			return
		}
	}
	page, err := h.history.Page(r.Context(), domain.PageCommand{ChatID: chatID, CallerID: caller.UserID, Cursor: cursor, Size: size})
	if err != nil {
		respondError(w, err)
		return
	}
	resp := historyResponse{Messages: page.Messages, HasMore: page.HasMore}
	if page.NextCursor != nil {
		resp.NextCursor = &nextCursorResponse{
			CursorTimestamp: page.NextCursor.CreatedAt.UnixNano(),
			CursorID:        page.NextCursor.ID,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *ChatHandler) SearchMessages(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerOf(r)
	if !ok {
		respondError(w, errors.ErrMissingIdentity)
		return
	}
	chatID, err := pathChatID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	query := r.URL.Query().Get("q")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			respondError(w, errors.ErrInvalidPayload)
			return
		}
	}
	matches, err := h.chats.SearchMessages(r.Context(), chatID, caller.UserID, query, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	if matches == nil {
		matches = []domain.Message{}
	}
	respondJSON(w, http.StatusOK, matches)
}

type togglePinRequest struct {
	MessageID  uuid.UUID        `json:"messageId"`
	Action     domain.PinAction `json:"action"`
	PinVersion uint64           `json:"pinVersion"`
}

func (h *ChatHandler) TogglePin(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerOf(r)
	if !ok {
		respondError(w, errors.ErrMissingIdentity)
		return
	}
	chatID, err := pathChatID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req togglePinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.ErrInvalidPayload)
		return
	}
	chat, err := h.pins.SetPin(r.Context(), domain.SetPinCommand{
		ChatID:     chatID,
		MessageID:  req.MessageID,
		Action:     req.Action,
		PinVersion: req.PinVersion,
		CallerID:   caller.UserID,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, chat)
}

func (h *ChatHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerOf(r)
	if !ok {
		respondError(w, errors.ErrMissingIdentity)
		return
	}
	chatID, err := pathChatID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	messageID, err := uuid.Parse(mux.Vars(r)["messageId"])
	if err != nil {
		respondError(w, errors.ErrInvalidPayload)
		return
	}
	msg, err := h.pins.Delete(r.Context(), domain.DeleteMessageCommand{
		ChatID:    chatID,
		MessageID: messageID,
		CallerID:  caller.UserID,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, msg)
}

func pathChatID(r *http.Request) (domain.ChatID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, errors.ErrMissingChat
	}
	return id, nil
}

// queryCursor reads the optional cursorTimestamp/cursorId pair. Both must
// be present together.
func queryCursor(r *http.Request) (*domain.Cursor, error) {
	ts := r.URL.Query().Get("cursorTimestamp")
	id := r.URL.Query().Get("cursorId")
	if ts == "" && id == "" {
		return nil, nil
	}
	if ts == "" || id == "" {
		return nil, errors.ErrInvalidPayload
	}
	nanos, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, errors.ErrInvalidPayload
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.ErrInvalidPayload
	}
	return &domain.Cursor{CreatedAt: time.Unix(0, nanos).UTC(), ID: parsedID}, nil
}
