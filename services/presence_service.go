//go:generate go run go.uber.org/mock/mockgen -source=presence_service.go -destination=../mocks/mock_presence_service.go -package=mocks
package services

import (
	"context"
	"log/slog"
	"time"

	"chatwire/contract"
	"chatwire/domain"
	"chatwire/domain/event"
	"chatwire/repositories"
)

type IPresenceService interface {
	Connected(ctx context.Context, userID, username string) error
	Disconnected(ctx context.Context, userID string) error
}

// PresenceService flips the online flag as the gateway sees connections come
// and go. Presence changes are global broadcasts: every live connection
// hears them, joined rooms or not.
type PresenceService struct {
	log         *slog.Logger
	users       repositories.IUserRepository
	broadcaster contract.IBroadcaster
	now         func() time.Time
}

func NewPresenceService(log *slog.Logger, users repositories.IUserRepository,
	broadcaster contract.IBroadcaster) *PresenceService {
	return &PresenceService{log: log, users: users, broadcaster: broadcaster, now: time.Now}
}

// Connected upserts the identity-synced profile (first sight of a user
// creates it) and marks them online.
func (s *PresenceService) Connected(ctx context.Context, userID, username string) error {
	if err := s.users.Upsert(domain.User{ID: userID, Username: username}); err != nil {
		return err
	}
	now := s.now().UTC()
	if err := s.users.SetPresence(userID, true, now); err != nil {
		return err
	}
	s.broadcaster.Global(ctx, event.PresenceChanged{UserID: userID, Status: "online", LastSeen: now})
	return nil
}

// Disconnected marks the user offline and records last-seen as the
// disconnect time.
func (s *PresenceService) Disconnected(ctx context.Context, userID string) error {
	now := s.now().UTC()
	if err := s.users.SetPresence(userID, false, now); err != nil {
		return err
	}
	s.broadcaster.Global(ctx, event.PresenceChanged{UserID: userID, Status: "offline", LastSeen: now})
	return nil
}
