package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatwire/domain"
	"chatwire/errors"
)

func Test_Upsert_Preserves_Presence(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewUserRepository(db)

	req.NoError(repository.Upsert(domain.User{ID: "alice", Username: "Alice"}))
	lastSeen := time.Now().UTC().Truncate(time.Second)
	req.NoError(repository.SetPresence("alice", true, lastSeen))

	// A profile refresh from the identity layer must not reset presence
	req.NoError(repository.Upsert(domain.User{ID: "alice", Username: "Alice Renamed"}))

	user, err := repository.Get("alice")
	req.NoError(err)
	req.Equal("Alice Renamed", user.Username)
	req.True(user.IsOnline)
	req.Equal(lastSeen, user.LastSeen.Truncate(time.Second))
}

func Test_Get_Unknown_User(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewUserRepository(db)

	_, err := repository.Get("ghost")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func Test_SetPresence_Offline(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewUserRepository(db)

	req.NoError(repository.Upsert(domain.User{ID: "bob", Username: "Bob"}))
	lastSeen := time.Now().UTC()
	req.NoError(repository.SetPresence("bob", false, lastSeen))

	user, err := repository.Get("bob")
	req.NoError(err)
	req.False(user.IsOnline)
	req.Equal(lastSeen.Unix(), user.LastSeen.Unix())
}
