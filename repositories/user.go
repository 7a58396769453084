//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"

	"chatwire/domain"
	"chatwire/errors"
)

type IUserRepository interface {
	Upsert(user domain.User) error
	Get(userID string) (domain.User, error)
	SetPresence(userID string, online bool, lastSeen time.Time) error
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) UserRepository {
	return UserRepository{db: db}
}

// Upsert writes the identity-synced profile. Called on first sight of a
// user; presence fields are preserved if the user already exists.
func (u UserRepository) Upsert(user domain.User) error {
	return u.db.Update(func(txn *badger.Txn) error {
		if existing, err := getUser(txn, user.ID); err == nil {
			user.IsOnline = existing.IsOnline
			user.LastSeen = existing.LastSeen
		}
		bytes, err := json.Marshal(user)
		if err != nil {
			return err
		}
		return txn.Set([]byte(userKey(user.ID)), bytes)
	})
}

func (u UserRepository) Get(userID string) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, userID)
		return err
	})
	return user, err
}

func (u UserRepository) SetPresence(userID string, online bool, lastSeen time.Time) error {
	return u.db.Update(func(txn *badger.Txn) error {
		user, err := getUser(txn, userID)
		if err != nil {
			return err
		}
		user.IsOnline = online
		user.LastSeen = lastSeen
		bytes, err := json.Marshal(user)
		if err != nil {
			return err
		}
		return txn.Set([]byte(userKey(userID)), bytes)
	})
}

func getUser(txn *badger.Txn, userID string) (domain.User, error) {
	item, err := txn.Get([]byte(userKey(userID)))
	if err != nil {
		return domain.User{}, errors.ErrUserNotFound
	}
	var user domain.User
	err = item.Value(func(value []byte) error {
		return json.Unmarshal(value, &user)
	})
	return user, err
}

func userKey(userID string) string {
	return "user:" + userID
}
