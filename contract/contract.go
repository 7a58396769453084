//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chatwire/domain"
	"chatwire/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself; the supervisor handles panics and restarts.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker lifecycle
// events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one live connection's receiving end.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// ConnID identifies one physical connection. A user has at most one current
// connection; a newer one replaces the older.
type ConnID string

type IRegistry interface {
	Connect(connID ConnID, userID string, sink EventSink) (replaced ConnID, ok bool)
	Disconnect(connID ConnID) (userID string, current bool)
	Join(connID ConnID, chatID domain.ChatID)
	Leave(connID ConnID, chatID domain.ChatID)
	SinksForRoom(chatID domain.ChatID, exclude ...ConnID) []EventSink
	AllSinks() []EventSink
	ConnOf(userID string) (ConnID, bool)
}

// IBroadcaster fans events out to live connections. Delivery is best-effort:
// persistence is the source of truth, broadcast is a freshness optimization.
type IBroadcaster interface {
	Room(ctx context.Context, e event.RoomEvent, exclude ...ConnID)
	Global(ctx context.Context, e event.DomainEvent)
}
