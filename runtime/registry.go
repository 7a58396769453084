// Package runtime owns the in-process connection state: which connection
// belongs to which user, and which rooms each connection has joined. It
// orchestrates delivery without containing business logic or domain rules.
package runtime

import (
	"sync"

	"chatwire/contract"
	"chatwire/domain"
)

type connSet map[contract.ConnID]struct{}

// Registry is the explicit connection-registry abstraction: add/remove/
// lookup over an in-process map for a single node. Multi-node fan-out plugs
// in above it (see the broadcaster's bridge), not inside it.
//
// Room membership is ephemeral. It is not persisted and a client must
// re-join its rooms after reconnecting.
type Registry struct {
	mu sync.RWMutex
	// sinks maps a live connection to its delivery channel.
	sinks map[contract.ConnID]contract.EventSink
	// users maps an identity to its single current connection.
	users map[string]contract.ConnID
	// owners maps a connection back to its identity.
	owners map[contract.ConnID]string
	// roomMembers maps a chat to the connections currently joined.
	roomMembers map[domain.ChatID]connSet
	// joined tracks each connection's rooms for cleanup on disconnect.
	joined map[contract.ConnID]map[domain.ChatID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sinks:       make(map[contract.ConnID]contract.EventSink),
		users:       make(map[string]contract.ConnID),
		owners:      make(map[contract.ConnID]string),
		roomMembers: make(map[domain.ChatID]connSet),
		joined:      make(map[contract.ConnID]map[domain.ChatID]struct{}),
	}
}

// Connect registers a connection for an identity. One connection per
// identity: a second connection for the same user replaces the first, whose
// id is returned so the gateway can close it. ok reports whether the user
// had no live connection before (i.e. they just came online).
func (r *Registry) Connect(connID contract.ConnID, userID string, sink contract.EventSink) (contract.ConnID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	replaced, had := r.users[userID]
	if had {
		r.dropLocked(replaced)
	}
	r.sinks[connID] = sink
	r.users[userID] = connID
	r.owners[connID] = userID
	return replaced, !had
}

// Disconnect removes a connection. current reports whether this connection
// was still the user's active one; a stale connection being torn down after
// replacement must not flip the user's presence.
func (r *Registry) Disconnect(connID contract.ConnID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.owners[connID]
	if !ok {
		return "", false
	}
	current := r.users[userID] == connID
	r.dropLocked(connID)
	if current {
		delete(r.users, userID)
	}
	return userID, current
}

// Join adds the connection to the chat's broadcast group.
func (r *Registry) Join(connID contract.ConnID, chatID domain.ChatID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sinks[connID]; !ok {
		return
	}
	if _, ok := r.roomMembers[chatID]; !ok {
		r.roomMembers[chatID] = make(connSet)
	}
	r.roomMembers[chatID][connID] = struct{}{}
	if _, ok := r.joined[connID]; !ok {
		r.joined[connID] = make(map[domain.ChatID]struct{})
	}
	r.joined[connID][chatID] = struct{}{}
}

// Leave removes the connection from the chat's broadcast group. Empty rooms
// are dropped entirely so the map does not leak over time.
func (r *Registry) Leave(connID contract.ConnID, chatID domain.ChatID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connID, chatID)
}

// SinksForRoom retrieves the delivery channels of the room's current
// members, minus the excluded connections (e.g. a typing sender). Clients
// who are chat participants but not currently joined receive nothing here;
// they rely on the global chat-list hint instead.
func (r *Registry) SinksForRoom(chatID domain.ChatID, exclude ...contract.ConnID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[chatID]
	if !ok {
		return nil
	}
	var active []contract.EventSink
	for connID := range members {
		if excluded(connID, exclude) {
			continue
		}
		if sink, exists := r.sinks[connID]; exists {
			active = append(active, sink)
		}
	}
	return active
}

// AllSinks returns every live connection, for global broadcasts (presence,
// chat-list hints).
func (r *Registry) AllSinks() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make([]contract.EventSink, 0, len(r.sinks))
	for _, sink := range r.sinks {
		sinks = append(sinks, sink)
	}
	return sinks
}

func (r *Registry) ConnOf(userID string) (contract.ConnID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.users[userID]
	return connID, ok
}

func (r *Registry) dropLocked(connID contract.ConnID) {
	for chatID := range r.joined[connID] {
		r.leaveLocked(connID, chatID)
	}
	delete(r.sinks, connID)
	delete(r.owners, connID)
}

func (r *Registry) leaveLocked(connID contract.ConnID, chatID domain.ChatID) {
	if members, ok := r.roomMembers[chatID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.roomMembers, chatID)
		}
	}
	if rooms, ok := r.joined[connID]; ok {
		delete(rooms, chatID)
		if len(rooms) == 0 {
			delete(r.joined, connID)
		}
	}
}

func excluded(connID contract.ConnID, exclude []contract.ConnID) bool {
	for _, e := range exclude {
		if e == connID {
			return true
		}
	}
	return false
}
