package chathub

import (
	"sort"
	"sync"
)

// Registry is the source of truth for "who is online" and for conversation
// channel membership. It is the single shared-mutable-state boundary of the
// relay: every mutation and read goes through one RWMutex so no caller ever
// observes a torn view (e.g. a snapshot taken mid-registration).
type Registry struct {
	mu      sync.RWMutex
	clients map[uint]Client              // principal -> live connection
	rooms   map[string]map[string]Client // channel -> conn id -> connection
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[uint]Client),
		rooms:   make(map[string]map[string]Client),
	}
}

// Register associates a principal with a live connection. A later
// registration for the same principal supersedes the earlier one: the stale
// connection keeps running (and keeps any channel membership it had), only
// its presence association is dropped. A connection re-registering under a
// different principal takes its previous entry with it, so one connection
// never backs two presence entries. Returns false if the connection has
// already started teardown, so a late register cannot resurrect an entry
// that Unregister just removed.
func (r *Registry) Register(userID uint, c Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.IsClosed() {
		return false
	}
	for id, existing := range r.clients {
		if id != userID && existing.GetConnID() == c.GetConnID() {
			delete(r.clients, id)
		}
	}
	r.clients[userID] = c
	return true
}

// Lookup returns the connection currently registered for the principal.
func (r *Registry) Lookup(userID uint) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[userID]
	return c, ok
}

// Unregister removes every presence entry backed by this connection, plus
// its channel membership. Matching is by connection id: if the principal has
// since re-registered under a new connection, that newer entry is left
// untouched. Idempotent. Reports whether a presence entry was actually
// removed.
func (r *Registry) Unregister(c Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeFromRoom(c)

	removed := false
	for id, current := range r.clients {
		if current.GetConnID() == c.GetConnID() {
			delete(r.clients, id)
			removed = true
		}
	}
	return removed
}

// Snapshot returns the set of principals currently online, ascending.
func (r *Registry) Snapshot() []uint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	online := make([]uint, 0, len(r.clients))
	for userID := range r.clients {
		online = append(online, userID)
	}
	sort.Slice(online, func(i, j int) bool { return online[i] < online[j] })
	return online
}

// JoinRoom moves the connection into the given channel. Leaving the previous
// channel and joining the new one happen under a single lock acquisition, so
// observers never see the connection in neither or both.
func (r *Registry) JoinRoom(c Client, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.GetRoom() == room {
		return
	}
	r.removeFromRoom(c)

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]Client)
		r.rooms[room] = members
	}
	members[c.GetConnID()] = c
	c.SetRoom(room)
}

// LeaveRoom removes the connection from its current channel. Idempotent.
func (r *Registry) LeaveRoom(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeFromRoom(c)
}

// removeFromRoom must be called with r.mu held.
func (r *Registry) removeFromRoom(c Client) {
	room := c.GetRoom()
	if room == "" {
		return
	}
	if members, ok := r.rooms[room]; ok {
		delete(members, c.GetConnID())
		// Drop empty room sets so the map doesn't grow forever.
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	c.SetRoom("")
}

// RoomMembers returns the connections currently joined to the channel.
func (r *Registry) RoomMembers(room string) []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[room]
	if !ok {
		return nil
	}
	active := make([]Client, 0, len(members))
	for _, c := range members {
		active = append(active, c)
	}
	return active
}

// IsUserInRoom reports whether the principal's registered connection is
// currently joined to the channel. A principal with no presence entry is
// never in a room.
func (r *Registry) IsUserInRoom(userID uint, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[userID]
	if !ok {
		return false
	}
	members, ok := r.rooms[room]
	if !ok {
		return false
	}
	_, in := members[c.GetConnID()]
	return in
}
