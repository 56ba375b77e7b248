// Package server maintains the transient room subscription index used for
// message fan-out. Membership here is independent of the durable room
// records kept by the store.
package server

import "sync"

// RoomIndex maps room ids to the set of connections currently subscribed for
// broadcast. A connection may be in any number of rooms at once. All methods
// are safe for concurrent use.
type RoomIndex struct {
	mu    sync.RWMutex
	rooms map[string]map[string]struct{}
}

// NewRoomIndex creates an empty room subscription index.
func NewRoomIndex() *RoomIndex {
	return &RoomIndex{
		rooms: make(map[string]map[string]struct{}),
	}
}

// Join subscribes a connection to a room. Joining a room twice has the same
// effect as joining once.
func (idx *RoomIndex) Join(roomID, connectionID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	members, ok := idx.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		idx.rooms[roomID] = members
	}
	members[connectionID] = struct{}{}
}

// Leave unsubscribes a connection from a room. Leaving a room the connection
// is not in is a no-op. Empty rooms are dropped from the index.
func (idx *RoomIndex) Leave(roomID, connectionID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	members, ok := idx.rooms[roomID]
	if !ok {
		return
	}
	delete(members, connectionID)
	if len(members) == 0 {
		delete(idx.rooms, roomID)
	}
}

// LeaveAll removes a connection from every room it belongs to under a single
// lock acquisition, so no reader observes stale membership once it returns.
// Used on disconnect.
func (idx *RoomIndex) LeaveAll(connectionID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for roomID, members := range idx.rooms {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(idx.rooms, roomID)
		}
	}
}

// Subscribers returns the connections currently subscribed to a room. The
// result is a copy; an unknown room yields an empty slice.
func (idx *RoomIndex) Subscribers(roomID string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	members := idx.rooms[roomID]
	subscribers := make([]string, 0, len(members))
	for connectionID := range members {
		subscribers = append(subscribers, connectionID)
	}
	return subscribers
}

// Contains reports whether a connection is subscribed to a room.
func (idx *RoomIndex) Contains(roomID, connectionID string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	members, ok := idx.rooms[roomID]
	if !ok {
		return false
	}
	_, ok = members[connectionID]
	return ok
}
