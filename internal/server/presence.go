// Package server tracks which identified users sit behind live connections,
// backing the who's-online list broadcast on every join and disconnect.
package server

import "sync"

// PresenceEntry pairs a live connection with the user identity it announced.
// The JSON field names match the users_list wire format.
type PresenceEntry struct {
	UserID       string `json:"userId"`
	UserName     string `json:"userName"`
	ConnectionID string `json:"socketId"`
}

// PresenceTable is an insertion-ordered map from connection id to the
// identity announced on that connection. A user with several tabs or devices
// appears once per connection. All methods are safe for concurrent use.
type PresenceTable struct {
	mu      sync.RWMutex
	entries map[string]*PresenceEntry
	order   []string
}

// NewPresenceTable creates an empty presence table.
func NewPresenceTable() *PresenceTable {
	return &PresenceTable{
		entries: make(map[string]*PresenceEntry),
	}
}

// Upsert records the identity behind a connection. Re-announcing overwrites
// the previous entry; the connection keeps its original position in the
// snapshot order.
func (t *PresenceTable) Upsert(connectionID, userID, userName string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if entry, ok := t.entries[connectionID]; ok {
		entry.UserID = userID
		entry.UserName = userName
		return
	}

	t.entries[connectionID] = &PresenceEntry{
		UserID:       userID,
		UserName:     userName,
		ConnectionID: connectionID,
	}
	t.order = append(t.order, connectionID)
}

// Remove deletes the entry for a connection and reports whether one existed.
// Removing an unknown connection is a no-op.
func (t *PresenceTable) Remove(connectionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[connectionID]; !ok {
		return false
	}
	delete(t.entries, connectionID)

	for i, id := range t.order {
		if id == connectionID {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// Snapshot returns all entries in insertion order.
func (t *PresenceTable) Snapshot() []PresenceEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snapshot := make([]PresenceEntry, 0, len(t.order))
	for _, id := range t.order {
		snapshot = append(snapshot, *t.entries[id])
	}
	return snapshot
}

// FindUser returns the earliest-announced live connection for the given user
// id. When the same user is present on several connections the first one
// wins, matching private message routing.
func (t *PresenceTable) FindUser(userID string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, id := range t.order {
		if t.entries[id].UserID == userID {
			return id, true
		}
	}
	return "", false
}

// Len returns the number of live identified connections.
func (t *PresenceTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
