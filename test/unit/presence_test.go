// Package unit contains unit tests for individual components of the chat server.
//
// These tests focus on testing specific functions and methods in isolation,
// without a running transport or database.
package unit

import (
	"testing"

	"github.com/smartwinnr/chat-server/internal/server"
)

func TestPresenceUpsertAndSnapshotOrder(t *testing.T) {
	table := server.NewPresenceTable()

	table.Upsert("conn-1", "user-a", "Alice")
	table.Upsert("conn-2", "user-b", "Bob")
	table.Upsert("conn-3", "user-c", "Carol")

	snapshot := table.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(snapshot))
	}

	wantNames := []string{"Alice", "Bob", "Carol"}
	for i, entry := range snapshot {
		if entry.UserName != wantNames[i] {
			t.Errorf("Entry %d: expected %q, got %q", i, wantNames[i], entry.UserName)
		}
	}
}

func TestPresenceReannounceKeepsPosition(t *testing.T) {
	table := server.NewPresenceTable()

	table.Upsert("conn-1", "user-a", "Alice")
	table.Upsert("conn-2", "user-b", "Bob")

	// Re-announcing overwrites the entry but keeps insertion order.
	table.Upsert("conn-1", "user-a", "Alicia")

	snapshot := table.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(snapshot))
	}
	if snapshot[0].UserName != "Alicia" {
		t.Errorf("Expected first entry to be Alicia, got %q", snapshot[0].UserName)
	}
	if snapshot[1].UserName != "Bob" {
		t.Errorf("Expected second entry to be Bob, got %q", snapshot[1].UserName)
	}
}

func TestPresenceRemove(t *testing.T) {
	table := server.NewPresenceTable()

	table.Upsert("conn-1", "user-a", "Alice")
	table.Upsert("conn-2", "user-b", "Bob")

	if !table.Remove("conn-1") {
		t.Error("Expected Remove of a known connection to report true")
	}
	if table.Remove("conn-1") {
		t.Error("Expected repeated Remove to report false")
	}
	// Removing an unknown connection must be a silent no-op.
	if table.Remove("never-seen") {
		t.Error("Expected Remove of an unknown connection to report false")
	}

	snapshot := table.Snapshot()
	if len(snapshot) != 1 || snapshot[0].ConnectionID != "conn-2" {
		t.Errorf("Expected only conn-2 to remain, got %+v", snapshot)
	}
}

func TestPresenceFindUserPicksFirstConnection(t *testing.T) {
	table := server.NewPresenceTable()

	// Same user on two tabs: the first announced connection wins.
	table.Upsert("conn-1", "user-a", "Alice")
	table.Upsert("conn-2", "user-a", "Alice")

	connectionID, ok := table.FindUser("user-a")
	if !ok {
		t.Fatal("Expected to find user-a")
	}
	if connectionID != "conn-1" {
		t.Errorf("Expected conn-1, got %s", connectionID)
	}

	if _, ok := table.FindUser("user-z"); ok {
		t.Error("Expected lookup of an absent user to fail")
	}
}
