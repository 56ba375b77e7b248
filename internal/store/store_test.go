package store

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&User{}, &Room{}, &Message{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *User {
	t.Helper()

	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)

	user := &User{
		ID:           uuid.NewString(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
	}
	if err := repo.Create(user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := repo.FindByUsername("alice")
	if err != nil {
		t.Fatalf("FindByUsername() error = %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("expected id %s, got %s", user.ID, found.ID)
	}

	if _, err := repo.FindByUsername("nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := repo.FindByEmail("alice@example.com"); err != nil {
		t.Errorf("FindByEmail() error = %v", err)
	}
}

func TestUserRepository_FindAllExcept(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)

	alice := createTestUser(t, db, "alice")
	createTestUser(t, db, "bob")
	createTestUser(t, db, "carol")

	users, err := repo.FindAllExcept(alice.ID)
	if err != nil {
		t.Fatalf("FindAllExcept() error = %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	for _, u := range users {
		if u.ID == alice.ID {
			t.Error("expected caller to be excluded from the list")
		}
	}
}

func TestRoomRepository_CreateRejectsDuplicateName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	creator := createTestUser(t, db, "alice")

	room := &Room{ID: uuid.NewString(), Name: "general", CreatorID: creator.ID}
	if err := repo.Create(room); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	dup := &Room{ID: uuid.NewString(), Name: "general", CreatorID: creator.ID}
	if err := repo.Create(dup); !errors.Is(err, ErrRoomNameTaken) {
		t.Errorf("expected ErrRoomNameTaken, got %v", err)
	}
}

func TestRoomRepository_Membership(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	room := &Room{
		ID:        uuid.NewString(),
		Name:      "general",
		CreatorID: alice.ID,
		Members:   []User{*alice},
	}
	if err := repo.Create(room); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.AddMember(room.ID, bob.ID); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	// Joining twice has the same effect as joining once.
	if err := repo.AddMember(room.ID, bob.ID); err != nil {
		t.Fatalf("repeated AddMember() error = %v", err)
	}

	found, err := repo.FindByID(room.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if len(found.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(found.Members))
	}
	if found.Creator == nil || found.Creator.Username != "alice" {
		t.Errorf("expected creator alice to be preloaded, got %+v", found.Creator)
	}

	if err := repo.RemoveMember(room.ID, bob.ID); err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}
	found, err = repo.FindByID(room.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if len(found.Members) != 1 {
		t.Errorf("expected 1 member after removal, got %d", len(found.Members))
	}

	if err := repo.AddMember(uuid.NewString(), bob.ID); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestMessageRepository_RoomHistory(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMessageRepository(db)
	alice := createTestUser(t, db, "alice")
	roomID := uuid.NewString()

	for _, content := range []string{"first", "second", "third"} {
		msg := &Message{
			ID:          uuid.NewString(),
			SenderID:    alice.ID,
			SenderName:  alice.Username,
			RoomID:      roomID,
			Content:     content,
			MessageType: "text",
		}
		if err := repo.Create(msg); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	messages, err := repo.ListByRoom(roomID)
	if err != nil {
		t.Fatalf("ListByRoom() error = %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}

	if got := len(mustList(t, repo, uuid.NewString())); got != 0 {
		t.Errorf("expected empty history for unknown room, got %d", got)
	}
}

func mustList(t *testing.T, repo *MessageRepository, roomID string) []*Message {
	t.Helper()
	messages, err := repo.ListByRoom(roomID)
	if err != nil {
		t.Fatalf("ListByRoom() error = %v", err)
	}
	return messages
}

func TestMessageRepository_PrivateConversation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMessageRepository(db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	save := func(senderID, recipientID, content string) {
		t.Helper()
		msg := &Message{
			ID:          uuid.NewString(),
			SenderID:    senderID,
			RecipientID: recipientID,
			Content:     content,
			MessageType: "text",
			IsPrivate:   true,
		}
		if err := repo.Create(msg); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	save(alice.ID, bob.ID, "hi bob")
	save(bob.ID, alice.ID, "hi alice")
	save(alice.ID, carol.ID, "hi carol")

	messages, err := repo.ListPrivate(alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("ListPrivate() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages in the alice/bob thread, got %d", len(messages))
	}
	for _, m := range messages {
		if m.Content == "hi carol" {
			t.Error("expected the carol thread to be excluded")
		}
	}
}
