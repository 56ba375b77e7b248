package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrRoomNotFound is returned when a room lookup matches nothing.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomNameTaken is returned when a room with the same name exists.
	ErrRoomNameTaken = errors.New("room name already exists")
)

// Room is a durable named channel. Its member list records who has joined
// through the REST API and is independent of the relay's transient
// subscription index.
type Room struct {
	ID          string    `gorm:"primarykey;size:36" json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"-"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	CreatorID   string    `gorm:"size:36;not null" json:"creatorId"`
	Creator     *User     `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	IsPrivate   bool      `json:"isPrivate"`
	Members     []User    `gorm:"many2many:room_members" json:"members,omitempty"`
}

// TableName returns the table name for the Room model.
func (Room) TableName() string {
	return "rooms"
}

// RoomRepository provides access to room storage.
type RoomRepository struct {
	db *gorm.DB
}

// NewRoomRepository creates a new room repository.
func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create saves a new room. The creator is enrolled as the first member.
func (r *RoomRepository) Create(room *Room) error {
	if err := r.db.Create(room).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrRoomNameTaken
		}
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

// FindByID retrieves a room with its creator and members.
func (r *RoomRepository) FindByID(id string) (*Room, error) {
	var room Room
	err := r.db.Preload("Creator").Preload("Members").First(&room, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &room, nil
}

// FindAll retrieves all rooms with creators and members, oldest first.
func (r *RoomRepository) FindAll() ([]*Room, error) {
	var rooms []*Room
	err := r.db.Preload("Creator").Preload("Members").Order("created_at").Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

// AddMember enrolls a user in a room. Adding an existing member is a no-op.
func (r *RoomRepository) AddMember(roomID, userID string) error {
	room, err := r.FindByID(roomID)
	if err != nil {
		return err
	}
	for _, member := range room.Members {
		if member.ID == userID {
			return nil
		}
	}
	if err := r.db.Model(room).Association("Members").Append(&User{ID: userID}); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// RemoveMember removes a user from a room's member list.
func (r *RoomRepository) RemoveMember(roomID, userID string) error {
	room, err := r.FindByID(roomID)
	if err != nil {
		return err
	}
	if err := r.db.Model(room).Association("Members").Delete(&User{ID: userID}); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
