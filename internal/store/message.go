package store

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Message is a persisted chat message, either room-scoped or private between
// two users. File and image messages carry the stored file's URL and name.
type Message struct {
	ID          string    `gorm:"primarykey;size:36" json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	SenderID    string    `gorm:"size:36;index;not null" json:"senderId"`
	SenderName  string    `gorm:"size:50" json:"senderName"`
	RoomID      string    `gorm:"size:36;index" json:"roomId,omitempty"`
	RecipientID string    `gorm:"size:36;index" json:"recipientId,omitempty"`
	Content     string    `gorm:"not null" json:"content"`
	FileURL     string    `gorm:"size:300" json:"fileUrl,omitempty"`
	FileName    string    `gorm:"size:200" json:"fileName,omitempty"`
	MessageType string    `gorm:"size:10;default:text" json:"messageType"`
	IsPrivate   bool      `json:"isPrivate"`
}

// TableName returns the table name for the Message model.
func (Message) TableName() string {
	return "messages"
}

// MessageRepository provides access to message storage.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository.
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create appends a message to history.
func (r *MessageRepository) Create(message *Message) error {
	if err := r.db.Create(message).Error; err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// ListByRoom retrieves a room's messages oldest first.
func (r *MessageRepository) ListByRoom(roomID string) ([]*Message, error) {
	var messages []*Message
	err := r.db.Where("room_id = ?", roomID).Order("created_at").Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list room messages: %w", err)
	}
	return messages, nil
}

// ListPrivate retrieves the private conversation between two users, oldest
// first, regardless of direction.
func (r *MessageRepository) ListPrivate(userID, otherID string) ([]*Message, error) {
	var messages []*Message
	err := r.db.
		Where("is_private = ?", true).
		Where(
			r.db.Where("sender_id = ? AND recipient_id = ?", userID, otherID).
				Or("sender_id = ? AND recipient_id = ?", otherID, userID),
		).
		Order("created_at").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list private messages: %w", err)
	}
	return messages, nil
}
