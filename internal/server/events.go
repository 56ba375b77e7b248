// Package server defines the realtime event envelope and the payload types
// exchanged between chat clients and the relay.
package server

import (
	"encoding/json"
	"strings"
)

// Inbound event names accepted by the relay.
const (
	EventUserJoin       = "user_join"
	EventJoinRoom       = "join_room"
	EventLeaveRoom      = "leave_room"
	EventSendMessage    = "send_message"
	EventTyping         = "typing"
	EventStopTyping     = "stop_typing"
	EventPrivateMessage = "private_message"
)

// Outbound event names emitted by the relay.
const (
	EventUsersList             = "users_list"
	EventReceiveMessage        = "receive_message"
	EventUserTyping            = "user_typing"
	EventUserStopTyping        = "user_stop_typing"
	EventReceivePrivateMessage = "receive_private_message"
	EventRoomCreated           = "room_created"
)

// Envelope is the wire format for every realtime event: a tag naming the
// event and a payload whose shape depends on the tag. Unknown tags and
// payloads missing required fields are dropped without a reply.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// UserJoinPayload announces the user identity behind a connection.
type UserJoinPayload struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// RoomPayload carries the room id for join_room and leave_room.
type RoomPayload struct {
	RoomID string `json:"roomId"`
}

// ChatMessagePayload is the send_message payload. The same shape minus the
// room id is echoed to every subscriber as receive_message, including the
// sender's own connection.
type ChatMessagePayload struct {
	RoomID      string  `json:"roomId,omitempty"`
	Message     string  `json:"message"`
	SenderID    string  `json:"senderId"`
	SenderName  string  `json:"senderName"`
	Timestamp   string  `json:"timestamp"`
	MessageType string  `json:"messageType"`
	FileURL     string  `json:"fileUrl,omitempty"`
	FileName    string  `json:"fileName,omitempty"`
	FileSize    float64 `json:"fileSize,omitempty"`
}

// TypingPayload carries typing and stop_typing notifications.
type TypingPayload struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName,omitempty"`
}

// PrivateMessagePayload is the private_message payload. The recipient gets a
// receive_private_message carrying everything but the recipient id.
type PrivateMessagePayload struct {
	RecipientID string `json:"recipientId"`
	Message     string `json:"message"`
	SenderID    string `json:"senderId"`
	SenderName  string `json:"senderName"`
	Timestamp   string `json:"timestamp"`
}

func encodeEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
