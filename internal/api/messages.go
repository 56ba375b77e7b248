package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/smartwinnr/chat-server/internal/store"
)

type saveMessageRequest struct {
	Content     string `json:"content"`
	RoomID      string `json:"roomId"`
	RecipientID string `json:"recipientId"`
	FileURL     string `json:"fileUrl"`
	FileName    string `json:"fileName"`
	MessageType string `json:"messageType"`
}

func (h *Handler) listRoomMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messages.ListByRoom(chi.URLParam(r, "roomID"))
	if err != nil {
		log.Printf("Error listing room messages: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list messages")
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *Handler) listPrivateMessages(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	messages, err := h.messages.ListPrivate(claims.UserID, chi.URLParam(r, "userID"))
	if err != nil {
		log.Printf("Error listing private messages: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list messages")
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// saveMessage persists one message. Delivery to live connections happens
// over the realtime channel; a failed save here is surfaced only to the
// sending client, which rolls back its optimistic update.
func (h *Handler) saveMessage(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var req saveMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "Message content is required")
		return
	}
	if req.MessageType == "" {
		req.MessageType = "text"
	}

	message := &store.Message{
		ID:          uuid.NewString(),
		SenderID:    claims.UserID,
		SenderName:  claims.Username,
		RoomID:      req.RoomID,
		RecipientID: req.RecipientID,
		Content:     req.Content,
		FileURL:     req.FileURL,
		FileName:    req.FileName,
		MessageType: req.MessageType,
		IsPrivate:   req.RecipientID != "",
	}
	if err := h.messages.Create(message); err != nil {
		log.Printf("Error saving message: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to save message")
		return
	}

	writeJSON(w, http.StatusCreated, message)
}
