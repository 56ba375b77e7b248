package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/smartwinnr/chat-server/internal/server"
	"github.com/smartwinnr/chat-server/internal/store"
)

type createRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"isPrivate"`
}

func (h *Handler) listRooms(w http.ResponseWriter, _ *http.Request) {
	rooms, err := h.rooms.FindAll()
	if err != nil {
		log.Printf("Error listing rooms: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list rooms")
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *Handler) getRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.rooms.FindByID(chi.URLParam(r, "roomID"))
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "Room not found")
			return
		}
		log.Printf("Error fetching room: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch room")
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handler) createRoom(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var req createRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Room name is required")
		return
	}

	room := &store.Room{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		CreatorID:   claims.UserID,
		IsPrivate:   req.IsPrivate,
		Members:     []store.User{{ID: claims.UserID}},
	}
	if err := h.rooms.Create(room); err != nil {
		if errors.Is(err, store.ErrRoomNameTaken) {
			writeError(w, http.StatusConflict, "Room name already exists")
			return
		}
		log.Printf("Error creating room: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create room")
		return
	}

	created, err := h.rooms.FindByID(room.ID)
	if err != nil {
		log.Printf("Error reloading room: %v", err)
		created = room
	}

	// Announce the new room to every live connection.
	if h.hub != nil {
		h.hub.BroadcastAll(server.EventRoomCreated, created)
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) joinRoom(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	roomID := chi.URLParam(r, "roomID")

	if err := h.rooms.AddMember(roomID, claims.UserID); err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "Room not found")
			return
		}
		log.Printf("Error joining room: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to join room")
		return
	}

	room, err := h.rooms.FindByID(roomID)
	if err != nil {
		log.Printf("Error reloading room: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to join room")
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handler) leaveRoom(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	if err := h.rooms.RemoveMember(chi.URLParam(r, "roomID"), claims.UserID); err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "Room not found")
			return
		}
		log.Printf("Error leaving room: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to leave room")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Left room successfully"})
}
