package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/smartwinnr/chat-server/internal/store"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  *store.User `json:"user"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	if _, err := h.users.FindByUsername(req.Username); err == nil {
		writeError(w, http.StatusConflict, "Username already taken")
		return
	} else if !errors.Is(err, store.ErrUserNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}
	if _, err := h.users.FindByEmail(req.Email); err == nil {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	} else if !errors.Is(err, store.ErrUserNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user := &store.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := h.users.Create(user); err != nil {
		log.Printf("Error creating user: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, err := h.tokens.Generate(user.ID, user.Username)
	if err != nil {
		log.Printf("Error generating token: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.FindByUsername(req.Username)
	if err != nil {
		// Identical response for unknown user and bad password.
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !h.hasher.Verify(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.tokens.Generate(user.ID, user.Username)
	if err != nil {
		log.Printf("Error generating token: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}
