// Package api implements the REST surface of the chat service:
// registration and login, room and message CRUD, the contacts list, and
// attachment upload. Every route except auth requires a bearer token.
package api

import (
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/smartwinnr/chat-server/internal/auth"
	"github.com/smartwinnr/chat-server/internal/files"
	"github.com/smartwinnr/chat-server/internal/server"
	"github.com/smartwinnr/chat-server/internal/store"
)

// Handler bundles the collaborators the REST layer needs.
type Handler struct {
	users    *store.UserRepository
	rooms    *store.RoomRepository
	messages *store.MessageRepository
	tokens   *auth.TokenManager
	hasher   *auth.PasswordHasher
	uploads  *files.Storage
	hub      *server.Hub
}

// NewHandler creates the REST handler. The hub may be nil in tests that do
// not exercise realtime announcements.
func NewHandler(db *gorm.DB, tokens *auth.TokenManager, uploads *files.Storage, hub *server.Hub) *Handler {
	return &Handler{
		users:    store.NewUserRepository(db),
		rooms:    store.NewRoomRepository(db),
		messages: store.NewMessageRepository(db),
		tokens:   tokens,
		hasher:   auth.NewPasswordHasher(),
		uploads:  uploads,
		hub:      hub,
	}
}

// Router returns the /api subtree.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", h.listRooms)
			r.Post("/", h.createRoom)
			r.Get("/{roomID}", h.getRoom)
			r.Post("/{roomID}/join", h.joinRoom)
			r.Post("/{roomID}/leave", h.leaveRoom)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Post("/", h.saveMessage)
			r.Get("/room/{roomID}", h.listRoomMessages)
			r.Get("/private/{userID}", h.listPrivateMessages)
		})

		r.Get("/users", h.listUsers)
		r.Post("/upload", h.uploadFile)
	})

	return r
}
