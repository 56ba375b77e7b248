// Package server wires HTTP handlers into a chi router for the chat
// application via routing helpers.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures and returns the application router: health check,
// WebSocket endpoint, test page, the REST API subtree, and static serving of
// uploaded files.
func SetupRoutes(hub *Hub, api http.Handler, uploadDir string) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/", HealthHandler)
	r.Get("/ws", NewWebSocketHandler(hub))
	r.Get("/test", TestPageHandler)
	if api != nil {
		r.Mount("/api", api)
	}
	if uploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))))
	}
	return r
}
