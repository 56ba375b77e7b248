package api

import (
	"log"
	"net/http"
)

// listUsers returns every registered user except the caller, for the
// contacts sidebar. Online status comes from the realtime users_list event,
// not from here.
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	users, err := h.users.FindAllExcept(claims.UserID)
	if err != nil {
		log.Printf("Error listing users: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}
