package users

import (
	"net/http"

	"github.com/Vasu1712/scenyx-studio/internal/api/respond"
	"github.com/gorilla/mux"
)

func RegisterUserRoutes(r *mux.Router, h *UserHandler) {
	r.HandleFunc("/api/v1/users", respond.Logged(tag, h.GetOrCreateUser)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/users", respond.Logged(tag, h.CreateUser)).Methods(http.MethodPost)
	if h.Tokens != nil {
		r.HandleFunc("/api/v1/users/{id}/token", respond.Logged(tag, h.IssueToken)).Methods(http.MethodPost)
	}
}
