package users

import (
	"net/http"

	"github.com/Vasu1712/scenyx-studio/internal/api/respond"
	"github.com/Vasu1712/scenyx-studio/internal/auth"
	"github.com/Vasu1712/scenyx-studio/internal/models"
	"github.com/Vasu1712/scenyx-studio/internal/storage"
	"github.com/gorilla/mux"
)

const tag = "User"

// UserHandler serves user identities. Tokens is nil when auth is not
// configured.
type UserHandler struct {
	Store  storage.Store
	Tokens *auth.Issuer
}

// GetOrCreateUser expects ?name= and returns the first user with that name,
// creating one with a random avatar icon if there is none.
func (h *UserHandler) GetOrCreateUser(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		respond.Error(w, r, tag, &models.ValidationError{Field: "name", Reason: "is required"})
		return
	}
	u, err := h.Store.GetOrCreateUser(r.Context(), name)
	if err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !respond.Decode(w, r, tag, &req) {
		return
	}
	if req.Name == "" {
		respond.Error(w, r, tag, &models.ValidationError{Field: "name", Reason: "is required"})
		return
	}
	u, err := h.Store.CreateUser(r.Context(), req.Name)
	if err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	respond.JSON(w, http.StatusCreated, u)
}

// IssueToken returns a session token that binds a WebSocket connection to
// the user.
func (h *UserHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	u, err := h.Store.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	token, err := h.Tokens.Issue(u)
	if err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"token": token})
}
