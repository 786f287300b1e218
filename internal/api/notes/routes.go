package notes

import (
	"net/http"

	"github.com/Vasu1712/scenyx-studio/internal/api/respond"
	"github.com/gorilla/mux"
)

func RegisterNoteRoutes(r *mux.Router, h *NoteHandler) {
	r.HandleFunc("/api/v1/notes", respond.Logged(tag, h.CreateNote)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/notes/{id}", respond.Logged(tag, h.UpdateNote)).Methods(http.MethodPatch)
	r.HandleFunc("/api/v1/notes/{id}", respond.Logged(tag, h.DeleteNote)).Methods(http.MethodDelete)
}
